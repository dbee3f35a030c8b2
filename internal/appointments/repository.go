package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-api/internal/schedule"
)

// Postgres error codes the repository maps to domain errors.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// errStateConflict reports a guarded state update that matched zero rows: the
// appointment is gone or no longer in the expected source state.
var errStateConflict = errors.New("appointments: state changed concurrently")

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists appointments, their clinical side data and ratings.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("appointments: db required")
	}
	return &Repository{db: db}
}

const appointmentColumns = `
	id, patient_id, practitioner_id, specialty_id, starts_at, duration_minutes,
	state, patient_comment, practitioner_comment, review,
	height_cm, weight_kg, temperature_c, blood_pressure,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		rec    ClinicalRecord
		hasRec bool
	)
	err := row.Scan(
		&a.ID, &a.PatientID, &a.PractitionerID, &a.SpecialtyID, &a.StartsAt, &a.DurationMinutes,
		&a.State, &a.PatientComment, &a.PractitionerComment, &a.Review,
		&rec.HeightCM, &rec.WeightKG, &rec.TemperatureC, &rec.BloodPressure,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rec.HeightCM != nil || rec.WeightKG != nil || rec.TemperatureC != nil || rec.BloodPressure != nil {
		hasRec = true
	}
	if hasRec {
		a.ClinicalRecord = &rec
	}
	return &a, nil
}

// Insert writes a new appointment row. The appointments table carries an
// exclusion constraint over (practitioner_id, time range) for blocking states;
// a violation means another booking won the race and surfaces as
// ErrSlotUnavailable, the same contract the pre-check uses.
func (r *Repository) Insert(ctx context.Context, a *Appointment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, practitioner_id, specialty_id, starts_at, duration_minutes, state, patient_comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, a.ID, a.PatientID, a.PractitionerID, a.SpecialtyID, a.StartsAt, a.DurationMinutes, a.State, a.PatientComment,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one appointment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT`+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return a, nil
}

// StateChange carries the updates applied alongside a guarded transition.
// Nil fields keep their stored value.
type StateChange struct {
	To                  State
	PatientComment      *string
	PractitionerComment *string
	Review              *string
	Record              *ClinicalRecord
}

// TransitionState applies a guarded single-statement update: the row only
// changes if it is still in the expected source state. Zero rows affected
// yields errStateConflict so the caller can report the real current state.
func (r *Repository) TransitionState(ctx context.Context, id uuid.UUID, from State, ch StateChange) error {
	rec := ch.Record
	if rec == nil {
		rec = &ClinicalRecord{}
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET state = $3,
		    patient_comment = COALESCE($4, patient_comment),
		    practitioner_comment = COALESCE($5, practitioner_comment),
		    review = COALESCE($6, review),
		    height_cm = COALESCE($7, height_cm),
		    weight_kg = COALESCE($8, weight_kg),
		    temperature_c = COALESCE($9, temperature_c),
		    blood_pressure = COALESCE($10, blood_pressure),
		    updated_at = now()
		WHERE id = $1 AND state = $2
	`, id, from, ch.To,
		ch.PatientComment, ch.PractitionerComment, ch.Review,
		rec.HeightCM, rec.WeightKG, rec.TemperatureC, rec.BloodPressure,
	)
	if err != nil {
		return fmt.Errorf("appointments: transition failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errStateConflict
	}
	return nil
}

// AddClinicalFields appends dynamic key/value entries, enforcing the per-
// appointment cap inside one transaction.
func (r *Repository) AddClinicalFields(ctx context.Context, id uuid.UUID, fields []ClinicalField) error {
	if len(fields) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment_clinical_fields WHERE appointment_id = $1`, id,
	).Scan(&existing); err != nil {
		return fmt.Errorf("appointments: count clinical fields: %w", err)
	}
	if existing+len(fields) > MaxClinicalFields {
		return &ValidationError{
			Field:  "clinicalFields",
			Reason: fmt.Sprintf("at most %d fields per appointment", MaxClinicalFields),
		}
	}

	for i, f := range fields {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointment_clinical_fields (appointment_id, position, key, value)
			VALUES ($1, $2, $3, $4)
		`, id, existing+i, f.Key, f.Value); err != nil {
			return fmt.Errorf("appointments: insert clinical field: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit failed: %w", err)
	}
	return nil
}

// ListClinicalFields returns the appended fields in insertion order.
func (r *Repository) ListClinicalFields(ctx context.Context, id uuid.UUID) ([]ClinicalField, error) {
	rows, err := r.db.Query(ctx, `
		SELECT key, value FROM appointment_clinical_fields
		WHERE appointment_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("appointments: select clinical fields: %w", err)
	}
	defer rows.Close()

	var fields []ClinicalField
	for rows.Next() {
		var f ClinicalField
		if err := rows.Scan(&f.Key, &f.Value); err != nil {
			return nil, fmt.Errorf("appointments: scan clinical field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// InsertRating stores a patient's one-time rating; the table's primary key on
// appointment_id enforces "once per appointment".
func (r *Repository) InsertRating(ctx context.Context, rating *Rating) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointment_ratings (appointment_id, patient_id, score, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, rating.AppointmentID, rating.PatientID, rating.Score, rating.Comment).Scan(&rating.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyRated
		}
		return fmt.Errorf("appointments: insert rating failed: %w", err)
	}
	return nil
}

// busyQuery selects the busy intervals of blocking appointments intersecting
// [from, to) for one owner column.
func (r *Repository) busyIntervals(ctx context.Context, ownerColumn string, ownerID uuid.UUID, from, to time.Time) ([]schedule.Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT starts_at, duration_minutes FROM appointments
		WHERE `+ownerColumn+` = $1
		  AND state NOT IN ('cancelled', 'rejected')
		  AND starts_at < $3
		  AND starts_at + make_interval(mins => duration_minutes) > $2
		ORDER BY starts_at
	`, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: busy select failed: %w", err)
	}
	defer rows.Close()

	var busy []schedule.Interval
	for rows.Next() {
		var (
			start time.Time
			mins  int
		)
		if err := rows.Scan(&start, &mins); err != nil {
			return nil, fmt.Errorf("appointments: busy scan failed: %w", err)
		}
		busy = append(busy, schedule.Interval{Start: start, End: start.Add(time.Duration(mins) * time.Minute)})
	}
	return busy, rows.Err()
}

// PractitionerBusy implements schedule.BusySource.
func (r *Repository) PractitionerBusy(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]schedule.Interval, error) {
	return r.busyIntervals(ctx, "practitioner_id", practitionerID, from, to)
}

// PatientBusy implements schedule.BusySource.
func (r *Repository) PatientBusy(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]schedule.Interval, error) {
	return r.busyIntervals(ctx, "patient_id", patientID, from, to)
}

// listBy returns appointments for one owner column, newest first.
func (r *Repository) listBy(ctx context.Context, ownerColumn string, ownerID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+appointmentColumns+` FROM appointments WHERE `+ownerColumn+` = $1 ORDER BY starts_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: list scan failed: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByPatient returns a patient's appointments, newest first.
func (r *Repository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return r.listBy(ctx, "patient_id", patientID)
}

// ListByPractitioner returns a practitioner's appointments, newest first.
func (r *Repository) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*Appointment, error) {
	return r.listBy(ctx, "practitioner_id", practitionerID)
}
