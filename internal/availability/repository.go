package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-api/internal/schedule"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists per-weekday availability rows. Rows are upserted keyed
// on (practitioner_id, weekday) and only ever disabled, never deleted.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("availability: db required")
	}
	return &Repository{db: db}
}

// Get returns the stored rows for a practitioner. Days never configured are
// simply absent from the map; callers overlay defaults.
func (r *Repository) Get(ctx context.Context, practitionerID uuid.UUID) (schedule.WeekWindows, error) {
	rows, err := r.db.Query(ctx, `
		SELECT weekday, enabled, start_minute, end_minute
		FROM practitioner_availability
		WHERE practitioner_id = $1
		ORDER BY weekday
	`, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("availability: select failed: %w", err)
	}
	defer rows.Close()

	week := schedule.WeekWindows{}
	for rows.Next() {
		var (
			weekday     int16
			enabled     bool
			startMinute int16
			endMinute   int16
		)
		if err := rows.Scan(&weekday, &enabled, &startMinute, &endMinute); err != nil {
			return nil, fmt.Errorf("availability: scan failed: %w", err)
		}
		week[schedule.Weekday(weekday)] = schedule.DayWindow{
			Enabled: enabled,
			Start:   schedule.ClockTime(startMinute),
			End:     schedule.ClockTime(endMinute),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: rows failed: %w", err)
	}
	return week, nil
}

// Set upserts every weekday row in one transaction; either the whole schedule
// lands or none of it does.
func (r *Repository) Set(ctx context.Context, practitionerID uuid.UUID, week schedule.WeekWindows) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("availability: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for d := schedule.Monday; d <= schedule.Saturday; d++ {
		w, ok := week[d]
		if !ok {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO practitioner_availability (practitioner_id, weekday, enabled, start_minute, end_minute, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (practitioner_id, weekday)
			DO UPDATE SET enabled = EXCLUDED.enabled,
			              start_minute = EXCLUDED.start_minute,
			              end_minute = EXCLUDED.end_minute,
			              updated_at = now()
		`, practitionerID, int16(d), w.Enabled, int16(w.Start), int16(w.End))
		if err != nil {
			return fmt.Errorf("availability: upsert %s failed: %w", d, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("availability: commit failed: %w", err)
	}
	return nil
}
