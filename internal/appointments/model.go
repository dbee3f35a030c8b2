package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/schedule"
)

// State is the lifecycle state of an appointment. Appointments are never
// deleted; cancellation and rejection are states.
type State string

const (
	StateRequested State = "requested"
	StateAccepted  State = "accepted"
	StateRejected  State = "rejected"
	StateCancelled State = "cancelled"
	StateCompleted State = "completed"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateRequested, StateAccepted, StateRejected, StateCancelled, StateCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateCancelled, StateCompleted:
		return true
	}
	return false
}

// Blocking reports whether an appointment in this state consumes its slot.
// Everything except cancelled and rejected blocks the calendar.
func (s State) Blocking() bool {
	return s != StateCancelled && s != StateRejected
}

// MaxClinicalFields caps the dynamic field list per appointment.
const MaxClinicalFields = 32

// ClinicalField is one dynamic key/value entry attached to an appointment.
// The list is append-only.
type ClinicalField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Appointment is one scheduled encounter between a patient and practitioner.
type Appointment struct {
	ID                  uuid.UUID
	PatientID           uuid.UUID
	PractitionerID      uuid.UUID
	SpecialtyID         uuid.UUID
	StartsAt            time.Time
	DurationMinutes     int
	State               State
	PatientComment      string
	PractitionerComment string
	Review              string
	ClinicalRecord      *ClinicalRecord
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Duration returns the appointment length.
func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

// Interval returns the half-open busy interval the appointment occupies.
func (a *Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.StartsAt, End: a.StartsAt.Add(a.Duration())}
}

// Rating is a patient's one-time review of a completed appointment.
type Rating struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Score         int
	Comment       string
	CreatedAt     time.Time
}

// BookingRequest is one attempted booking, already resolved to an instant in
// clinic time by the transport layer.
type BookingRequest struct {
	PractitionerID  uuid.UUID
	PatientID       uuid.UUID
	SpecialtyID     uuid.UUID
	StartsAt        time.Time
	DurationMinutes int
	Comment         string
}

// Validate checks the request shape before any store access.
func (r *BookingRequest) Validate() error {
	if r.PractitionerID == uuid.Nil {
		return &ValidationError{Field: "practitionerId", Reason: "required"}
	}
	if r.PatientID == uuid.Nil {
		return &ValidationError{Field: "patientId", Reason: "required"}
	}
	if r.SpecialtyID == uuid.Nil {
		return &ValidationError{Field: "specialtyId", Reason: "required"}
	}
	if r.StartsAt.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if r.DurationMinutes <= 0 {
		return &ValidationError{Field: "durationMinutes", Reason: "must be positive"}
	}
	return nil
}
