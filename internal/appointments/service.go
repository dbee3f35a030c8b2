package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/notify"
	"github.com/clinicdesk/clinic-api/internal/observability/metrics"
	"github.com/clinicdesk/clinic-api/internal/session"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Store is the persistence the lifecycle service needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	TransitionState(ctx context.Context, id uuid.UUID, from State, ch StateChange) error
	AddClinicalFields(ctx context.Context, id uuid.UUID, fields []ClinicalField) error
	ListClinicalFields(ctx context.Context, id uuid.UUID) ([]ClinicalField, error)
	InsertRating(ctx context.Context, rating *Rating) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*Appointment, error)
}

// Service drives the appointment lifecycle: role-gated, state-guarded
// transitions with their required side data.
type Service struct {
	store   Store
	bus     notify.Publisher
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
}

// NewService constructs a lifecycle service.
func NewService(store Store, bus notify.Publisher, logger *logging.Logger, m *metrics.SchedulingMetrics) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if bus == nil {
		bus = notify.NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, bus: bus, logger: logger, metrics: m}
}

// Get returns one appointment visible to the session: its patient, its
// practitioner, or an admin.
func (s *Service) Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*Appointment, error) {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.mayView(sess, appt) {
		return nil, ErrForbidden
	}
	return appt, nil
}

// ClinicalFields returns the dynamic field list of a visible appointment.
func (s *Service) ClinicalFields(ctx context.Context, sess *session.Session, id uuid.UUID) ([]ClinicalField, error) {
	if _, err := s.Get(ctx, sess, id); err != nil {
		return nil, err
	}
	return s.store.ListClinicalFields(ctx, id)
}

// ListForPatient returns a patient's own appointments.
func (s *Service) ListForPatient(ctx context.Context, sess *session.Session, patientID uuid.UUID) ([]*Appointment, error) {
	if sess == nil || !sess.ActsFor(patientID) {
		return nil, ErrForbidden
	}
	return s.store.ListByPatient(ctx, patientID)
}

// ListForPractitioner returns a practitioner's own appointments.
func (s *Service) ListForPractitioner(ctx context.Context, sess *session.Session, practitionerID uuid.UUID) ([]*Appointment, error) {
	if sess == nil || sess.Role == session.RolePatient || !sess.ActsFor(practitionerID) {
		return nil, ErrForbidden
	}
	return s.store.ListByPractitioner(ctx, practitionerID)
}

// Accept moves a requested appointment to accepted. Practitioner only.
func (s *Service) Accept(ctx context.Context, sess *session.Session, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, sess, id, ActionAccept, StateChange{To: StateAccepted})
}

// Reject declines a requested appointment; a comment is required.
func (s *Service) Reject(ctx context.Context, sess *session.Session, id uuid.UUID, comment string) (*Appointment, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, &ValidationError{Field: "comment", Reason: "a rejection comment is required"}
	}
	return s.transition(ctx, sess, id, ActionReject, StateChange{
		To:                  StateRejected,
		PractitionerComment: &comment,
	})
}

// Cancel cancels a requested or accepted appointment; both roles may cancel
// their own appointment, and a comment is required.
func (s *Service) Cancel(ctx context.Context, sess *session.Session, id uuid.UUID, comment string) (*Appointment, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, &ValidationError{Field: "comment", Reason: "a cancellation comment is required"}
	}
	ch := StateChange{To: StateCancelled}
	if sess != nil && sess.Role == session.RolePatient {
		ch.PatientComment = &comment
	} else {
		ch.PractitionerComment = &comment
	}
	return s.transition(ctx, sess, id, ActionCancel, ch)
}

// Complete finishes an accepted appointment with a required review and an
// optional validated clinical record plus dynamic fields.
func (s *Service) Complete(ctx context.Context, sess *session.Session, id uuid.UUID, review string, record *ClinicalRecord, fields []ClinicalField) (*Appointment, error) {
	if strings.TrimSpace(review) == "" {
		return nil, &ValidationError{Field: "review", Reason: "a review summary is required"}
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Key) == "" {
			return nil, &ValidationError{Field: "clinicalFields", Reason: "field keys must not be empty"}
		}
	}
	// The cap must be checked before the state moves: a rejected field list
	// leaves the appointment untouched. The store re-checks inside its
	// transaction for concurrent appends.
	if len(fields) > 0 {
		existing, err := s.store.ListClinicalFields(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(existing)+len(fields) > MaxClinicalFields {
			return nil, &ValidationError{
				Field:  "clinicalFields",
				Reason: fmt.Sprintf("at most %d fields per appointment", MaxClinicalFields),
			}
		}
	}

	appt, err := s.transition(ctx, sess, id, ActionComplete, StateChange{
		To:     StateCompleted,
		Review: &review,
		Record: record,
	})
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.store.AddClinicalFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return appt, nil
}

// Rate stores the patient's one-time rating of a completed appointment.
func (s *Service) Rate(ctx context.Context, sess *session.Session, id uuid.UUID, score int, comment string) (*Rating, error) {
	if score < 1 || score > 5 {
		return nil, &ValidationError{Field: "score", Reason: "must be between 1 and 5"}
	}
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Role != session.RolePatient || appt.PatientID != sess.UserID {
		return nil, ErrForbidden
	}
	if appt.State != StateCompleted {
		return nil, &IllegalTransitionError{Action: "rate", From: appt.State}
	}

	rating := &Rating{
		AppointmentID: id,
		PatientID:     sess.UserID,
		Score:         score,
		Comment:       comment,
	}
	if err := s.store.InsertRating(ctx, rating); err != nil {
		return nil, err
	}
	s.logger.Info("appointment rated", "appointment_id", id, "score", score)
	return rating, nil
}

func (s *Service) mayView(sess *session.Session, appt *Appointment) bool {
	if sess == nil {
		return false
	}
	return sess.Role == session.RoleAdmin || sess.UserID == appt.PatientID || sess.UserID == appt.PractitionerID
}

// owns reports whether the session is a party to the appointment in the role
// the action demands.
func (s *Service) owns(sess *session.Session, action Action, appt *Appointment) bool {
	if sess == nil {
		return false
	}
	switch sess.Role {
	case session.RoleAdmin:
		return true
	case session.RolePatient:
		return appt.PatientID == sess.UserID
	case session.RolePractitioner:
		return appt.PractitionerID == sess.UserID
	}
	return false
}

func (s *Service) transition(ctx context.Context, sess *session.Session, id uuid.UUID, action Action, ch StateChange) (*Appointment, error) {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.owns(sess, action, appt) {
		s.metrics.ObserveTransition(string(action), "forbidden")
		return nil, ErrForbidden
	}
	var role session.Role
	if sess != nil {
		role = sess.Role
	}
	if err := CheckTransition(role, action, appt.State); err != nil {
		s.metrics.ObserveTransition(string(action), "illegal")
		return nil, err
	}

	if err := s.store.TransitionState(ctx, id, appt.State, ch); err != nil {
		if errors.Is(err, errStateConflict) {
			// Lost a race with another transition; report the state as it is now.
			current, getErr := s.store.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			s.metrics.ObserveTransition(string(action), "illegal")
			return nil, &IllegalTransitionError{Action: action, From: current.State}
		}
		s.metrics.ObserveTransition(string(action), "error")
		return nil, err
	}

	updated, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition(string(action), "ok")
	s.logger.Info("appointment transitioned",
		"appointment_id", id,
		"action", action,
		"from", appt.State,
		"to", updated.State,
	)
	s.publishTransition(ctx, action, updated)
	return updated, nil
}

func (s *Service) publishTransition(ctx context.Context, action Action, a *Appointment) {
	var typ notify.EventType
	switch action {
	case ActionAccept:
		typ = notify.EventAccepted
	case ActionReject:
		typ = notify.EventRejected
	case ActionCancel:
		typ = notify.EventCancelled
	case ActionComplete:
		typ = notify.EventCompleted
	default:
		return
	}
	evt := notify.Event{
		Type:           typ,
		AppointmentID:  a.ID,
		PatientID:      a.PatientID,
		PractitionerID: a.PractitionerID,
		StartsAt:       a.StartsAt,
		State:          string(a.State),
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Warn("event publish failed", "appointment_id", a.ID, "type", typ, "error", err)
	}
}
