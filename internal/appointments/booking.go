package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicdesk/clinic-api/internal/notify"
	"github.com/clinicdesk/clinic-api/internal/observability/metrics"
	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

var bookingTracer = otel.Tracer("clinicdesk.internal.appointments")

// preCheckPadding widens the busy re-fetch around the requested slot so that
// appointments straddling midnight or a zone boundary are still seen.
const preCheckPadding = 24 * time.Hour

// BookingStore is the persistence the booking service needs.
type BookingStore interface {
	PractitionerBusy(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]schedule.Interval, error)
	PatientBusy(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]schedule.Interval, error)
	Insert(ctx context.Context, a *Appointment) error
}

// BookingService books appointments without double-booking. The flow is
// pre-check then insert: the pre-check re-fetches current busy intervals (the
// client's displayed slots are never trusted) and the insert lands on a
// storage exclusion constraint that is the authoritative guard when two
// requests pass the pre-check simultaneously. Both paths report the race as
// ErrSlotUnavailable.
type BookingService struct {
	store   BookingStore
	bus     notify.Publisher
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
}

// NewBookingService constructs a booking service.
func NewBookingService(store BookingStore, bus notify.Publisher, logger *logging.Logger, m *metrics.SchedulingMetrics) *BookingService {
	if store == nil {
		panic("appointments: booking store required")
	}
	if bus == nil {
		bus = notify.NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingService{store: store, bus: bus, logger: logger, metrics: m}
}

// Book validates, re-checks and inserts one appointment in state requested.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.practitioner_id", req.PractitionerID.String()),
		attribute.String("clinic.patient_id", req.PatientID.String()),
	)

	if err := req.Validate(); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}

	slotEnd := req.StartsAt.Add(time.Duration(req.DurationMinutes) * time.Minute)
	if err := s.preCheck(ctx, req, slotEnd); err != nil {
		if err == ErrSlotUnavailable {
			s.metrics.ObserveBooking("slot_unavailable")
		} else {
			s.metrics.ObserveBooking("error")
		}
		span.RecordError(err)
		return nil, err
	}

	appt := &Appointment{
		ID:              uuid.New(),
		PatientID:       req.PatientID,
		PractitionerID:  req.PractitionerID,
		SpecialtyID:     req.SpecialtyID,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		State:           StateRequested,
		PatientComment:  req.Comment,
	}
	if err := s.store.Insert(ctx, appt); err != nil {
		if err == ErrSlotUnavailable {
			s.metrics.ObserveBooking("slot_unavailable")
			s.logger.Info("booking lost insert race",
				"practitioner_id", req.PractitionerID,
				"starts_at", req.StartsAt,
			)
		} else {
			s.metrics.ObserveBooking("error")
		}
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveBooking("booked")
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"practitioner_id", appt.PractitionerID,
		"patient_id", appt.PatientID,
		"starts_at", appt.StartsAt,
	)
	s.publish(ctx, notify.EventBooked, appt)
	return appt, nil
}

// preCheck re-fetches the busy intervals of both parties in a padded window
// around the slot and fails fast when the slot is already consumed.
func (s *BookingService) preCheck(ctx context.Context, req BookingRequest, slotEnd time.Time) error {
	from := req.StartsAt.Add(-preCheckPadding)
	to := slotEnd.Add(preCheckPadding)

	busy, err := s.store.PractitionerBusy(ctx, req.PractitionerID, from, to)
	if err != nil {
		return err
	}
	own, err := s.store.PatientBusy(ctx, req.PatientID, from, to)
	if err != nil {
		return err
	}
	for _, b := range append(busy, own...) {
		if schedule.Overlaps(req.StartsAt, slotEnd, b.Start, b.End) {
			return ErrSlotUnavailable
		}
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, typ notify.EventType, a *Appointment) {
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
