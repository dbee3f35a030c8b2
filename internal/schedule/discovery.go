package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicdesk/clinic-api/internal/observability/metrics"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

var discoveryTracer = otel.Tracer("clinicdesk.internal.schedule")

// AvailabilitySource yields a practitioner's recurring weekly opening hours.
type AvailabilitySource interface {
	WeekWindows(ctx context.Context, practitionerID uuid.UUID) (WeekWindows, error)
}

// BusySource yields busy intervals derived from active appointments. Cancelled
// and rejected appointments never count as busy.
type BusySource interface {
	PractitionerBusy(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Interval, error)
	PatientBusy(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]Interval, error)
}

// Engine computes bookable dates and slot start times for a practitioner.
// All computation is in the clinic's civil time; reads are idempotent.
type Engine struct {
	avail   AvailabilitySource
	busy    BusySource
	loc     *time.Location
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
}

// NewEngine constructs a discovery engine.
func NewEngine(avail AvailabilitySource, busy BusySource, loc *time.Location, logger *logging.Logger, m *metrics.SchedulingMetrics) *Engine {
	if avail == nil {
		panic("schedule: availability source required")
	}
	if busy == nil {
		panic("schedule: busy source required")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{avail: avail, busy: busy, loc: loc, logger: logger, metrics: m}
}

// Location returns the civil-time location the engine computes in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// BookableDates returns, in ascending order, the calendar dates in
// [from, from+horizonDays) on which at least one slot of the given duration
// is free. When patientID is set, the patient's own appointments also count
// as busy so they are never offered a conflicting slot.
func (e *Engine) BookableDates(ctx context.Context, practitionerID uuid.UUID, duration time.Duration, horizonDays int, from time.Time, patientID *uuid.UUID) ([]time.Time, error) {
	ctx, span := discoveryTracer.Start(ctx, "schedule.bookable_dates")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.practitioner_id", practitionerID.String()),
		attribute.Int("clinic.horizon_days", horizonDays),
	)
	started := time.Now()

	if duration <= 0 {
		return nil, fmt.Errorf("schedule: duration must be positive, got %s", duration)
	}
	if horizonDays <= 0 {
		return nil, fmt.Errorf("schedule: horizon must be positive, got %d", horizonDays)
	}

	week, err := e.avail.WeekWindows(ctx, practitionerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	start := e.midnight(from)
	end := start.AddDate(0, 0, horizonDays)
	busy, err := e.collectBusy(ctx, practitionerID, patientID, start, end)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var dates []time.Time
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		free := e.freeIntervals(week, busy, day)
		if fitsDuration(free, duration) {
			dates = append(dates, day)
		}
	}

	e.metrics.ObserveDiscovery("dates", time.Since(started))
	e.logger.Debug("bookable dates computed",
		"practitioner_id", practitionerID,
		"horizon_days", horizonDays,
		"matches", len(dates),
	)
	return dates, nil
}

// BookableTimes returns the ordered slot start times of the given duration on
// one calendar date, tiling every free interval of that day back-to-back.
func (e *Engine) BookableTimes(ctx context.Context, practitionerID uuid.UUID, date time.Time, duration time.Duration, patientID *uuid.UUID) ([]time.Time, error) {
	ctx, span := discoveryTracer.Start(ctx, "schedule.bookable_times")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.practitioner_id", practitionerID.String()),
		attribute.String("clinic.date", date.Format("2006-01-02")),
	)
	started := time.Now()

	if duration <= 0 {
		return nil, fmt.Errorf("schedule: duration must be positive, got %s", duration)
	}

	week, err := e.avail.WeekWindows(ctx, practitionerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	day := e.midnight(date)
	busy, err := e.collectBusy(ctx, practitionerID, patientID, day, day.AddDate(0, 0, 1))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var slots []time.Time
	for _, f := range e.freeIntervals(week, busy, day) {
		slots = append(slots, TileSlots(f, duration)...)
	}

	e.metrics.ObserveDiscovery("times", time.Since(started))
	return slots, nil
}

// collectBusy unions practitioner and (optionally) patient busy intervals over
// [from, to) and returns them sorted by start time.
func (e *Engine) collectBusy(ctx context.Context, practitionerID uuid.UUID, patientID *uuid.UUID, from, to time.Time) ([]Interval, error) {
	busy, err := e.busy.PractitionerBusy(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("schedule: practitioner busy intervals: %w", err)
	}
	if patientID != nil {
		own, err := e.busy.PatientBusy(ctx, *patientID, from, to)
		if err != nil {
			return nil, fmt.Errorf("schedule: patient busy intervals: %w", err)
		}
		busy = append(busy, own...)
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

// freeIntervals resolves one day's window and subtracts the busy intervals
// that touch it. busy must be sorted by start.
func (e *Engine) freeIntervals(week WeekWindows, busy []Interval, day time.Time) []Interval {
	wd := WeekdayOf(day)
	if !wd.Bookable() {
		return nil
	}
	w, ok := week[wd]
	if !ok || !w.Enabled {
		return nil
	}
	window := w.WindowAt(day, e.loc)

	var dayBusy []Interval
	for _, b := range busy {
		if OverlapsInterval(window, b) {
			dayBusy = append(dayBusy, b)
		}
	}
	return SubtractBusy(window, dayBusy)
}

func (e *Engine) midnight(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

func fitsDuration(free []Interval, d time.Duration) bool {
	for _, f := range free {
		if f.Duration() >= d {
			return true
		}
	}
	return false
}
