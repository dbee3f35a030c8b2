package availability

import (
	"fmt"

	"github.com/clinicdesk/clinic-api/internal/schedule"
)

// Policy bounds the hours a practitioner may open. Weekdays and Saturday carry
// distinct bounds; Sunday is closed outright.
type Policy struct {
	weekdayOpen   schedule.ClockTime
	weekdayClose  schedule.ClockTime
	saturdayOpen  schedule.ClockTime
	saturdayClose schedule.ClockTime
}

// NewPolicy parses the four HH:MM bounds.
func NewPolicy(weekdayOpen, weekdayClose, saturdayOpen, saturdayClose string) (Policy, error) {
	var p Policy
	var err error
	if p.weekdayOpen, err = schedule.ParseClock(weekdayOpen); err != nil {
		return Policy{}, fmt.Errorf("availability: weekday open: %w", err)
	}
	if p.weekdayClose, err = schedule.ParseClock(weekdayClose); err != nil {
		return Policy{}, fmt.Errorf("availability: weekday close: %w", err)
	}
	if p.saturdayOpen, err = schedule.ParseClock(saturdayOpen); err != nil {
		return Policy{}, fmt.Errorf("availability: saturday open: %w", err)
	}
	if p.saturdayClose, err = schedule.ParseClock(saturdayClose); err != nil {
		return Policy{}, fmt.Errorf("availability: saturday close: %w", err)
	}
	if p.weekdayOpen >= p.weekdayClose || p.saturdayOpen >= p.saturdayClose {
		return Policy{}, fmt.Errorf("availability: policy bounds must open before they close")
	}
	return p, nil
}

// DefaultPolicy is the reference deployment: Mon-Fri 08:00-19:00, Sat 08:00-14:00.
func DefaultPolicy() Policy {
	p, err := NewPolicy("08:00", "19:00", "08:00", "14:00")
	if err != nil {
		panic(err)
	}
	return p
}

// Bound returns the permitted open/close for a weekday. ok is false on Sunday
// and out-of-range values.
func (p Policy) Bound(d schedule.Weekday) (opens, closes schedule.ClockTime, ok bool) {
	switch {
	case d >= schedule.Monday && d <= schedule.Friday:
		return p.weekdayOpen, p.weekdayClose, true
	case d == schedule.Saturday:
		return p.saturdayOpen, p.saturdayClose, true
	}
	return 0, 0, false
}

// DefaultWeek returns the all-disabled schedule a practitioner starts with.
// Disabled days keep the policy bounds as their remembered times.
func (p Policy) DefaultWeek() schedule.WeekWindows {
	week := schedule.WeekWindows{}
	for d := schedule.Monday; d <= schedule.Saturday; d++ {
		opens, closes, _ := p.Bound(d)
		week[d] = schedule.DayWindow{Enabled: false, Start: opens, End: closes}
	}
	return week
}

// ValidationError names the offending weekday and the reason a schedule was
// rejected. The whole schedule is rejected; nothing is persisted.
type ValidationError struct {
	Weekday schedule.Weekday
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("availability: %s: %s", e.Weekday, e.Reason)
}

// Validate checks every enabled day against the policy. The first offending
// day is reported; disabled days are accepted as-is.
func (p Policy) Validate(week schedule.WeekWindows) error {
	for d := schedule.Monday; d <= schedule.Sunday; d++ {
		w, ok := week[d]
		if !ok || !w.Enabled {
			continue
		}
		opens, closes, bookable := p.Bound(d)
		if !bookable {
			return &ValidationError{Weekday: d, Reason: "the clinic does not open on this day"}
		}
		if w.Start >= w.End {
			return &ValidationError{Weekday: d, Reason: "start time must be before end time"}
		}
		if w.Start < opens || w.End > closes {
			return &ValidationError{
				Weekday: d,
				Reason:  fmt.Sprintf("hours must fall within %s-%s", opens, closes),
			}
		}
	}
	for d := range week {
		if !d.Valid() {
			return &ValidationError{Weekday: d, Reason: "unknown weekday"}
		}
	}
	return nil
}
