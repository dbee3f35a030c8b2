package schedule

import "time"

// Weekday is the canonical weekday numbering used throughout the service:
// 1=Monday .. 6=Saturday, 7=Sunday. The clinic does not open on Sunday, so
// persisted schedules only carry 1..6, but the full range converts cleanly.
//
// time.Weekday counts 0=Sunday .. 6=Saturday; all conversion from wall-clock
// values happens here and nowhere else.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// WeekdayFromTime converts a time.Weekday to the canonical numbering.
func WeekdayFromTime(w time.Weekday) Weekday {
	if w == time.Sunday {
		return Sunday
	}
	return Weekday(int(w))
}

// WeekdayOf returns the canonical weekday of the given instant.
func WeekdayOf(t time.Time) Weekday {
	return WeekdayFromTime(t.Weekday())
}

// Valid reports whether d is inside the canonical range.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Bookable reports whether the clinic takes appointments on this weekday.
func (d Weekday) Bookable() bool {
	return d >= Monday && d <= Saturday
}

func (d Weekday) String() string {
	switch d {
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	case Sunday:
		return "sunday"
	}
	return "invalid"
}
