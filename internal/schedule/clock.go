package schedule

import (
	"fmt"
	"time"
)

// ClockTime is a civil time of day in minutes since midnight. All weekday and
// time-of-day comparisons happen in the clinic's local civil time; instants
// only appear once a ClockTime is anchored to a calendar date.
type ClockTime int

// ParseClock parses a 24-hour "HH:MM" string. The whole input must be the
// time; trailing text is rejected.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("schedule: invalid time %q: expected HH:MM", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MustClock is ParseClock that panics; for constants and tests.
func MustClock(s string) ClockTime {
	ct, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return ct
}

func (ct ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(ct)/60, int(ct)%60)
}

// At anchors the time of day to a calendar date in the given location.
func (ct ClockTime) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(ct)/60, int(ct)%60, 0, 0, loc)
}

// DayWindow is one weekday's opening hours. A disabled day keeps its last
// configured times so re-enabling restores them.
type DayWindow struct {
	Enabled bool
	Start   ClockTime
	End     ClockTime
}

// WindowAt converts the day window into a concrete interval on a date.
func (w DayWindow) WindowAt(date time.Time, loc *time.Location) Interval {
	return Interval{Start: w.Start.At(date, loc), End: w.End.At(date, loc)}
}

// WeekWindows maps canonical weekdays to their opening hours.
type WeekWindows map[Weekday]DayWindow
