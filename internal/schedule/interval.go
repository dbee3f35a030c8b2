package schedule

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether both endpoints are unset.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching endpoints do not count: [09:00, 09:30) does not overlap [09:30, 10:00).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapsInterval is Overlaps over Interval values.
func OverlapsInterval(a, b Interval) bool {
	return Overlaps(a.Start, a.End, b.Start, b.End)
}

// SubtractBusy removes the busy intervals from the window and returns the
// maximal free sub-intervals, sorted by start and pairwise non-overlapping.
// The busy slice must already be sorted by start time; callers own the sort.
//
// Single left-to-right sweep, O(n) in the number of busy intervals.
func SubtractBusy(window Interval, busy []Interval) []Interval {
	var free []Interval
	cursor := window.Start
	for _, b := range busy {
		if !cursor.Before(window.End) {
			break
		}
		if cursor.Before(b.Start) {
			end := b.Start
			if window.End.Before(end) {
				end = window.End
			}
			if cursor.Before(end) {
				free = append(free, Interval{Start: cursor, End: end})
			}
		}
		if cursor.Before(b.End) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

// TileSlots tiles the free interval with back-to-back slots of the given
// duration and returns their start times. Slots never extend past free.End;
// the count is floor(free.Duration() / d).
func TileSlots(free Interval, d time.Duration) []time.Time {
	if d <= 0 {
		return nil
	}
	var starts []time.Time
	for t := free.Start; !t.Add(d).After(free.End); t = t.Add(d) {
		starts = append(starts, t)
	}
	return starts
}
