package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", "2026-09-07 "+hhmm) // a Monday
	require.NoError(t, err)
	return parsed
}

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{Start: at(t, start), End: at(t, end)}
}

func TestOverlapsSymmetric(t *testing.T) {
	a := iv(t, "09:00", "10:00")
	b := iv(t, "09:30", "11:00")

	assert.True(t, Overlaps(a.Start, a.End, b.Start, b.End))
	assert.True(t, Overlaps(b.Start, b.End, a.Start, a.End))
}

func TestOverlapsTouchingEndpointsDoNotOverlap(t *testing.T) {
	a := iv(t, "08:00", "08:30")
	b := iv(t, "08:30", "09:00")

	assert.False(t, Overlaps(a.Start, a.End, b.Start, b.End))
	assert.False(t, Overlaps(b.Start, b.End, a.Start, a.End))
}

func TestOverlapsContainment(t *testing.T) {
	outer := iv(t, "08:00", "12:00")
	inner := iv(t, "09:00", "09:30")

	assert.True(t, OverlapsInterval(outer, inner))
	assert.True(t, OverlapsInterval(inner, outer))
}

func TestSubtractBusyNoBusy(t *testing.T) {
	window := iv(t, "08:00", "12:00")

	free := SubtractBusy(window, nil)
	require.Len(t, free, 1)
	assert.Equal(t, window, free[0])
}

func TestSubtractBusyMiddleBlock(t *testing.T) {
	window := iv(t, "08:00", "12:00")
	busy := []Interval{iv(t, "09:00", "09:30")}

	free := SubtractBusy(window, busy)
	require.Len(t, free, 2)
	assert.Equal(t, iv(t, "08:00", "09:00"), free[0])
	assert.Equal(t, iv(t, "09:30", "12:00"), free[1])
}

func TestSubtractBusyEdgesAndOverhang(t *testing.T) {
	window := iv(t, "08:00", "12:00")
	busy := []Interval{
		iv(t, "07:30", "08:30"), // overhangs left edge
		iv(t, "10:00", "10:30"),
		iv(t, "11:30", "13:00"), // overhangs right edge
	}

	free := SubtractBusy(window, busy)
	require.Len(t, free, 2)
	assert.Equal(t, iv(t, "08:30", "10:00"), free[0])
	assert.Equal(t, iv(t, "10:30", "11:30"), free[1])
}

func TestSubtractBusyBackToBackBlocks(t *testing.T) {
	window := iv(t, "08:00", "10:00")
	busy := []Interval{
		iv(t, "08:00", "09:00"),
		iv(t, "09:00", "10:00"),
	}

	free := SubtractBusy(window, busy)
	assert.Empty(t, free)
}

func TestSubtractBusyUnionProperty(t *testing.T) {
	// The free intervals plus the clamped busy intervals must tile the window
	// exactly, with no overlaps and no gaps.
	window := iv(t, "08:00", "19:00")
	busy := []Interval{
		iv(t, "08:30", "09:00"),
		iv(t, "10:15", "11:45"),
		iv(t, "14:00", "14:30"),
		iv(t, "18:00", "19:00"),
	}

	free := SubtractBusy(window, busy)

	var total time.Duration
	for i, f := range free {
		assert.True(t, f.Start.Before(f.End), "free interval %d must be non-empty", i)
		if i > 0 {
			assert.False(t, free[i-1].End.After(f.Start), "free intervals must be ordered and disjoint")
		}
		for _, b := range busy {
			assert.False(t, OverlapsInterval(f, b), "free interval %v intersects busy %v", f, b)
		}
		total += f.Duration()
	}

	var busyTotal time.Duration
	for _, b := range busy {
		busyTotal += b.Duration()
	}
	assert.Equal(t, window.Duration()-busyTotal, total)
}

func TestTileSlotsCountAndSpacing(t *testing.T) {
	free := iv(t, "08:00", "09:45")

	slots := TileSlots(free, 30*time.Minute)
	require.Len(t, slots, 3) // floor(105/30)
	assert.Equal(t, at(t, "08:00"), slots[0])
	assert.Equal(t, at(t, "08:30"), slots[1])
	assert.Equal(t, at(t, "09:00"), slots[2])
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, 30*time.Minute, slots[i].Sub(slots[i-1]))
	}
	for _, s := range slots {
		assert.False(t, s.Add(30*time.Minute).After(free.End))
	}
}

func TestTileSlotsExactFit(t *testing.T) {
	free := iv(t, "08:00", "09:00")
	slots := TileSlots(free, 60*time.Minute)
	require.Len(t, slots, 1)
	assert.Equal(t, at(t, "08:00"), slots[0])
}

func TestTileSlotsTooShort(t *testing.T) {
	free := iv(t, "08:00", "08:20")
	assert.Empty(t, TileSlots(free, 30*time.Minute))
}

func TestTileSlotsNonPositiveDuration(t *testing.T) {
	free := iv(t, "08:00", "09:00")
	assert.Empty(t, TileSlots(free, 0))
	assert.Empty(t, TileSlots(free, -time.Minute))
}
