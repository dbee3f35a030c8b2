package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/schedule"
)

func day(enabled bool, start, end string) schedule.DayWindow {
	return schedule.DayWindow{Enabled: enabled, Start: schedule.MustClock(start), End: schedule.MustClock(end)}
}

func TestDefaultWeekAllDisabled(t *testing.T) {
	week := DefaultPolicy().DefaultWeek()
	require.Len(t, week, 6)
	for d := schedule.Monday; d <= schedule.Saturday; d++ {
		assert.False(t, week[d].Enabled, "%s should default to disabled", d)
	}
	assert.Equal(t, schedule.MustClock("19:00"), week[schedule.Monday].End)
	assert.Equal(t, schedule.MustClock("14:00"), week[schedule.Saturday].End)
}

func TestValidateAcceptsInBoundSchedule(t *testing.T) {
	week := schedule.WeekWindows{
		schedule.Monday:   day(true, "08:00", "19:00"),
		schedule.Friday:   day(true, "09:30", "17:00"),
		schedule.Saturday: day(true, "08:00", "14:00"),
	}
	assert.NoError(t, DefaultPolicy().Validate(week))
}

func TestValidateStartNotBeforeEnd(t *testing.T) {
	week := schedule.WeekWindows{
		schedule.Tuesday: day(true, "12:00", "12:00"),
	}
	err := DefaultPolicy().Validate(week)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schedule.Tuesday, verr.Weekday)
	assert.Contains(t, verr.Reason, "start time must be before end time")
}

// Saturday 07:00-15:00 violates the 08:00-14:00 Saturday bound on both ends.
func TestValidateSaturdayOutsideBound(t *testing.T) {
	week := schedule.WeekWindows{
		schedule.Monday:   day(true, "08:00", "19:00"),
		schedule.Saturday: day(true, "07:00", "15:00"),
	}
	err := DefaultPolicy().Validate(week)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schedule.Saturday, verr.Weekday)
	assert.Contains(t, verr.Reason, "08:00-14:00")
}

func TestValidateSundayRejected(t *testing.T) {
	week := schedule.WeekWindows{
		schedule.Sunday: day(true, "09:00", "12:00"),
	}
	err := DefaultPolicy().Validate(week)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schedule.Sunday, verr.Weekday)
}

func TestValidateDisabledDaysSkipped(t *testing.T) {
	// Disabled days may carry stale out-of-bound times, or the zeroed
	// 00:00-00:00 some clients send, without failing.
	week := schedule.WeekWindows{
		schedule.Monday:    day(false, "00:00", "00:00"),
		schedule.Wednesday: day(false, "05:00", "23:00"),
	}
	assert.NoError(t, DefaultPolicy().Validate(week))
}

func TestNewPolicyRejectsInvertedBounds(t *testing.T) {
	_, err := NewPolicy("19:00", "08:00", "08:00", "14:00")
	assert.Error(t, err)
	_, err = NewPolicy("8am", "19:00", "08:00", "14:00")
	assert.Error(t, err)
}
