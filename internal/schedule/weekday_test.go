package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayFromTimeBothEnds(t *testing.T) {
	// Same week, Monday through Sunday.
	tests := []struct {
		date string
		want Weekday
	}{
		{"2026-09-07", Monday},
		{"2026-09-08", Tuesday},
		{"2026-09-09", Wednesday},
		{"2026-09-10", Thursday},
		{"2026-09-11", Friday},
		{"2026-09-12", Saturday},
		{"2026-09-13", Sunday},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := time.Parse("2006-01-02", tt.date)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, WeekdayOf(d))
		})
	}
}

func TestWeekdayFromTimeSundayMapsToSeven(t *testing.T) {
	// time.Sunday is 0; canonical numbering puts it at 7.
	assert.Equal(t, Sunday, WeekdayFromTime(time.Sunday))
	assert.Equal(t, Saturday, WeekdayFromTime(time.Saturday))
	assert.Equal(t, Monday, WeekdayFromTime(time.Monday))
}

func TestWeekdayBookable(t *testing.T) {
	assert.True(t, Monday.Bookable())
	assert.True(t, Saturday.Bookable())
	assert.False(t, Sunday.Bookable())
	assert.False(t, Weekday(0).Bookable())
}

func TestWeekdayString(t *testing.T) {
	assert.Equal(t, "monday", Monday.String())
	assert.Equal(t, "sunday", Sunday.String())
	assert.Equal(t, "invalid", Weekday(9).String())
}
