package availability

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/schedule"
)

func TestServiceGetFillsDefaults(t *testing.T) {
	store := &countingStore{week: schedule.WeekWindows{
		schedule.Monday: day(true, "09:00", "17:00"),
	}}
	svc := NewService(store, DefaultPolicy(), nil)

	week, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	require.Len(t, week, 6)
	assert.Equal(t, day(true, "09:00", "17:00"), week[schedule.Monday])
	assert.False(t, week[schedule.Tuesday].Enabled)
	assert.False(t, week[schedule.Saturday].Enabled)
}

func TestServiceGetNeverNotFound(t *testing.T) {
	svc := NewService(&countingStore{}, DefaultPolicy(), nil)

	week, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Len(t, week, 6)
}

func TestServiceSetRoundTrip(t *testing.T) {
	store := &countingStore{}
	svc := NewService(store, DefaultPolicy(), nil)
	id := uuid.New()

	in := schedule.WeekWindows{
		schedule.Monday:   day(true, "08:30", "18:00"),
		schedule.Saturday: day(true, "09:00", "13:00"),
	}
	require.NoError(t, svc.Set(context.Background(), id, in))

	week, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, day(true, "08:30", "18:00"), week[schedule.Monday])
	assert.Equal(t, day(true, "09:00", "13:00"), week[schedule.Saturday])
}

// Scenario: Saturday 07:00-15:00 is outside the 08:00-14:00 bound; the whole
// set is rejected, leaving the prior Saturday config untouched.
func TestServiceSetRejectsWholesale(t *testing.T) {
	prior := schedule.WeekWindows{schedule.Saturday: day(true, "08:00", "14:00")}
	store := &countingStore{week: prior}
	svc := NewService(store, DefaultPolicy(), nil)
	id := uuid.New()

	bad := schedule.WeekWindows{
		schedule.Monday:   day(true, "08:00", "19:00"), // valid on its own
		schedule.Saturday: day(true, "07:00", "15:00"),
	}
	err := svc.Set(context.Background(), id, bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schedule.Saturday, verr.Weekday)
	assert.Zero(t, store.sets, "nothing may be persisted on validation failure")

	week, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, day(true, "08:00", "14:00"), week[schedule.Saturday])
}
