package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/notify"
)

func newClientFor(t *testing.T, h *Hub, userID uuid.UUID) *client {
	t.Helper()
	c := &client{userID: userID, send: make(chan []byte, sendBuffer)}
	h.register(c)
	return c
}

func TestHubRegisterUnregister(t *testing.T) {
	h := NewHub(nil)
	userID := uuid.New()

	c := newClientFor(t, h, userID)
	assert.Equal(t, 1, h.ConnectionCount())

	h.unregister(c)
	assert.Equal(t, 0, h.ConnectionCount())

	// Double unregister is harmless.
	h.unregister(c)
	assert.Equal(t, 0, h.ConnectionCount())
}

func TestHubDispatchReachesBothParties(t *testing.T) {
	h := NewHub(nil)
	evt := notify.Event{
		Type:           notify.EventAccepted,
		AppointmentID:  uuid.New(),
		PatientID:      uuid.New(),
		PractitionerID: uuid.New(),
		StartsAt:       time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC),
		State:          "accepted",
	}

	patient := newClientFor(t, h, evt.PatientID)
	practitioner := newClientFor(t, h, evt.PractitionerID)
	bystander := newClientFor(t, h, uuid.New())

	h.Dispatch(evt)

	for _, c := range []*client{patient, practitioner} {
		select {
		case payload := <-c.send:
			var got notify.Event
			require.NoError(t, json.Unmarshal(payload, &got))
			assert.Equal(t, evt.AppointmentID, got.AppointmentID)
		default:
			t.Fatal("expected a delivered event")
		}
	}
	assert.Empty(t, bystander.send)
}

func TestHubDispatchSkipsSlowClients(t *testing.T) {
	h := NewHub(nil)
	userID := uuid.New()
	c := &client{userID: userID, send: make(chan []byte)} // unbuffered, nobody reading
	h.register(c)

	done := make(chan struct{})
	go func() {
		h.Dispatch(notify.Event{Type: notify.EventBooked, PatientID: userID, PractitionerID: uuid.New()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a slow client")
	}
	assert.EqualValues(t, 1, h.DroppedCount())
}

func TestHubDroppedCountConcurrentDispatch(t *testing.T) {
	h := NewHub(nil)
	userID := uuid.New()
	c := &client{userID: userID, send: make(chan []byte)} // unbuffered, nobody reading
	h.register(c)
	evt := notify.Event{Type: notify.EventBooked, PatientID: userID, PractitionerID: uuid.New()}

	const dispatchers, each = 8, 25
	var wg sync.WaitGroup
	wg.Add(dispatchers)
	for i := 0; i < dispatchers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				h.Dispatch(evt)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, dispatchers*each, h.DroppedCount())
}

func TestHubRunConsumesSubscription(t *testing.T) {
	h := NewHub(nil)
	userID := uuid.New()
	c := newClientFor(t, h, userID)

	ch := make(chan notify.Event, 1)
	ch <- notify.Event{Type: notify.EventCancelled, PatientID: userID, PractitionerID: uuid.New()}
	close(ch)

	h.Run(context.Background(), subscriptionFunc(func(context.Context) <-chan notify.Event { return ch }))

	require.Len(t, c.send, 1)
}

type subscriptionFunc func(ctx context.Context) <-chan notify.Event

func (f subscriptionFunc) Subscribe(ctx context.Context) <-chan notify.Event { return f(ctx) }
