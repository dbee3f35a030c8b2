package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	sent []EmailMessage
	err  error
}

func (s *stubSender) Send(_ context.Context, msg EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubDirectory struct {
	contacts map[uuid.UUID][2]string
	err      error
}

func (d *stubDirectory) Contact(_ context.Context, userID uuid.UUID) (string, string, error) {
	if d.err != nil {
		return "", "", d.err
	}
	c, ok := d.contacts[userID]
	if !ok {
		return "", "", errors.New("unknown user")
	}
	return c[0], c[1], nil
}

func testEvent(typ EventType) (Event, *stubDirectory) {
	patientID := uuid.New()
	practitionerID := uuid.New()
	evt := Event{
		Type:           typ,
		AppointmentID:  uuid.New(),
		PatientID:      patientID,
		PractitionerID: practitionerID,
		StartsAt:       time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC),
		State:          "requested",
		OccurredAt:     time.Now().UTC(),
	}
	dir := &stubDirectory{contacts: map[uuid.UUID][2]string{
		patientID:      {"Ana", "ana@example.com"},
		practitionerID: {"Dr. Ruiz", "ruiz@example.com"},
	}}
	return evt, dir
}

func TestNotifierBookedEmailsBothParties(t *testing.T) {
	evt, dir := testEvent(EventBooked)
	sender := &stubSender{}
	n := NewNotifier(sender, dir, nil)

	n.Handle(context.Background(), evt)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ana@example.com", sender.sent[0].To)
	assert.Equal(t, "ruiz@example.com", sender.sent[1].To)
	assert.Equal(t, "Appointment requested", sender.sent[0].Subject)
}

func TestNotifierTransitionsEmailPatientOnly(t *testing.T) {
	for _, typ := range []EventType{EventAccepted, EventRejected, EventCancelled, EventCompleted} {
		evt, dir := testEvent(typ)
		sender := &stubSender{}
		n := NewNotifier(sender, dir, nil)

		n.Handle(context.Background(), evt)

		require.Len(t, sender.sent, 1, "%s", typ)
		assert.Equal(t, "ana@example.com", sender.sent[0].To)
	}
}

func TestNotifierSubjects(t *testing.T) {
	cases := map[EventType]string{
		EventAccepted:  "Appointment confirmed",
		EventRejected:  "Appointment not available",
		EventCancelled: "Appointment cancelled",
		EventCompleted: "Appointment completed",
	}
	for typ, subject := range cases {
		evt, dir := testEvent(typ)
		sender := &stubSender{}
		NewNotifier(sender, dir, nil).Handle(context.Background(), evt)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, subject, sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].Body, "Monday 7 September 2026")
	}
}

func TestNotifierDisabledWithoutSenderOrDirectory(t *testing.T) {
	evt, dir := testEvent(EventBooked)

	// No sender configured.
	NewNotifier(nil, dir, nil).Handle(context.Background(), evt)

	// No directory configured.
	sender := &stubSender{}
	NewNotifier(sender, nil, nil).Handle(context.Background(), evt)
	assert.Empty(t, sender.sent)
}

func TestNotifierLookupFailureSkipsRecipient(t *testing.T) {
	evt, _ := testEvent(EventBooked)
	dir := &stubDirectory{err: errors.New("directory down")}
	sender := &stubSender{}

	NewNotifier(sender, dir, nil).Handle(context.Background(), evt)
	assert.Empty(t, sender.sent)
}

func TestNotifierSendFailureIsBestEffort(t *testing.T) {
	evt, dir := testEvent(EventBooked)
	sender := &stubSender{err: errors.New("smtp down")}

	// Must not panic or propagate.
	NewNotifier(sender, dir, nil).Handle(context.Background(), evt)
}

func TestNotifierRunConsumesSubscription(t *testing.T) {
	evt, dir := testEvent(EventAccepted)
	sender := &stubSender{}
	n := NewNotifier(sender, dir, nil)

	ch := make(chan Event, 1)
	ch <- evt
	close(ch)

	n.Run(context.Background(), subscriptionFunc(func(context.Context) <-chan Event { return ch }))
	require.Len(t, sender.sent, 1)
}

type subscriptionFunc func(ctx context.Context) <-chan Event

func (f subscriptionFunc) Subscribe(ctx context.Context) <-chan Event { return f(ctx) }
