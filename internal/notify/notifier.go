package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// UserDirectory resolves a user's name and email address. User/profile
// management lives outside this service; only the lookup is needed here.
type UserDirectory interface {
	Contact(ctx context.Context, userID uuid.UUID) (name, email string, err error)
}

// Subscription delivers appointment events; RedisBus.Subscribe satisfies it.
type Subscription interface {
	Subscribe(ctx context.Context) <-chan Event
}

// Notifier emails the patient (and on bookings, the practitioner) when an
// appointment changes. Send failures are logged and dropped; notifications
// are best effort and never block the change that triggered them.
type Notifier struct {
	email     EmailSender
	directory UserDirectory
	logger    *logging.Logger
}

// NewNotifier creates a notifier; email or directory may be nil to disable.
func NewNotifier(email EmailSender, directory UserDirectory, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{email: email, directory: directory, logger: logger}
}

// Run consumes the subscription until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, sub Subscription) {
	for evt := range sub.Subscribe(ctx) {
		n.Handle(ctx, evt)
	}
}

// Handle emails the interested parties about one event.
func (n *Notifier) Handle(ctx context.Context, evt Event) {
	if n.email == nil || n.directory == nil {
		return
	}

	subject, body := render(evt)
	recipients := []uuid.UUID{evt.PatientID}
	if evt.Type == EventBooked {
		recipients = append(recipients, evt.PractitionerID)
	}

	for _, userID := range recipients {
		name, email, err := n.directory.Contact(ctx, userID)
		if err != nil {
			n.logger.Warn("notify: contact lookup failed", "user_id", userID, "error", err)
			continue
		}
		msg := EmailMessage{To: email, ToName: name, Subject: subject, Body: body}
		if err := n.email.Send(ctx, msg); err != nil {
			n.logger.Warn("notify: email send failed", "user_id", userID, "error", err)
		}
	}
}

func render(evt Event) (subject, body string) {
	when := evt.StartsAt.Format("Monday 2 January 2006, 15:04")
	switch evt.Type {
	case EventBooked:
		return "Appointment requested",
			fmt.Sprintf("An appointment was requested for %s. You will be notified once it is reviewed.", when)
	case EventAccepted:
		return "Appointment confirmed",
			fmt.Sprintf("Your appointment on %s has been confirmed.", when)
	case EventRejected:
		return "Appointment not available",
			fmt.Sprintf("Your appointment request for %s could not be accepted. Please pick another slot.", when)
	case EventCancelled:
		return "Appointment cancelled",
			fmt.Sprintf("Your appointment on %s has been cancelled.", when)
	case EventCompleted:
		return "Appointment completed",
			fmt.Sprintf("Your appointment on %s is complete. You can now leave a review.", when)
	}
	return "Appointment update", fmt.Sprintf("Your appointment on %s was updated.", when)
}
