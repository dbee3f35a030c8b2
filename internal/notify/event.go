// Package notify carries appointment change events out of the core: a redis
// pub/sub bus for realtime consumers and an email notifier for the parties of
// an appointment. The core only publishes; it never depends on subscribers.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// EventType names what happened to an appointment.
type EventType string

const (
	EventBooked    EventType = "appointment.booked"
	EventAccepted  EventType = "appointment.accepted"
	EventRejected  EventType = "appointment.rejected"
	EventCancelled EventType = "appointment.cancelled"
	EventCompleted EventType = "appointment.completed"
)

// Event is one appointment change, as published on the bus.
type Event struct {
	Type           EventType `json:"type"`
	AppointmentID  uuid.UUID `json:"appointmentId"`
	PatientID      uuid.UUID `json:"patientId"`
	PractitionerID uuid.UUID `json:"practitionerId"`
	StartsAt       time.Time `json:"startsAt"`
	State          string    `json:"state"`
	OccurredAt     time.Time `json:"occurredAt"`
}
