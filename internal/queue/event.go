// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import "time"

// BookingEventQueue is the durable queue lifecycle events are published to.
const BookingEventQueue = "booking.events"

// Event types carried in BookingEvent.Type.
const (
	EventRequested = "booking.requested"
	EventApproved  = "booking.approved"
	EventRejected  = "booking.rejected"
	EventCancelled = "booking.cancelled"
	EventCompleted = "booking.completed"
	EventCheckedIn = "booking.checked_in"
)

// BookingEvent is published after a booking changes state.  It contains
// enough information for downstream consumers to log or notify the
// requester without querying the primary database.
type BookingEvent struct {
	Type         string    `json:"type"`
	BookingID    uint64    `json:"booking_id"`
	RequesterID  uint64    `json:"requester_id"`
	ActorID      uint64    `json:"actor_id,omitempty"`
	ResourceID   string    `json:"resource_id"`
	ResourceName string    `json:"resource_name,omitempty"`
	Date         string    `json:"date"`
	Slot         string    `json:"slot"`
	Status       string    `json:"status"`
	Note         string    `json:"note,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
