package model

import (
	"strings"
	"time"
)

// DateLayout is the persisted and wire format of a booking date.
const DateLayout = "2006-01-02"

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// AllStatuses lists every lifecycle state.
var AllStatuses = []BookingStatus{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

// LiveStatuses are the statuses that occupy a slot.
var LiveStatuses = []BookingStatus{StatusPending, StatusApproved}

// ParseBookingStatus normalizes s into a BookingStatus.  "confirmed" is
// accepted as an alias of approved.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	v := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if v == "confirmed" {
		return StatusApproved, true
	}
	for _, st := range AllStatuses {
		if v == st {
			return v, true
		}
	}
	return "", false
}

// Live reports whether the status occupies its slot.
func (s BookingStatus) Live() bool { return s == StatusPending || s == StatusApproved }

// Terminal reports whether no transition may leave the status.
func (s BookingStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// Booking is one requester's claim on a resource for one date and slot.
// Date is the calendar day in DateLayout; it compares correctly as a
// string.  Bookings are never deleted, only moved to a terminal status.
type Booking struct {
	ID           uint64        `json:"id"`
	RequesterID  uint64        `json:"requester_id"`
	ResourceID   string        `json:"resource_id"`
	Date         string        `json:"date"`
	Slot         string        `json:"slot"`
	Status       BookingStatus `json:"status"`
	Reason       *string       `json:"reason,omitempty"`
	Attendees    *int          `json:"attendees,omitempty"`
	DecisionNote *string       `json:"decision_note,omitempty"`
	CheckedInAt  *time.Time    `json:"checked_in_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// EffectiveStatus returns the status a reader should see given today's
// date: an approved booking whose date has passed reads as completed even
// before the sweep has persisted it.
func (b *Booking) EffectiveStatus(today string) BookingStatus {
	if b.Status == StatusApproved && b.Date < today {
		return StatusCompleted
	}
	return b.Status
}
