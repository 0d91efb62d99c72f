package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/repository"
)

// Ledger is the only writer of Booking records.  Uniqueness of live
// bookings is delegated to the store's atomic insert; status changes go
// through CheckTransition and then a compare-and-set on the stored status.
type Ledger struct {
	store    BookingStore
	counter  BookingCounter
	now      Clock
	location *time.Location
	logger   *log.Logger
}

// NewLedger builds a Ledger.  counter may be nil when no booking counter
// is maintained.
func NewLedger(store BookingStore, counter BookingCounter, now Clock, loc *time.Location, logger *log.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.New("ledger")
	}
	return &Ledger{store: store, counter: counter, now: now, location: loc, logger: logger}
}

// Today is the current calendar day in the ledger's time zone.
func (l *Ledger) Today() string {
	return l.now().In(l.location).Format(model.DateLayout)
}

// NewBooking carries the fields of a booking about to be created.
type NewBooking struct {
	RequesterID uint64
	ResourceID  string
	Date        string
	Slot        string
	Reason      *string
	Attendees   *int
}

// CreateBooking persists a pending booking.  Of any number of concurrent
// calls for the same resource, date and slot at most one succeeds; the
// others get ErrConflict and nothing is written for them.  The resource's
// booking counter is bumped afterwards on a best-effort basis.
func (l *Ledger) CreateBooking(ctx context.Context, nb NewBooking) (*model.Booking, error) {
	now := l.now().UTC()
	b := &model.Booking{
		RequesterID: nb.RequesterID,
		ResourceID:  nb.ResourceID,
		Date:        nb.Date,
		Slot:        nb.Slot,
		Status:      model.StatusPending,
		Reason:      nb.Reason,
		Attendees:   nb.Attendees,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.store.InsertBooking(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateSlot):
			return nil, fmt.Errorf("%w: %s on %s is already booked", ErrConflict, nb.Slot, nb.Date)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	if l.counter != nil {
		if err := l.counter.IncrementBookingCount(ctx, b.ResourceID); err != nil {
			l.logger.Warnj(log.JSON{"msg": "booking counter not updated", "resource_id": b.ResourceID, "error": err.Error()})
		}
	}
	return b, nil
}

// TransitionStatus moves booking id to status `to` on behalf of actor.
// A requester must own the booking.  The write only applies if the stored
// status is unchanged since it was read; losing that race is reported as
// an InvalidTransitionError from the status the winner left behind.
func (l *Ledger) TransitionStatus(ctx context.Context, id uint64, actor Actor, to model.BookingStatus, note *string) (*model.Booking, error) {
	b, err := l.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	today := l.Today()
	if eff := b.EffectiveStatus(today); eff != b.Status && to != eff {
		// approved but elapsed: it already reads as completed
		return nil, &InvalidTransitionError{From: eff, To: to, Reason: fmt.Sprintf("%s is terminal", eff)}
	}
	if err := CheckTransition(b.Status, to, actor.Kind, b.Date, today); err != nil {
		return nil, err
	}
	if actor.Kind == Requester && b.RequesterID != actor.UserID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}
	updated, err := l.store.UpdateStatus(ctx, id, b.Status, to, note, l.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			cur, gerr := l.store.GetBooking(ctx, id)
			if gerr != nil {
				return nil, fmt.Errorf("reload booking: %w", gerr)
			}
			return nil, &InvalidTransitionError{From: cur.Status, To: to, Reason: "status changed concurrently"}
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return updated, nil
}

// CheckIn stamps the check-in time of an approved booking dated today.
// Only its requester may check in, and only once.
func (l *Ledger) CheckIn(ctx context.Context, id uint64, requesterID uint64) (*model.Booking, error) {
	b, err := l.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b.RequesterID != requesterID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}
	today := l.Today()
	if eff := b.EffectiveStatus(today); eff != model.StatusApproved {
		return nil, fmt.Errorf("%w: only approved bookings can be checked in, status is %s", ErrInvalidTransition, eff)
	}
	if b.CheckedInAt != nil {
		return nil, ErrAlreadyCheckedIn
	}
	if b.Date != today {
		return nil, invalid("date", "check-in is only possible on %s", b.Date)
	}
	updated, err := l.store.MarkCheckedIn(ctx, id, l.now())
	if err != nil {
		if !errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("check in: %w", err)
		}
		cur, gerr := l.store.GetBooking(ctx, id)
		if gerr != nil {
			return nil, fmt.Errorf("reload booking: %w", gerr)
		}
		if cur.CheckedInAt != nil {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, &InvalidTransitionError{From: cur.Status, To: model.StatusApproved, Reason: "status changed concurrently"}
	}
	return updated, nil
}

// CompleteElapsed applies the system approved -> completed transition to
// every approved booking dated before today and returns them.
func (l *Ledger) CompleteElapsed(ctx context.Context) ([]model.Booking, error) {
	done, err := l.store.CompleteBefore(ctx, l.Today(), l.now())
	if err != nil {
		return nil, fmt.Errorf("complete elapsed bookings: %w", err)
	}
	return done, nil
}
