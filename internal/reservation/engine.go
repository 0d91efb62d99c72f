// Package reservation is the booking core: the slot catalog, the
// availability view, the lifecycle state machine, the ledger that owns
// booking records and the engine that orchestrates them for callers
// identified by model.Identity.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/queue"
	"github.com/iliyamo/resource-reservation/internal/repository"
)

// maxReasonLength bounds the free-text reason and decision note.
const maxReasonLength = 500

// Deps wires an Engine.  Catalog, Bookings and Resources are required.
type Deps struct {
	Catalog   *Catalog
	Bookings  BookingStore
	Resources ResourceStore
	Notifier  Notifier
	Logger    *log.Logger
	Location  *time.Location
	Now       Clock
}

// Engine is the public face of the reservation core.
type Engine struct {
	catalog      *Catalog
	availability *AvailabilityIndex
	ledger       *Ledger
	resources    ResourceStore
	notifier     Notifier
	logger       *log.Logger
}

// NewEngine assembles an Engine from d.  It panics when a required
// dependency is missing.
func NewEngine(d Deps) *Engine {
	if d.Catalog == nil || d.Bookings == nil || d.Resources == nil {
		panic("reservation: catalog, booking store and resource store are required")
	}
	if d.Logger == nil {
		d.Logger = log.New("reservation")
	}
	return &Engine{
		catalog:      d.Catalog,
		availability: NewAvailabilityIndex(d.Bookings),
		ledger:       NewLedger(d.Bookings, d.Resources, d.Now, d.Location, d.Logger),
		resources:    d.Resources,
		notifier:     d.Notifier,
		logger:       d.Logger,
	}
}

// Catalog exposes the slot catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Today is the current calendar day in the engine's time zone.
func (e *Engine) Today() string { return e.ledger.Today() }

// BookingRequest is the input of RequestBooking.
type BookingRequest struct {
	ResourceID string
	Date       string
	Slot       string
	Reason     *string
	Attendees  *int
}

// RequestBooking validates req and creates a pending booking for who.
// Input problems come back as *ValidationError, an occupied slot as
// ErrConflict.  The availability check before the insert only saves a
// write; the insert itself decides races.
func (e *Engine) RequestBooking(ctx context.Context, who model.Identity, req BookingRequest) (*model.Booking, error) {
	req.ResourceID = strings.TrimSpace(req.ResourceID)
	req.Slot = strings.TrimSpace(req.Slot)
	if req.ResourceID == "" {
		return nil, invalid("resource_id", "is required")
	}
	if err := e.checkDate(req.Date); err != nil {
		return nil, err
	}
	if req.Date < e.Today() {
		return nil, invalid("date", "%s is in the past", req.Date)
	}
	if req.Slot == "" {
		return nil, invalid("slot", "is required")
	}
	if !e.catalog.Contains(req.Slot) {
		return nil, invalid("slot", "%q is not a bookable slot", req.Slot)
	}
	reason, err := cleanText("reason", req.Reason)
	if err != nil {
		return nil, err
	}
	if req.Attendees != nil && *req.Attendees < 1 {
		return nil, invalid("attendees", "must be at least 1")
	}

	res, err := e.resources.GetResource(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	if !res.Bookable() {
		return nil, invalid("resource_id", "resource is %s and not accepting bookings", res.Status)
	}
	if req.Attendees != nil && *req.Attendees > res.Capacity {
		return nil, invalid("attendees", "exceeds capacity of %d", res.Capacity)
	}

	occupied, err := e.availability.OccupiedSlots(ctx, res.ID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if _, taken := occupied[req.Slot]; taken {
		return nil, fmt.Errorf("%w: %s on %s is already booked", ErrConflict, req.Slot, req.Date)
	}

	b, err := e.ledger.CreateBooking(ctx, NewBooking{
		RequesterID: who.UserID,
		ResourceID:  res.ID,
		Date:        req.Date,
		Slot:        req.Slot,
		Reason:      reason,
		Attendees:   req.Attendees,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Infoj(log.JSON{"msg": "booking requested", "booking_id": b.ID, "resource_id": b.ResourceID, "date": b.Date, "slot": b.Slot, "requester_id": b.RequesterID})
	e.notify(ctx, queue.EventRequested, who.UserID, b, res.Name)
	return b, nil
}

// Approve accepts a pending booking.  Only approvers may call it.
func (e *Engine) Approve(ctx context.Context, who model.Identity, id uint64) (*model.Booking, error) {
	if !who.IsApprover() {
		return nil, fmt.Errorf("%w: approving requires the admin role", ErrForbidden)
	}
	return e.transition(ctx, who, id, Actor{Kind: Approver, UserID: who.UserID}, model.StatusApproved, nil, queue.EventApproved)
}

// Reject declines a pending booking, storing reason as the decision note.
func (e *Engine) Reject(ctx context.Context, who model.Identity, id uint64, reason *string) (*model.Booking, error) {
	if !who.IsApprover() {
		return nil, fmt.Errorf("%w: rejecting requires the admin role", ErrForbidden)
	}
	note, err := cleanText("reason", reason)
	if err != nil {
		return nil, err
	}
	return e.transition(ctx, who, id, Actor{Kind: Approver, UserID: who.UserID}, model.StatusRejected, note, queue.EventRejected)
}

// Cancel withdraws a pending or approved booking.  Only its requester may
// cancel, and only while the booking date is today or later.
func (e *Engine) Cancel(ctx context.Context, who model.Identity, id uint64) (*model.Booking, error) {
	b, err := e.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.RequesterID != who.UserID {
		return nil, fmt.Errorf("%w: only the requester may cancel a booking", ErrForbidden)
	}
	return e.transition(ctx, who, id, Actor{Kind: Requester, UserID: who.UserID}, model.StatusCancelled, nil, queue.EventCancelled)
}

// Act dispatches one of the PATCH actions: approve, reject or cancel.
func (e *Engine) Act(ctx context.Context, who model.Identity, id uint64, action string, reason *string) (*model.Booking, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approve", "confirm":
		return e.Approve(ctx, who, id)
	case "reject":
		return e.Reject(ctx, who, id, reason)
	case "cancel":
		return e.Cancel(ctx, who, id)
	}
	return nil, invalid("action", "must be one of approve, reject, cancel")
}

// CheckIn records the requester's arrival for an approved booking dated
// today.
func (e *Engine) CheckIn(ctx context.Context, who model.Identity, id uint64) (*model.Booking, error) {
	b, err := e.ledger.CheckIn(ctx, id, who.UserID)
	if err != nil {
		return nil, err
	}
	e.logger.Infoj(log.JSON{"msg": "booking checked in", "booking_id": b.ID, "requester_id": b.RequesterID})
	e.notify(ctx, queue.EventCheckedIn, who.UserID, b, "")
	return b, nil
}

func (e *Engine) transition(ctx context.Context, who model.Identity, id uint64, actor Actor, to model.BookingStatus, note *string, event string) (*model.Booking, error) {
	b, err := e.ledger.TransitionStatus(ctx, id, actor, to, note)
	if err != nil {
		return nil, err
	}
	// approving a booking whose date has passed yields one that already
	// reads as completed
	b.Status = b.EffectiveStatus(e.Today())
	e.logger.Infoj(log.JSON{"msg": "booking status changed", "booking_id": b.ID, "status": string(b.Status), "actor": actor.Kind.String(), "actor_id": who.UserID})
	e.notify(ctx, event, who.UserID, b, "")
	return b, nil
}

// CompleteElapsed persists the completion of approved bookings whose date
// has passed and returns how many were moved.
func (e *Engine) CompleteElapsed(ctx context.Context) (int, error) {
	done, err := e.ledger.CompleteElapsed(ctx)
	if err != nil {
		return 0, err
	}
	for i := range done {
		e.notify(ctx, queue.EventCompleted, 0, &done[i], "")
	}
	if len(done) > 0 {
		e.logger.Infoj(log.JSON{"msg": "bookings completed", "count": len(done)})
	}
	return len(done), nil
}

// ListAvailability returns every catalog slot for resourceID on date with
// its occupancy.  Past dates are allowed and show historical occupancy.
func (e *Engine) ListAvailability(ctx context.Context, resourceID, date string) ([]SlotAvailability, error) {
	if err := e.checkDate(date); err != nil {
		return nil, err
	}
	if _, err := e.resources.GetResource(ctx, resourceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	occupied, err := e.availability.OccupiedSlots(ctx, resourceID, date)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	slots := e.catalog.AllSlots()
	out := make([]SlotAvailability, len(slots))
	for i, s := range slots {
		_, taken := occupied[s]
		out[i] = SlotAvailability{Slot: s, Occupied: taken}
	}
	return out, nil
}

// History is a requester's bookings split around today.
type History struct {
	Upcoming []model.Booking `json:"upcoming"`
	Past     []model.Booking `json:"past"`
}

// BookingsFor returns requesterID's bookings.  Upcoming holds bookings
// dated today or later in ascending order; Past holds the rest in
// descending order.  Statuses are reported as read today.
func (e *Engine) BookingsFor(ctx context.Context, requesterID uint64) (*History, error) {
	all, err := e.ledger.store.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	today := e.Today()
	h := &History{Upcoming: make([]model.Booking, 0), Past: make([]model.Booking, 0)}
	for _, b := range all {
		b.Status = b.EffectiveStatus(today)
		if b.Date >= today {
			h.Upcoming = append(h.Upcoming, b)
		} else {
			h.Past = append(h.Past, b)
		}
	}
	sort.SliceStable(h.Upcoming, func(i, j int) bool { return e.before(&h.Upcoming[i], &h.Upcoming[j]) })
	sort.SliceStable(h.Past, func(i, j int) bool { return e.before(&h.Past[j], &h.Past[i]) })
	return h, nil
}

func (e *Engine) before(a, b *model.Booking) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	pa, pb := e.catalog.position(a.Slot), e.catalog.position(b.Slot)
	if pa != pb {
		return pa < pb
	}
	return a.ID < b.ID
}

// GetBooking returns booking id to its requester or to an approver.
func (e *Engine) GetBooking(ctx context.Context, who model.Identity, id uint64) (*model.Booking, error) {
	b, err := e.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.RequesterID != who.UserID && !who.IsApprover() {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}
	b.Status = b.EffectiveStatus(e.Today())
	return b, nil
}

// ListByStatus returns bookings in status, oldest request first, as read
// today: elapsed approved bookings are listed under completed.
func (e *Engine) ListByStatus(ctx context.Context, who model.Identity, status model.BookingStatus) ([]model.Booking, error) {
	if !who.IsApprover() {
		return nil, fmt.Errorf("%w: listing bookings requires the admin role", ErrForbidden)
	}
	today := e.Today()
	rows, err := e.ledger.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if status == model.StatusCompleted {
		approved, err := e.ledger.store.ListByStatus(ctx, model.StatusApproved)
		if err != nil {
			return nil, fmt.Errorf("list bookings: %w", err)
		}
		rows = append(rows, approved...)
	}
	out := make([]model.Booking, 0, len(rows))
	for _, b := range rows {
		b.Status = b.EffectiveStatus(today)
		if b.Status == status {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (e *Engine) loadBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := e.ledger.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

func (e *Engine) checkDate(date string) error {
	if date == "" {
		return invalid("date", "is required")
	}
	t, err := time.Parse(model.DateLayout, date)
	if err != nil || t.Format(model.DateLayout) != date {
		return invalid("date", "must be YYYY-MM-DD")
	}
	return nil
}

func cleanText(field string, s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > maxReasonLength {
		return nil, invalid(field, "must be at most %d characters", maxReasonLength)
	}
	return &v, nil
}

// notify hands the event to the notifier without blocking the caller.
func (e *Engine) notify(ctx context.Context, typ string, actorID uint64, b *model.Booking, resourceName string) {
	if e.notifier == nil {
		return
	}
	ev := queue.BookingEvent{
		Type:         typ,
		BookingID:    b.ID,
		RequesterID:  b.RequesterID,
		ActorID:      actorID,
		ResourceID:   b.ResourceID,
		ResourceName: resourceName,
		Date:         b.Date,
		Slot:         b.Slot,
		Status:       string(b.Status),
		OccurredAt:   b.UpdatedAt,
	}
	if b.DecisionNote != nil {
		ev.Note = *b.DecisionNote
	}
	go func(ctx context.Context) {
		if err := e.notifier.Notify(ctx, ev); err != nil {
			e.logger.Warnj(log.JSON{"msg": "notification not delivered", "booking_id": ev.BookingID, "type": ev.Type, "error": err.Error()})
		}
	}(context.WithoutCancel(ctx))
}
