package reservation

import (
	"context"
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/queue"
)

// SlotReader answers which slots are held by live bookings.
type SlotReader interface {
	OccupiedSlots(ctx context.Context, resourceID, date string) ([]string, error)
}

// BookingStore is the persistence port of the ledger.  Implementations
// must make InsertBooking atomic with respect to the live (resource, date,
// slot) key and UpdateStatus a compare-and-set on the stored status.
// repository.BookingRepo and repository.MemoryStore satisfy it.
type BookingStore interface {
	SlotReader
	InsertBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus, note *string, at time.Time) (*model.Booking, error)
	MarkCheckedIn(ctx context.Context, id uint64, at time.Time) (*model.Booking, error)
	ListByRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error)
	ListByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error)
	CompleteBefore(ctx context.Context, date string, at time.Time) ([]model.Booking, error)
}

// BookingCounter maintains the denormalized per-resource booking count.
type BookingCounter interface {
	IncrementBookingCount(ctx context.Context, id string) error
}

// ResourceStore is the resource directory port.
type ResourceStore interface {
	CreateResource(ctx context.Context, res *model.Resource) error
	GetResource(ctx context.Context, id string) (*model.Resource, error)
	ListResources(ctx context.Context, category model.Category) ([]model.Resource, error)
	UpdateResource(ctx context.Context, res *model.Resource) error
	DeleteResource(ctx context.Context, id string) error
	BookingCounter
}

// Notifier receives lifecycle events after a successful operation.
// Delivery failures are the notifier's concern; the engine never waits on
// or fails because of it.
type Notifier interface {
	Notify(ctx context.Context, ev queue.BookingEvent) error
}

// Clock yields the current instant.  Tests pin it.
type Clock func() time.Time
