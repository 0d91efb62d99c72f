package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// MemoryStore keeps resources and bookings in process memory behind one
// mutex.  It mirrors the MySQL repositories: a live-key index plays the
// role of the unique index on (resource_id, booking_date, slot, live) and
// status updates are compare-and-set.  Every value handed out is a copy.
// Used with STORE_DRIVER=memory and by tests.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    uint64
	bookings  map[uint64]*model.Booking
	live      map[liveKey]uint64
	resources map[string]*model.Resource
}

type liveKey struct {
	resourceID string
	date       string
	slot       string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:  make(map[uint64]*model.Booking),
		live:      make(map[liveKey]uint64),
		resources: make(map[string]*model.Resource),
	}
}

func keyOf(b *model.Booking) liveKey {
	return liveKey{resourceID: b.ResourceID, date: b.Date, slot: b.Slot}
}

func copyBooking(b *model.Booking) model.Booking {
	out := *b
	if b.Reason != nil {
		s := *b.Reason
		out.Reason = &s
	}
	if b.Attendees != nil {
		n := *b.Attendees
		out.Attendees = &n
	}
	if b.DecisionNote != nil {
		s := *b.DecisionNote
		out.DecisionNote = &s
	}
	if b.CheckedInAt != nil {
		t := *b.CheckedInAt
		out.CheckedInAt = &t
	}
	return out
}

func copyResource(r *model.Resource) model.Resource {
	out := *r
	out.Amenities = append([]string{}, r.Amenities...)
	return out
}

// InsertBooking stores b and assigns its ID.  ErrDuplicateSlot when a
// live booking already holds the key; nothing is written in that case.
func (m *MemoryStore) InsertBooking(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[b.ResourceID]; !ok {
		// mirrors the foreign key on bookings.resource_id
		return ErrNotFound
	}
	k := keyOf(b)
	if b.Status.Live() {
		if _, taken := m.live[k]; taken {
			return ErrDuplicateSlot
		}
	}
	m.nextID++
	b.ID = m.nextID
	stored := copyBooking(b)
	m.bookings[b.ID] = &stored
	if b.Status.Live() {
		m.live[k] = b.ID
	}
	return nil
}

// GetBooking returns a copy of booking id or ErrNotFound.
func (m *MemoryStore) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyBooking(b)
	return &out, nil
}

// UpdateStatus applies from -> to only if the stored status is still from.
func (m *MemoryStore) UpdateStatus(_ context.Context, id uint64, from, to model.BookingStatus, note *string, at time.Time) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != from {
		return nil, ErrStaleStatus
	}
	k := keyOf(b)
	if !to.Live() && m.live[k] == id {
		delete(m.live, k)
	}
	b.Status = to
	if note != nil {
		s := *note
		b.DecisionNote = &s
	}
	b.UpdatedAt = at.UTC()
	out := copyBooking(b)
	return &out, nil
}

// MarkCheckedIn stamps the check-in time of an approved, not yet checked
// in booking.
func (m *MemoryStore) MarkCheckedIn(_ context.Context, id uint64, at time.Time) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != model.StatusApproved || b.CheckedInAt != nil {
		return nil, ErrStaleStatus
	}
	t := at.UTC()
	b.CheckedInAt = &t
	b.UpdatedAt = t
	out := copyBooking(b)
	return &out, nil
}

// OccupiedSlots lists the slots held by live bookings for resource/date.
func (m *MemoryStore) OccupiedSlots(_ context.Context, resourceID, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := make([]string, 0)
	for k := range m.live {
		if k.resourceID == resourceID && k.date == date {
			slots = append(slots, k.slot)
		}
	}
	sort.Strings(slots)
	return slots, nil
}

// ListByRequester returns the user's bookings, newest date first.
func (m *MemoryStore) ListByRequester(_ context.Context, requesterID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range m.bookings {
		if b.RequesterID == requesterID {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListByStatus returns bookings in status, oldest first.
func (m *MemoryStore) ListByStatus(_ context.Context, status model.BookingStatus) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range m.bookings {
		if b.Status == status {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CompleteBefore moves approved bookings dated before date to completed.
func (m *MemoryStore) CompleteBefore(_ context.Context, date string, at time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	done := make([]model.Booking, 0)
	for id, b := range m.bookings {
		if b.Status != model.StatusApproved || b.Date >= date {
			continue
		}
		k := keyOf(b)
		if m.live[k] == id {
			delete(m.live, k)
		}
		b.Status = model.StatusCompleted
		b.UpdatedAt = at.UTC()
		done = append(done, copyBooking(b))
	}
	sort.Slice(done, func(i, j int) bool { return done[i].ID < done[j].ID })
	return done, nil
}

// CreateResource stores res.  ErrDuplicateResource when the ID is taken.
func (m *MemoryStore) CreateResource(_ context.Context, res *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[res.ID]; ok {
		return ErrDuplicateResource
	}
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	stored := copyResource(res)
	m.resources[res.ID] = &stored
	return nil
}

// GetResource returns a copy of resource id or ErrNotFound.
func (m *MemoryStore) GetResource(_ context.Context, id string) (*model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyResource(r)
	return &out, nil
}

// ListResources returns resources ordered by name, optionally by category.
func (m *MemoryStore) ListResources(_ context.Context, category model.Category) ([]model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, copyResource(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateResource overwrites the mutable fields of res.
func (m *MemoryStore) UpdateResource(_ context.Context, res *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.resources[res.ID]
	if !ok {
		return ErrNotFound
	}
	next := copyResource(res)
	next.BookingCount = cur.BookingCount
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	m.resources[res.ID] = &next
	res.UpdatedAt = next.UpdatedAt
	return nil
}

// DeleteResource removes a resource no booking references.
func (m *MemoryStore) DeleteResource(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[id]; !ok {
		return ErrNotFound
	}
	for _, b := range m.bookings {
		if b.ResourceID == id {
			return ErrResourceInUse
		}
	}
	delete(m.resources, id)
	return nil
}

// IncrementBookingCount bumps the denormalized counter of resource id.
func (m *MemoryStore) IncrementBookingCount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return ErrNotFound
	}
	r.BookingCount++
	return nil
}
