package reservation

import "context"

// AvailabilityIndex is a read-only view over the ledger answering which
// slots of a resource are taken on a date.  It is only a pre-check: a
// request can still race between this read and the insert, and the
// ledger's uniqueness guarantee is what decides.
type AvailabilityIndex struct {
	store SlotReader
}

// NewAvailabilityIndex returns an index reading from store.
func NewAvailabilityIndex(store SlotReader) *AvailabilityIndex {
	return &AvailabilityIndex{store: store}
}

// OccupiedSlots returns the set of slot labels held by pending or approved
// bookings of resourceID on date.
func (a *AvailabilityIndex) OccupiedSlots(ctx context.Context, resourceID, date string) (map[string]struct{}, error) {
	slots, err := a.store.OccupiedSlots(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set, nil
}

// SlotAvailability is one catalog slot annotated with its occupancy.
type SlotAvailability struct {
	Slot     string `json:"slot"`
	Occupied bool   `json:"occupied"`
}
