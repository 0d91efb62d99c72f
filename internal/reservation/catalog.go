package reservation

import (
	"errors"
	"strings"
)

// DefaultSlots are the nine one-hour slots of the service day.
var DefaultSlots = []string{
	"9:00 AM - 10:00 AM",
	"10:00 AM - 11:00 AM",
	"11:00 AM - 12:00 PM",
	"12:00 PM - 1:00 PM",
	"1:00 PM - 2:00 PM",
	"2:00 PM - 3:00 PM",
	"3:00 PM - 4:00 PM",
	"4:00 PM - 5:00 PM",
	"5:00 PM - 6:00 PM",
}

// maxSlotLength matches the width of bookings.slot.
const maxSlotLength = 64

// Catalog is the ordered, resource-agnostic list of bookable slot labels.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	slots []string
	index map[string]int
}

// NewCatalog builds a catalog from labels in display order.  Labels are
// trimmed; empty lists, blank labels and duplicates are rejected.
func NewCatalog(labels []string) (*Catalog, error) {
	if len(labels) == 0 {
		return nil, errors.New("slot catalog is empty")
	}
	c := &Catalog{slots: make([]string, 0, len(labels)), index: make(map[string]int, len(labels))}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, errors.New("slot catalog contains a blank label")
		}
		if len(l) > maxSlotLength {
			return nil, errors.New("slot label too long: " + l)
		}
		if _, dup := c.index[l]; dup {
			return nil, errors.New("slot catalog contains duplicate label " + l)
		}
		c.index[l] = len(c.slots)
		c.slots = append(c.slots, l)
	}
	return c, nil
}

// DefaultCatalog returns the catalog of DefaultSlots.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(DefaultSlots)
	return c
}

// AllSlots returns the labels in order.  The slice is a copy.
func (c *Catalog) AllSlots() []string {
	return append([]string(nil), c.slots...)
}

// Contains reports whether label is a catalog entry.  Matching is exact.
func (c *Catalog) Contains(label string) bool {
	_, ok := c.index[label]
	return ok
}

// position orders slots within a day; unknown labels sort last.
func (c *Catalog) position(label string) int {
	if i, ok := c.index[label]; ok {
		return i
	}
	return len(c.slots)
}
