package model

import "time"

// ResourceStatus gates whether a resource accepts new bookings.
type ResourceStatus string

const (
	ResourceActive      ResourceStatus = "active"
	ResourceMaintenance ResourceStatus = "maintenance"
	ResourceInactive    ResourceStatus = "inactive"
)

// Valid reports whether s is one of the known resource statuses.
func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceActive, ResourceMaintenance, ResourceInactive:
		return true
	}
	return false
}

// Category classifies a resource.  The set is fixed; every bookable thing
// is a Resource carrying one of these tags.
type Category string

const (
	CategoryLibrary Category = "library"
	CategoryLab     Category = "lab"
	CategorySports  Category = "sports"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryLibrary, CategoryLab, CategorySports}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Resource mirrors a row of the `resources` table.
//
// Fields:
//
//	ID           – stable identifier chosen by the administrator (e.g. LIB-A) or a generated UUID.
//	Name         – display name.
//	Category     – one of Categories.
//	Capacity     – maximum attendees; always positive.
//	Description  – free text shown to students.
//	Location     – building/room hint.
//	Amenities    – tags such as "projector" or "whiteboard".
//	Status       – only ResourceActive accepts new bookings.
//	BookingCount – denormalized counter bumped on every successful booking; may drift.
type Resource struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Category     Category       `json:"category"`
	Capacity     int            `json:"capacity"`
	Description  string         `json:"description"`
	Location     string         `json:"location"`
	Amenities    []string       `json:"amenities"`
	Status       ResourceStatus `json:"status"`
	BookingCount int64          `json:"booking_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Bookable reports whether new bookings may be placed on the resource.
func (r *Resource) Bookable() bool { return r.Status == ResourceActive }
