// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the reservation engine to
// distinguish storage outcomes without knowing which backend produced
// them. For example, ErrDuplicateSlot means the storage engine rejected
// a second live booking for the same resource, date and slot, while
// ErrStaleStatus means a compare-and-set found a different status than
// the caller expected.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed booking or resource does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateSlot is returned by booking inserts when a live booking
// already holds the same (resource, date, slot) key.
var ErrDuplicateSlot = errors.New("slot already booked")

// ErrDuplicateResource is returned when a resource ID is already taken.
var ErrDuplicateResource = errors.New("resource id already exists")

// ErrStaleStatus is returned when a conditional update did not apply
// because the stored row no longer matches the expected state.
var ErrStaleStatus = errors.New("stale status")

// ErrResourceInUse is returned when deleting a resource that bookings
// still reference.
var ErrResourceInUse = errors.New("resource is referenced by bookings")

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateKey    = 1062 // unique index violation
	mysqlNoReferencedRow = 1452 // foreign key parent missing on insert
)

// isDuplicateKey reports whether err is a MySQL unique constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateKey
}

// isMissingParent reports whether err is a foreign key violation caused by
// inserting a child row whose parent does not exist.
func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}
