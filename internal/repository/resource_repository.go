// Package repository contains data access logic separated from HTTP handlers.
// This file defines the resource directory: CRUD and lookup operations over
// the resources table. A Resource is anything students can reserve (study
// rooms, labs, courts); the reservation engine only reads it, while
// administrators maintain it.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// mysqlRowIsReferenced is the server error number for a foreign key
// RESTRICT violation on delete.
const mysqlRowIsReferenced = 1451

// ResourceRepo encapsulates all database queries related to resources.  It
// depends on a sql.DB connection which should be configured elsewhere.
type ResourceRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewResourceRepo constructs a ResourceRepo with the provided DB handle.
func NewResourceRepo(db *sql.DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

const resourceColumns = `id, name, category, capacity, description, location, amenities, status, booking_count, created_at, updated_at`

func scanResource(row rowScanner) (*model.Resource, error) {
	var (
		res       model.Resource
		category  string
		status    string
		amenities []byte
	)
	if err := row.Scan(&res.ID, &res.Name, &category, &res.Capacity, &res.Description, &res.Location,
		&amenities, &status, &res.BookingCount, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Category = model.Category(category)
	res.Status = model.ResourceStatus(status)
	res.Amenities = []string{}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &res.Amenities); err != nil {
			return nil, err
		}
	}
	res.CreatedAt = res.CreatedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()
	return &res, nil
}

// CreateResource inserts a new resource.  The caller supplies the ID.
// ErrDuplicateResource is returned when the ID is already taken.
func (r *ResourceRepo) CreateResource(ctx context.Context, res *model.Resource) error {
	amenities, err := json.Marshal(nonNil(res.Amenities))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const q = `INSERT INTO resources (id, name, category, capacity, description, location, amenities, status, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, res.ID, res.Name, string(res.Category), res.Capacity,
		res.Description, res.Location, amenities, string(res.Status), now, now); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateResource
		}
		return err
	}
	res.CreatedAt, res.UpdatedAt = now, now
	return nil
}

// GetResource fetches a resource by its ID.  It returns ErrNotFound if no
// row is found.
func (r *ResourceRepo) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	res, err := scanResource(r.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// ListResources returns all resources ordered by name, optionally filtered
// by category.  An empty category means no filter.
func (r *ResourceRepo) ListResources(ctx context.Context, category model.Category) ([]model.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources`
	var args []any
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, string(category))
	}
	q += ` ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// UpdateResource overwrites the mutable fields of an existing resource.
// The booking counter is left untouched.
func (r *ResourceRepo) UpdateResource(ctx context.Context, res *model.Resource) error {
	amenities, err := json.Marshal(nonNil(res.Amenities))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const q = `UPDATE resources
	           SET name = ?, category = ?, capacity = ?, description = ?, location = ?, amenities = ?, status = ?, updated_at = ?
	           WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, res.Name, string(res.Category), res.Capacity, res.Description,
		res.Location, amenities, string(res.Status), now, res.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		// unchanged rows report 0 affected; confirm the row exists
		if _, err := r.GetResource(ctx, res.ID); err != nil {
			return err
		}
	}
	res.UpdatedAt = now
	return nil
}

// DeleteResource removes a resource that no booking references.  Bookings
// are retained for history, so a resource that was ever booked cannot be
// deleted and ErrResourceInUse is returned instead; the foreign key on
// bookings.resource_id backs this up for concurrent inserts.
func (r *ResourceRepo) DeleteResource(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var exists string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM resources WHERE id = ? FOR UPDATE`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	var refs int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE resource_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrResourceInUse
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlRowIsReferenced {
			return ErrResourceInUse
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// IncrementBookingCount bumps the denormalized booking counter.
func (r *ResourceRepo) IncrementBookingCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE resources SET booking_count = booking_count + 1 WHERE id = ?`, id)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
