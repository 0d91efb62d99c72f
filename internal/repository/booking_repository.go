package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// BookingRepo is the MySQL backing store of the reservation ledger.  The
// bookings table carries a generated `live` column that is 1 for pending
// and approved rows and NULL otherwise; the unique index over
// (resource_id, booking_date, slot, live) therefore admits at most one
// live booking per key while letting any number of terminal rows share
// it.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// bookingColumns is the select list shared by every booking query.  The
// date is formatted in SQL so it scans straight into a string.
const bookingColumns = `id, requester_id, resource_id, DATE_FORMAT(booking_date, '%Y-%m-%d'), slot, status,
       reason, attendees, decision_note, checked_in_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBooking reads one booking row produced by bookingColumns.
func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b           model.Booking
		status      string
		reason      sql.NullString
		attendees   sql.NullInt64
		note        sql.NullString
		checkedInAt sql.NullTime
	)
	if err := row.Scan(
		&b.ID, &b.RequesterID, &b.ResourceID, &b.Date, &b.Slot, &status,
		&reason, &attendees, &note, &checkedInAt, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	if reason.Valid {
		s := reason.String
		b.Reason = &s
	}
	if attendees.Valid {
		n := int(attendees.Int64)
		b.Attendees = &n
	}
	if note.Valid {
		s := note.String
		b.DecisionNote = &s
	}
	if checkedInAt.Valid {
		t := checkedInAt.Time.UTC()
		b.CheckedInAt = &t
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

// InsertBooking persists b and fills in its ID.  The insert is a single
// statement; the unique index decides races, so of any number of
// concurrent inserts for one live key exactly one succeeds and the rest
// get ErrDuplicateSlot with nothing written.
func (r *BookingRepo) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (requester_id, resource_id, booking_date, slot, status, reason, attendees, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var attendees any
	if b.Attendees != nil {
		attendees = *b.Attendees
	}
	var reason any
	if b.Reason != nil {
		reason = *b.Reason
	}
	res, err := r.db.ExecContext(ctx, q,
		b.RequesterID, b.ResourceID, b.Date, b.Slot, string(b.Status),
		reason, attendees, b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSlot
		}
		if isMissingParent(err) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetBooking loads a booking by id.  ErrNotFound when absent.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// UpdateStatus moves booking id from `from` to `to` only if the stored
// status is still `from`.  A non-nil note replaces decision_note.  When
// no row changes it distinguishes a missing booking (ErrNotFound) from a
// concurrent writer having got there first (ErrStaleStatus).
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus, note *string, at time.Time) (*model.Booking, error) {
	const q = `UPDATE bookings
	           SET status = ?, decision_note = COALESCE(?, decision_note), updated_at = ?
	           WHERE id = ? AND status = ?`
	var noteArg any
	if note != nil {
		noteArg = *note
	}
	res, err := r.db.ExecContext(ctx, q, string(to), noteArg, at.UTC(), id, string(from))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := r.GetBooking(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}
	return r.GetBooking(ctx, id)
}

// MarkCheckedIn stamps checked_in_at on an approved booking that has not
// been checked in yet.  ErrStaleStatus when the guard does not hold.
func (r *BookingRepo) MarkCheckedIn(ctx context.Context, id uint64, at time.Time) (*model.Booking, error) {
	const q = `UPDATE bookings SET checked_in_at = ?, updated_at = ?
	           WHERE id = ? AND status = 'approved' AND checked_in_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, at.UTC(), at.UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := r.GetBooking(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}
	return r.GetBooking(ctx, id)
}

// OccupiedSlots returns the slot labels held by live bookings for the
// resource on the given date.
func (r *BookingRepo) OccupiedSlots(ctx context.Context, resourceID, date string) ([]string, error) {
	const q = `SELECT slot FROM bookings
	           WHERE resource_id = ? AND booking_date = ? AND status IN ('pending', 'approved')`
	rows, err := r.db.QueryContext(ctx, q, resourceID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListByRequester returns every booking the user ever made, newest date
// first.  Partitioning into upcoming/past happens in the engine.
func (r *BookingRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE requester_id = ? ORDER BY booking_date DESC, id DESC`, requesterID)
}

// ListByStatus returns bookings in the given status, oldest request first.
func (r *BookingRepo) ListByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY created_at, id`, string(status))
}

// CompleteBefore moves every approved booking dated before `date` to
// completed and returns the rows it changed.  Rows are locked while
// selected so a concurrent cancel cannot interleave.
func (r *BookingRepo) CompleteBefore(ctx context.Context, date string, at time.Time) ([]model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	rows, err := tx.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = 'approved' AND booking_date < ? FOR UPDATE`, date)
	if err != nil {
		return nil, err
	}
	var due []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		due = append(due, *b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return []model.Booking{}, nil
	}
	ids := make([]any, 0, len(due)+1)
	placeholders := make([]string, 0, len(due))
	ids = append(ids, at.UTC())
	for _, b := range due {
		ids = append(ids, b.ID)
		placeholders = append(placeholders, "?")
	}
	upd := `UPDATE bookings SET status = 'completed', updated_at = ?
	        WHERE status = 'approved' AND id IN (` + strings.Join(placeholders, ",") + `)`
	if _, err := tx.ExecContext(ctx, upd, ids...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	for i := range due {
		due[i].Status = model.StatusCompleted
		due[i].UpdatedAt = at.UTC()
	}
	return due, nil
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
