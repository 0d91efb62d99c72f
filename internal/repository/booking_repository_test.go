package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resource-reservation/internal/model"
)

var (
	insertBookingSQL = regexp.QuoteMeta("INSERT INTO bookings")
	updateStatusSQL  = `UPDATE bookings SET status = \?, decision_note = COALESCE\(\?, decision_note\), updated_at = \? WHERE id = \? AND status = \?`
	selectByIDSQL    = `SELECT .* FROM bookings WHERE id = \?`
	selectDueSQL     = `SELECT .* FROM bookings WHERE status = 'approved' AND booking_date < \? FOR UPDATE`
	completeSQL      = `UPDATE bookings SET status = 'completed', updated_at = \? WHERE status = 'approved' AND id IN \(\?,\?\)`
)

var bookingRowColumns = []string{
	"id", "requester_id", "resource_id", "booking_date", "slot", "status",
	"reason", "attendees", "decision_note", "checked_in_at", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func bookingRows(status model.BookingStatus, ids ...int64) *sqlmock.Rows {
	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(bookingRowColumns)
	for _, id := range ids {
		rows.AddRow(id, int64(7), "LIB-A", "2025-09-10", slot, string(status), nil, nil, nil, nil, at, at)
	}
	return rows
}

func TestBookingRepo_InsertBooking(t *testing.T) {
	cases := []struct {
		name    string
		execErr error
		wantErr error
		wantID  uint64
	}{
		{"inserted", nil, nil, 42},
		{"live key taken", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ErrDuplicateSlot, 0},
		{"unknown resource", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, ErrNotFound, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			exp := mock.ExpectExec(insertBookingSQL).
				WithArgs(int64(7), "LIB-A", "2025-09-20", slot, "pending", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg())
			if tc.execErr != nil {
				exp.WillReturnError(tc.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(42, 1))
			}

			b := pending(7, "2025-09-20")
			err := repo.InsertBooking(context.Background(), b)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantID, b.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepo_UpdateStatus(t *testing.T) {
	cases := []struct {
		name     string
		affected int64
		reload   *sqlmock.Rows
		wantErr  error
	}{
		{"applied", 1, bookingRows(model.StatusApproved, 1), nil},
		{"status moved on", 0, bookingRows(model.StatusRejected, 1), ErrStaleStatus},
		{"no such booking", 0, sqlmock.NewRows(bookingRowColumns), ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(updateStatusSQL).
				WithArgs("approved", nil, sqlmock.AnyArg(), int64(1), "pending").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectQuery(selectByIDSQL).WithArgs(int64(1)).WillReturnRows(tc.reload)

			got, err := repo.UpdateStatus(context.Background(), 1, model.StatusPending, model.StatusApproved, nil, time.Now())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.StatusApproved, got.Status)
				assert.Equal(t, "2025-09-10", got.Date)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepo_CompleteBefore(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 9, 15, 0, 5, 0, 0, time.UTC)

	t.Run("completes due rows in one transaction", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectDueSQL).WithArgs("2025-09-15").WillReturnRows(bookingRows(model.StatusApproved, 3, 5))
		mock.ExpectExec(completeSQL).WithArgs(sqlmock.AnyArg(), int64(3), int64(5)).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		done, err := repo.CompleteBefore(ctx, "2025-09-15", at)
		require.NoError(t, err)
		require.Len(t, done, 2)
		for _, b := range done {
			assert.Equal(t, model.StatusCompleted, b.Status)
			assert.Equal(t, at, b.UpdatedAt)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing due rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectDueSQL).WithArgs("2025-09-15").WillReturnRows(sqlmock.NewRows(bookingRowColumns))
		mock.ExpectRollback()

		done, err := repo.CompleteBefore(ctx, "2025-09-15", at)
		require.NoError(t, err)
		assert.Empty(t, done)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed update rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectDueSQL).WithArgs("2025-09-15").WillReturnRows(bookingRows(model.StatusApproved, 3, 5))
		broken := errors.New("connection reset")
		mock.ExpectExec(completeSQL).WillReturnError(broken)
		mock.ExpectRollback()

		_, err := repo.CompleteBefore(ctx, "2025-09-15", at)
		assert.ErrorIs(t, err, broken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
