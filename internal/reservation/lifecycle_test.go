package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/repository"
)

const (
	lcToday  = "2025-09-15"
	lcFuture = "2025-09-20"
	lcPast   = "2025-09-10"
)

var allActors = []ActorKind{Requester, Approver, System}

func TestCheckTransition_Table(t *testing.T) {
	cases := []struct {
		from, to model.BookingStatus
		actor    ActorKind
		date     string
	}{
		{model.StatusPending, model.StatusApproved, Approver, lcFuture},
		{model.StatusPending, model.StatusApproved, Approver, lcPast},
		{model.StatusPending, model.StatusRejected, Approver, lcFuture},
		{model.StatusPending, model.StatusCancelled, Requester, lcFuture},
		{model.StatusPending, model.StatusCancelled, Requester, lcToday},
		{model.StatusApproved, model.StatusCancelled, Requester, lcToday},
		{model.StatusApproved, model.StatusCompleted, System, lcPast},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			assert.NoError(t, CheckTransition(tc.from, tc.to, tc.actor, tc.date, lcToday))
		})
	}
}

func TestCheckTransition_WrongActorIsForbidden(t *testing.T) {
	for e, r := range transitions {
		for _, a := range allActors {
			if a == r.actor {
				continue
			}
			err := CheckTransition(e.from, e.to, a, lcFuture, lcToday)
			assert.ErrorIs(t, err, ErrForbidden, "%s->%s by %s", e.from, e.to, a)
		}
	}
}

func TestCheckTransition_DatePreconditions(t *testing.T) {
	err := CheckTransition(model.StatusApproved, model.StatusCancelled, Requester, lcPast, lcToday)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = CheckTransition(model.StatusApproved, model.StatusCompleted, System, lcToday, lcToday)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckTransition_IllegalPairs(t *testing.T) {
	for _, from := range model.AllStatuses {
		for _, to := range model.AllStatuses {
			if _, ok := transitions[edge{from, to}]; ok {
				continue
			}
			for _, a := range allActors {
				err := CheckTransition(from, to, a, lcFuture, lcToday)
				var ite *InvalidTransitionError
				if assert.ErrorAs(t, err, &ite, "%s->%s by %s", from, to, a) {
					assert.Equal(t, from, ite.From)
					assert.Equal(t, to, ite.To)
				}
			}
		}
	}
}

func newTestLedger(t *testing.T) (*Ledger, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateResource(context.Background(), &model.Resource{
		ID: "LIB-A", Name: "Library Room A", Category: model.CategoryLibrary, Capacity: 6, Status: model.ResourceActive,
	}))
	logger := log.New("test")
	logger.SetLevel(log.OFF)
	now := func() time.Time { return time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC) }
	return NewLedger(store, store, now, time.UTC, logger), store
}

// seed stores a booking in an arbitrary status, bypassing the lifecycle.
func seed(t *testing.T, store *repository.MemoryStore, status model.BookingStatus, date string) *model.Booking {
	t.Helper()
	b := &model.Booking{RequesterID: 7, ResourceID: "LIB-A", Date: date, Slot: slotTen, Status: status}
	require.NoError(t, store.InsertBooking(context.Background(), b))
	return b
}

func TestLedger_IllegalTransitionsLeaveStatusUnchanged(t *testing.T) {
	for _, from := range model.AllStatuses {
		for _, to := range model.AllStatuses {
			if _, ok := transitions[edge{from, to}]; ok {
				continue
			}
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				ledger, store := newTestLedger(t)
				b := seed(t, store, from, lcFuture)
				for _, a := range allActors {
					_, err := ledger.TransitionStatus(context.Background(), b.ID, Actor{Kind: a, UserID: 7}, to, nil)
					assert.ErrorIs(t, err, ErrInvalidTransition, "actor %s", a)
				}
				got, err := store.GetBooking(context.Background(), b.ID)
				require.NoError(t, err)
				assert.Equal(t, from, got.Status)
			})
		}
	}
}

func TestLedger_TerminalStatesStayTerminal(t *testing.T) {
	for _, from := range []model.BookingStatus{model.StatusRejected, model.StatusCancelled, model.StatusCompleted} {
		for _, date := range []string{lcPast, lcFuture} {
			ledger, store := newTestLedger(t)
			b := seed(t, store, from, date)
			for _, to := range model.AllStatuses {
				for _, a := range allActors {
					_, err := ledger.TransitionStatus(context.Background(), b.ID, Actor{Kind: a, UserID: 7}, to, nil)
					assert.Error(t, err, "%s->%s by %s on %s", from, to, a, date)
				}
			}
			got, err := store.GetBooking(context.Background(), b.ID)
			require.NoError(t, err)
			assert.Equal(t, from, got.Status)
		}
	}
}

func TestLedger_LegalTransitions(t *testing.T) {
	cases := []struct {
		from, to model.BookingStatus
		actor    ActorKind
		date     string
	}{
		{model.StatusPending, model.StatusApproved, Approver, lcFuture},
		{model.StatusPending, model.StatusRejected, Approver, lcFuture},
		{model.StatusPending, model.StatusCancelled, Requester, lcFuture},
		{model.StatusApproved, model.StatusCancelled, Requester, lcToday},
		{model.StatusApproved, model.StatusCompleted, System, lcPast},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			ledger, store := newTestLedger(t)
			b := seed(t, store, tc.from, tc.date)
			got, err := ledger.TransitionStatus(context.Background(), b.ID, Actor{Kind: tc.actor, UserID: 7}, tc.to, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.to, got.Status)
		})
	}
}

func TestLedger_RequesterMustOwnBooking(t *testing.T) {
	ledger, store := newTestLedger(t)
	b := seed(t, store, model.StatusPending, lcFuture)
	_, err := ledger.TransitionStatus(context.Background(), b.ID, Actor{Kind: Requester, UserID: 8}, model.StatusCancelled, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLedger_CreateBookingConflict(t *testing.T) {
	ledger, _ := newTestLedger(t)
	nb := NewBooking{RequesterID: 7, ResourceID: "LIB-A", Date: lcFuture, Slot: slotTen}
	_, err := ledger.CreateBooking(context.Background(), nb)
	require.NoError(t, err)
	_, err = ledger.CreateBooking(context.Background(), nb)
	assert.ErrorIs(t, err, ErrConflict)

	nb.ResourceID = "NOPE"
	_, err = ledger.CreateBooking(context.Background(), nb)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestLedger_CreateBookingConcurrentSameKey(t *testing.T) {
	ledger, store := newTestLedger(t)
	const n = 100

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := ledger.CreateBooking(context.Background(), NewBooking{
				RequesterID: uint64(100 + i), ResourceID: "LIB-A", Date: lcFuture, Slot: slotTen,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)

	slots, err := store.OccupiedSlots(context.Background(), "LIB-A", lcFuture)
	require.NoError(t, err)
	assert.Equal(t, []string{slotTen}, slots)
}
