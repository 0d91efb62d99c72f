package reservation

import (
	"fmt"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// ActorKind says on whose behalf a transition is attempted.
type ActorKind int

const (
	// Requester is the user who created the booking.
	Requester ActorKind = iota + 1
	// Approver is an admin deciding pending bookings.
	Approver
	// System is the completion sweep.
	System
)

func (k ActorKind) String() string {
	switch k {
	case Requester:
		return "requester"
	case Approver:
		return "approver"
	case System:
		return "system"
	}
	return "unknown"
}

// Actor is the caller of a transition.  UserID is zero for System.
type Actor struct {
	Kind   ActorKind
	UserID uint64
}

// datePrecondition restricts a transition relative to today.
type datePrecondition int

const (
	anyDate datePrecondition = iota
	notPast                  // booking date >= today
	past                     // booking date < today
)

type edge struct {
	from, to model.BookingStatus
}

type rule struct {
	actor ActorKind
	when  datePrecondition
}

// transitions is the complete lifecycle.  Pairs missing here are illegal
// for every actor.
var transitions = map[edge]rule{
	{model.StatusPending, model.StatusApproved}:   {actor: Approver},
	{model.StatusPending, model.StatusRejected}:   {actor: Approver},
	{model.StatusPending, model.StatusCancelled}:  {actor: Requester, when: notPast},
	{model.StatusApproved, model.StatusCancelled}: {actor: Requester, when: notPast},
	{model.StatusApproved, model.StatusCompleted}: {actor: System, when: past},
}

// CheckTransition decides whether actor may move a booking dated date
// from one status to another on day today.  It returns an
// *InvalidTransitionError for pairs outside the table or unmet date
// preconditions, and ErrForbidden when the pair is legal but belongs to
// a different kind of actor.  Ownership is not checked here.
func CheckTransition(from, to model.BookingStatus, actor ActorKind, date, today string) error {
	r, ok := transitions[edge{from, to}]
	if !ok {
		reason := ""
		if from.Terminal() {
			reason = fmt.Sprintf("%s is terminal", from)
		}
		return &InvalidTransitionError{From: from, To: to, Reason: reason}
	}
	if r.actor != actor {
		return fmt.Errorf("%w: only the %s may move a booking from %s to %s", ErrForbidden, r.actor, from, to)
	}
	switch r.when {
	case notPast:
		if date < today {
			return &InvalidTransitionError{From: from, To: to, Reason: "booking date has passed"}
		}
	case past:
		if date >= today {
			return &InvalidTransitionError{From: from, To: to, Reason: "booking date has not passed"}
		}
	}
	return nil
}
