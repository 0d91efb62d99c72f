package reservation

import (
	"errors"
	"fmt"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// Error kinds surfaced by the engine.  Handlers map them to HTTP statuses
// with errors.Is; none of them is fatal to the process.
var (
	// ErrValidation covers missing or malformed input, unknown or inactive
	// resources, past dates and unknown slot labels.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the slot was already held when the write happened.
	ErrConflict = errors.New("slot unavailable")
	// ErrForbidden means the caller lacks authority for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition means the lifecycle refused the status change.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotFound means the addressed booking does not exist.
	ErrNotFound = errors.New("booking not found")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrResourceNotFound is the validation failure for an unknown resource id.
var ErrResourceNotFound = &ValidationError{Field: "resource_id", Message: "resource not found"}

// InvalidTransitionError reports a refused from/to pair.
type InvalidTransitionError struct {
	From   model.BookingStatus
	To     model.BookingStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is makes every InvalidTransitionError match ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ErrAlreadyCheckedIn is returned by a second check-in of the same booking.
var ErrAlreadyCheckedIn = fmt.Errorf("%w: booking already checked in", ErrInvalidTransition)
