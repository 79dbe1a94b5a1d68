package core

import "errors"

var (
	// ErrNoCopiesAvailable is informational: the caller should reserve instead.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrDuplicateActiveLoan is returned when the user already has a non-terminal loan on the item.
	ErrDuplicateActiveLoan = errors.New("user already has an active loan on this item")

	// ErrDuplicateActiveReservation is returned when the user already has a non-terminal reservation on the item.
	ErrDuplicateActiveReservation = errors.New("user already has an active reservation on this item")

	// ErrInvalidStateTransition is returned for a transition the status machines do not allow.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNotFound is wrapped by all the specific not-found errors.
	ErrNotFound = errors.New("not found")

	ErrItemNotFound        = errors.Join(ErrNotFound, errors.New("item not found"))
	ErrLoanNotFound        = errors.Join(ErrNotFound, errors.New("loan not found"))
	ErrReservationNotFound = errors.Join(ErrNotFound, errors.New("reservation not found"))

	// ErrConcurrencyConflict is surfaced after the retry budget for a contended item is exhausted.
	// It is retryable by the caller.
	ErrConcurrencyConflict = errors.New("concurrency conflict, retry later")

	ErrNotReservationOwner = errors.New("reservation belongs to another user")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidCopyCount    = errors.New("invalid copy count")
	ErrEmptyID             = errors.New("empty id supplied")
	ErrInvalidPolicy       = errors.New("invalid circulation policy")
)

// ErrInconsistentHistory is returned when an item's events cannot be folded into a valid state.
var ErrInconsistentHistory = errors.New("item event history is inconsistent")
