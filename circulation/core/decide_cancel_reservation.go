package core

import (
	"time"
)

// CancelReservationCommand represents a user leaving an item's queue.
type CancelReservationCommand struct {
	ReservationID ReservationIDString
	UserID        UserIDString
	At            time.Time
}

// DecideCancelReservation decides a cancellation by the reservation's owner.
//
// Business Rules:
//
//	GIVEN: an active or offered reservation
//	WHEN: its owner cancels it
//	THEN: ReservationCancelled
//	THEN: ReservationOffered to the next waiter if the cancelled reservation held a copy
//	ERROR: ErrReservationNotFound if the item has no such reservation
//	ERROR: ErrNotReservationOwner if another user asks
//	ERROR: ErrInvalidStateTransition if the reservation is already fulfilled, expired or cancelled
func DecideCancelReservation(state ItemState, command CancelReservationCommand, policy Policy) DecisionResult {
	d := newDecider(state, command.At, policy)

	cancelled, err := d.state.Reservations.Cancel(command.ReservationID, command.UserID, d.at)
	if err != nil {
		return ErrorDecision(err)
	}

	if err = d.emit(cancelled); err != nil {
		return ErrorDecision(err)
	}

	if cancelled.WasOffered {
		if err = d.offerNext(); err != nil {
			return ErrorDecision(err)
		}
	}

	return d.result()
}
