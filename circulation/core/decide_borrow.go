package core

import (
	"time"
)

// BorrowCommand represents the intent of a user to borrow a copy of an item.
// LoanID and ReservationID are pre-generated; only one of them ends up being used.
type BorrowCommand struct {
	ItemID        ItemIDString
	UserID        UserIDString
	LoanID        LoanIDString
	ReservationID ReservationIDString
	At            time.Time
}

// DecideBorrow decides whether the user borrows a copy right away or joins the queue.
//
// Business Rules:
//
//	GIVEN: an item known to the catalog
//	WHEN: a user asks to borrow it
//	THEN: offers whose hold window elapsed are expired first, cascading to the next waiter
//	THEN: LoanCreated + ReservationFulfilled if the user holds the outstanding offer
//	THEN: LoanCreated if a copy is free, nobody waits and no offer is outstanding
//	THEN: ReservationEnqueued otherwise
//	ERROR: ErrItemNotFound if the catalog never announced the item
//	ERROR: ErrDuplicateActiveLoan if the user already borrows the item
//	ERROR: ErrDuplicateActiveReservation if the user already waits for the item
//	ERROR: ErrNoCopiesAvailable if the item has no copies and the policy forbids queueing for it
func DecideBorrow(state ItemState, command BorrowCommand, policy Policy) DecisionResult {
	if !state.Known {
		return ErrorDecision(ErrItemNotFound)
	}

	d := newDecider(state, command.At, policy)

	if _, err := d.expireElapsedOffers(); err != nil {
		return ErrorDecision(err)
	}

	if _, ok := d.state.Loans.ActiveLoanOf(command.UserID); ok {
		return ErrorDecision(ErrDuplicateActiveLoan)
	}

	if offer, ok := d.state.Reservations.OfferedTo(command.UserID); ok {
		return d.borrowOffered(offer, command)
	}

	if _, ok := d.state.Reservations.ActiveReservationOf(command.UserID); ok {
		return ErrorDecision(ErrDuplicateActiveReservation)
	}

	if d.canLendImmediately() {
		loan, err := d.state.Loans.CreateLoan(command.ItemID, command.LoanID, command.UserID, "", policy.LoanPeriod, d.at)
		if err != nil {
			return ErrorDecision(err)
		}

		if err = d.emit(loan); err != nil {
			return ErrorDecision(err)
		}

		return d.result()
	}

	if d.state.Availability.Total() == 0 && !policy.AllowQueueOnZeroCapacity {
		return ErrorDecision(ErrNoCopiesAvailable)
	}

	reservation, err := d.state.Reservations.Enqueue(command.ItemID, command.ReservationID, command.UserID, d.at)
	if err != nil {
		return ErrorDecision(err)
	}

	if err = d.emit(reservation); err != nil {
		return ErrorDecision(err)
	}

	if err = d.offerNext(); err != nil {
		return ErrorDecision(err)
	}

	return d.result()
}

// canLendImmediately keeps the queue strictly FIFO: nobody skips a waiter or an outstanding offer.
func (d *decider) canLendImmediately() bool {
	return d.state.Availability.Available() > 0 &&
		!d.state.Reservations.HasWaiters() &&
		d.state.Reservations.OfferedCount() == 0
}

func (d *decider) borrowOffered(offer Reservation, command BorrowCommand) DecisionResult {
	loan, err := d.state.Loans.CreateLoan(
		command.ItemID, command.LoanID, command.UserID, offer.ReservationID, d.policy.LoanPeriod, d.at,
	)
	if err != nil {
		return ErrorDecision(err)
	}

	fulfilled, err := d.state.Reservations.Fulfill(offer.ReservationID, command.LoanID, d.at)
	if err != nil {
		return ErrorDecision(err)
	}

	claimed := DomainEvents{loan, fulfilled}
	for _, event := range claimed {
		if err = d.emit(event); err != nil {
			return ErrorDecision(err)
		}
	}

	if err = d.offerNext(); err != nil {
		return ErrorDecision(err)
	}

	return d.result()
}
