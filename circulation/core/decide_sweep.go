package core

import (
	"time"
)

// SweepCommand represents one periodic pass over an item.
type SweepCommand struct {
	ItemID ItemIDString
	At     time.Time
}

// DecideSweep marks overdue loans and expires elapsed offers of one item.
//
// Business Rules:
//
//	GIVEN: any item
//	WHEN: the periodic sweep reaches it
//	THEN: LoanMarkedOverdue for every borrowed loan past its due date
//	THEN: ReservationExpired for an elapsed offer, cascading ReservationOffered to the next waiter
//	IDEMPOTENCY: a second sweep at the same instant yields no event
func DecideSweep(state ItemState, command SweepCommand, policy Policy) DecisionResult {
	if !state.Known {
		return IdempotentDecision(state)
	}

	d := newDecider(state, command.At, policy)

	for _, overdue := range d.state.Loans.SweepOverdue(d.at) {
		if err := d.emit(overdue); err != nil {
			return ErrorDecision(err)
		}
	}

	if _, err := d.expireElapsedOffers(); err != nil {
		return ErrorDecision(err)
	}

	if err := d.offerNext(); err != nil {
		return ErrorDecision(err)
	}

	return d.result()
}
