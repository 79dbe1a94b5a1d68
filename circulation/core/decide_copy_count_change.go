package core

import (
	"time"
)

// ChangeCopyCountCommand represents the catalog reporting a new total number of copies for an item.
type ChangeCopyCountCommand struct {
	ItemID   ItemIDString
	NewTotal int
	At       time.Time
}

// DecideCopyCountChange reconciles availability with a new total from the catalog.
//
// Business Rules:
//
//	GIVEN: any item, known or not
//	WHEN: the catalog reports its total copies
//	THEN: ItemCopyCountChanged, registering the item on first sight
//	THEN: ReservationOffered to the head of the queue if copies became free
//	IDEMPOTENCY: a known item with the same total yields no event
//	ERROR: ErrInvalidCopyCount if the total is negative or below the copies on loan or on hold
func DecideCopyCountChange(state ItemState, command ChangeCopyCountCommand, policy Policy) DecisionResult {
	if command.NewTotal < 0 || command.NewTotal < state.Outstanding() {
		return ErrorDecision(ErrInvalidCopyCount)
	}

	if state.Known && state.Availability.Total() == command.NewTotal {
		return IdempotentDecision(state)
	}

	d := newDecider(state, command.At, policy)

	changed := BuildItemCopyCountChanged(command.ItemID, state.Availability.Total(), command.NewTotal, d.at)
	if err := d.emit(changed); err != nil {
		return ErrorDecision(err)
	}

	if err := d.offerNext(); err != nil {
		return ErrorDecision(err)
	}

	return d.result()
}
