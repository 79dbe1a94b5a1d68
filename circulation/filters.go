package circulation

import (
	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

// ItemStreamFilter selects every event of one item. It is both the read and the append filter of all operations,
// so any concurrent change to the item makes a conditional append fail.
func ItemStreamFilter(itemID core.ItemIDString) eventstore.Filter {
	eventTypes := core.AllEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(eventTypes[0], eventTypes[1:]...).
		AndAnyPredicateOf(eventstore.P("ItemID", itemID)).
		Finalize()
}

// loanLookupFilter finds the LoanCreated event of a loan, which names the item it belongs to.
func loanLookupFilter(loanID core.LoanIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.LoanCreatedEventType).
		AndAnyPredicateOf(eventstore.P("LoanID", loanID)).
		Finalize()
}

// reservationLookupFilter finds the ReservationEnqueued event of a reservation.
func reservationLookupFilter(reservationID core.ReservationIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.ReservationEnqueuedEventType).
		AndAnyPredicateOf(eventstore.P("ReservationID", reservationID)).
		Finalize()
}

// sweepCandidatesFilter selects the loan and offer lifecycle events of all items.
func sweepCandidatesFilter() eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LoanCreatedEventType,
			core.LoanMarkedOverdueEventType,
			core.LoanReturnedEventType,
			core.LoanMarkedLostEventType,
			core.ReservationOfferedEventType,
			core.ReservationFulfilledEventType,
			core.ReservationExpiredEventType,
			core.ReservationCancelledEventType,
		).
		Finalize()
}
