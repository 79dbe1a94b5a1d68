package core

import (
	"time"
)

// ReturnCommand represents the intent to return the copy of a loan.
type ReturnCommand struct {
	LoanID LoanIDString
	At     time.Time
}

// DecideReturn decides the return of a loan and hands the freed copy to the queue.
//
// Business Rules:
//
//	GIVEN: a borrowed or overdue loan
//	WHEN: its copy comes back
//	THEN: LoanReturned with the fine for every full day past the due date
//	THEN: ReservationOffered to the head of the queue if nobody holds an offer yet
//	ERROR: ErrLoanNotFound if the item has no such loan
//	ERROR: ErrInvalidStateTransition if the loan was already returned or lost
func DecideReturn(state ItemState, command ReturnCommand, policy Policy) DecisionResult {
	d := newDecider(state, command.At, policy)

	returned, err := d.state.Loans.ReturnLoan(command.LoanID, d.at, policy.FineCalculator())
	if err != nil {
		return ErrorDecision(err)
	}

	if err = d.emit(returned); err != nil {
		return ErrorDecision(err)
	}

	if err = d.offerNext(); err != nil {
		return ErrorDecision(err)
	}

	return d.result()
}
