package core

import (
	"time"
)

// MarkLostCommand represents the report that a loan's copy will never come back.
type MarkLostCommand struct {
	LoanID LoanIDString
	At     time.Time
}

// DecideMarkLost decides that a loaned copy is lost. The copy leaves the total and never re-enters the pool.
//
// Business Rules:
//
//	GIVEN: a borrowed or overdue loan
//	WHEN: it is reported lost
//	THEN: LoanMarkedLost with the replacement cost as fine
//	ERROR: ErrLoanNotFound if the item has no such loan
//	ERROR: ErrInvalidStateTransition if the loan was already returned or lost
func DecideMarkLost(state ItemState, command MarkLostCommand, policy Policy) DecisionResult {
	d := newDecider(state, command.At, policy)

	lost, err := d.state.Loans.MarkLost(command.LoanID, d.at, policy.FineCalculator())
	if err != nil {
		return ErrorDecision(err)
	}

	if err = d.emit(lost); err != nil {
		return ErrorDecision(err)
	}

	return d.result()
}
