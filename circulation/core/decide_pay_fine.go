package core

import (
	"time"
)

// PayFineCommand represents a payment received from the payment collaborator.
type PayFineCommand struct {
	LoanID LoanIDString
	Amount Money
	At     time.Time
}

// DecidePayFine records a payment towards a loan's fine.
//
// Business Rules:
//
//	GIVEN: a returned or lost loan with an outstanding fine
//	WHEN: a payment arrives
//	THEN: FinePaymentRecorded, fully paid once all payments together cover the fine
//	ERROR: ErrInvalidAmount if the amount is not positive
//	ERROR: ErrLoanNotFound if the item has no such loan
//	ERROR: ErrInvalidStateTransition if there is no fine or it is already paid
func DecidePayFine(state ItemState, command PayFineCommand, policy Policy) DecisionResult {
	d := newDecider(state, command.At, policy)

	payment, err := d.state.Loans.RecordPayment(command.LoanID, command.Amount, d.at, policy.FineCalculator())
	if err != nil {
		return ErrorDecision(err)
	}

	if err = d.emit(payment); err != nil {
		return ErrorDecision(err)
	}

	return d.result()
}
