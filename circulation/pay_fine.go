package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

// PayFineResult carries the loan after the payment.
type PayFineResult struct {
	Loan      core.Loan
	FullyPaid bool
}

// PayFine records a payment against the fine of a loan. Payments add up until the fine is covered.
func (c *Coordinator) PayFine(ctx context.Context, loanID core.LoanIDString, amount core.Money) (PayFineResult, error) {
	if amount <= 0 {
		return PayFineResult{}, core.ErrInvalidAmount
	}

	itemID, err := c.itemOfLoan(ctx, loanID)
	if err != nil {
		return PayFineResult{}, err
	}

	decision, err := c.runOnItem(ctx, operationPayFine, itemID, func(state core.ItemState, at time.Time) core.DecisionResult {
		return core.DecidePayFine(state, core.PayFineCommand{LoanID: loanID, Amount: amount, At: at}, c.policy)
	})
	if err != nil {
		return PayFineResult{}, err
	}

	loan, _ := decision.State.Loans.Get(loanID)

	return PayFineResult{Loan: loan, FullyPaid: loan.FinePaid}, nil
}
