package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

// ReturnResult carries the returned loan with its assessed fine.
type ReturnResult struct {
	Loan         core.Loan
	FineAssessed core.Money
}

// ReturnItem closes the loan, assesses a fine when late and offers the copy to the head of the queue.
func (c *Coordinator) ReturnItem(ctx context.Context, loanID core.LoanIDString) (ReturnResult, error) {
	itemID, err := c.itemOfLoan(ctx, loanID)
	if err != nil {
		return ReturnResult{}, err
	}

	decision, err := c.runOnItem(ctx, operationReturnItem, itemID, func(state core.ItemState, at time.Time) core.DecisionResult {
		return core.DecideReturn(state, core.ReturnCommand{LoanID: loanID, At: at}, c.policy)
	})
	if err != nil {
		return ReturnResult{}, err
	}

	loan, _ := decision.State.Loans.Get(loanID)

	return ReturnResult{Loan: loan, FineAssessed: loan.FineAmount}, nil
}
