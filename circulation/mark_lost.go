package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

// LostResult carries the lost loan with its replacement fine.
type LostResult struct {
	Loan         core.Loan
	FineAssessed core.Money
}

// MarkLost writes the copy off. The item loses one copy for good and nobody is offered anything.
func (c *Coordinator) MarkLost(ctx context.Context, loanID core.LoanIDString) (LostResult, error) {
	itemID, err := c.itemOfLoan(ctx, loanID)
	if err != nil {
		return LostResult{}, err
	}

	decision, err := c.runOnItem(ctx, operationMarkLost, itemID, func(state core.ItemState, at time.Time) core.DecisionResult {
		return core.DecideMarkLost(state, core.MarkLostCommand{LoanID: loanID, At: at}, c.policy)
	})
	if err != nil {
		return LostResult{}, err
	}

	loan, _ := decision.State.Loans.Get(loanID)

	return LostResult{Loan: loan, FineAssessed: loan.FineAmount}, nil
}
