package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

// BorrowStatus tells whether a borrow request got a copy or a place in the queue.
type BorrowStatus string

const (
	BorrowStatusBorrowed BorrowStatus = "borrowed"
	BorrowStatusQueued   BorrowStatus = "queued"
)

// BorrowResult carries the loan when borrowed, the reservation when queued.
type BorrowResult struct {
	Status      BorrowStatus
	Loan        *core.Loan
	Reservation *core.Reservation
}

// BorrowItem lends a copy to the user, or queues them when no copy is free for them.
// A user holding an unexpired offer for the item claims the held copy.
func (c *Coordinator) BorrowItem(ctx context.Context, itemID core.ItemIDString, userID core.UserIDString) (BorrowResult, error) {
	if itemID == "" || userID == "" {
		return BorrowResult{}, core.ErrEmptyID
	}

	command := core.BorrowCommand{
		ItemID:        itemID,
		UserID:        userID,
		LoanID:        c.newID(),
		ReservationID: c.newID(),
	}

	decision, err := c.runOnItem(ctx, operationBorrowItem, itemID, func(state core.ItemState, at time.Time) core.DecisionResult {
		command.At = at
		return core.DecideBorrow(state, command, c.policy)
	})
	if err != nil {
		return BorrowResult{}, err
	}

	if loan, ok := decision.State.Loans.Get(command.LoanID); ok {
		return BorrowResult{Status: BorrowStatusBorrowed, Loan: &loan}, nil
	}

	reservation, ok := decision.State.Reservations.Get(command.ReservationID)
	if !ok {
		return BorrowResult{}, core.ErrInconsistentHistory
	}

	return BorrowResult{Status: BorrowStatusQueued, Reservation: &reservation}, nil
}
