package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

const itemID = "item-1"

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func givenItem(total int) core.DomainEvent {
	return core.BuildItemCopyCountChanged(itemID, 0, total, t0)
}

func givenLoan(loanID, userID string, at time.Time) core.DomainEvent {
	return core.BuildLoanCreated(itemID, loanID, userID, "", at.Add(14*24*time.Hour), at)
}

func givenReservation(reservationID, userID string, position int, at time.Time) core.DomainEvent {
	return core.BuildReservationEnqueued(itemID, reservationID, userID, position, at)
}

func project(t *testing.T, history ...core.DomainEvent) core.ItemState {
	t.Helper()

	state, err := core.ProjectItemState(itemID, history)
	require.NoError(t, err)

	return state
}

func borrowCommand(userID string, n string, at time.Time) core.BorrowCommand {
	return core.BorrowCommand{
		ItemID:        itemID,
		UserID:        userID,
		LoanID:        "loan-" + n,
		ReservationID: "res-" + n,
		At:            at,
	}
}

// decided requires a successful or idempotent decision and returns the state it leads to.
func decided(t *testing.T, result core.DecisionResult) core.ItemState {
	t.Helper()

	require.NoError(t, result.HasError())
	require.NoError(t, result.State.CheckInvariant())

	return result.State
}

func eventTypes(events core.DomainEvents) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.IsEventType())
	}

	return types
}
