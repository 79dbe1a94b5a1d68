package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

func Test_DecideReturn_OnTimeReleasesCopy(t *testing.T) {
	// arrange
	state := project(t, givenItem(1), givenLoan("loan-a", "user-a", t0))

	// act
	result := core.DecideReturn(state, core.ReturnCommand{LoanID: "loan-a", At: t0.Add(24 * time.Hour)}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	assert.Equal(t, []string{core.LoanReturnedEventType}, eventTypes(result.Events))
	assert.Equal(t, 1, after.Availability.Available())

	loan, _ := after.Loans.Get("loan-a")
	assert.Equal(t, core.LoanStatusReturned, loan.Status)
	assert.Equal(t, t0.Add(24*time.Hour), loan.ReturnedAt)
	assert.Equal(t, core.Money(0), loan.FineAmount)
}

func Test_DecideReturn_FiveDaysLateIsFined(t *testing.T) {
	// arrange
	state := project(t, givenItem(1), givenLoan("loan-a", "user-a", t0))
	returnedAt := t0.Add(14*24*time.Hour + 5*24*time.Hour + 2*time.Hour)

	// act
	result := core.DecideReturn(state, core.ReturnCommand{LoanID: "loan-a", At: returnedAt}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	loan, _ := after.Loans.Get("loan-a")
	assert.Equal(t, core.Money(50), loan.FineAmount)
	assert.Equal(t, 5, loan.OverdueDays)
	assert.False(t, loan.FinePaid)
	assert.True(t, loan.HasOutstandingFine())
}

func Test_DecideReturn_OffersCopyToHeadOfQueue(t *testing.T) {
	// arrange
	state := project(t,
		givenItem(1),
		givenLoan("loan-a", "user-a", t0),
		givenReservation("res-b", "user-b", 1, t0.Add(time.Hour)),
		givenReservation("res-c", "user-c", 2, t0.Add(2*time.Hour)),
	)
	returnedAt := t0.Add(3 * time.Hour)

	// act
	result := core.DecideReturn(state, core.ReturnCommand{LoanID: "loan-a", At: returnedAt}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	assert.Equal(t, []string{core.LoanReturnedEventType, core.ReservationOfferedEventType}, eventTypes(result.Events))
	assert.Equal(t, 0, after.Availability.Available())

	offer, ok := after.Reservations.Offered()
	require.True(t, ok)
	assert.Equal(t, "res-b", offer.ReservationID)
	assert.Equal(t, returnedAt.Add(48*time.Hour), offer.ExpiresAt)
	assert.Equal(t, returnedAt, offer.NotifiedAt)
}

func Test_DecideReturn_OverdueLoanCanBeReturned(t *testing.T) {
	// arrange
	state := project(t,
		givenItem(1),
		givenLoan("loan-a", "user-a", t0),
		core.BuildLoanMarkedOverdue(itemID, "loan-a", "user-a", t0.Add(14*24*time.Hour), t0.Add(15*24*time.Hour)),
	)

	// act
	result := core.DecideReturn(state, core.ReturnCommand{LoanID: "loan-a", At: t0.Add(16 * 24 * time.Hour)}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	loan, _ := after.Loans.Get("loan-a")
	assert.Equal(t, core.LoanStatusReturned, loan.Status)
	assert.Equal(t, core.Money(20), loan.FineAmount)
}

func Test_DecideReturn_Errors(t *testing.T) {
	// arrange
	state := project(t,
		givenItem(1),
		givenLoan("loan-a", "user-a", t0),
		core.BuildLoanReturned(itemID, "loan-a", "user-a", 0, 0, t0.Add(time.Hour)),
	)

	// act
	twice := core.DecideReturn(state, core.ReturnCommand{LoanID: "loan-a", At: t0.Add(2 * time.Hour)}, core.DefaultPolicy())
	unknown := core.DecideReturn(state, core.ReturnCommand{LoanID: "loan-x", At: t0.Add(2 * time.Hour)}, core.DefaultPolicy())

	// assert
	assert.ErrorIs(t, twice.HasError(), core.ErrInvalidStateTransition)
	assert.ErrorIs(t, unknown.HasError(), core.ErrLoanNotFound)
}

func Test_DecideBorrowThenReturn_RestoresAvailability(t *testing.T) {
	// arrange
	state := project(t, givenItem(3))
	before := state.Availability.Available()
	policy := core.DefaultPolicy()

	// act
	borrowed := decided(t, core.DecideBorrow(state, borrowCommand("user-a", "a", t0), policy))
	returned := decided(t, core.DecideReturn(borrowed, core.ReturnCommand{LoanID: "loan-a", At: t0.Add(time.Hour)}, policy))

	// assert
	assert.Equal(t, before-1, borrowed.Availability.Available())
	assert.Equal(t, before, returned.Availability.Available())
}
