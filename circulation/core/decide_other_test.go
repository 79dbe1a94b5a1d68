package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

func Test_DecideMarkLost_SoleCopy(t *testing.T) {
	// arrange
	state := project(t, givenItem(1), givenLoan("loan-a", "user-a", t0))

	// act
	result := core.DecideMarkLost(state, core.MarkLostCommand{LoanID: "loan-a", At: t0.Add(time.Hour)}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	assert.Equal(t, 0, after.Availability.Total())
	assert.Equal(t, 0, after.Availability.Available())

	loan, _ := after.Loans.Get("loan-a")
	assert.Equal(t, core.LoanStatusLost, loan.Status)
	assert.Equal(t, core.Money(2500), loan.FineAmount)
}

func Test_DecideMarkLost_NeverOffersToQueue(t *testing.T) {
	// arrange
	state := project(t,
		givenItem(1),
		givenLoan("loan-a", "user-a", t0),
		givenReservation("res-b", "user-b", 1, t0),
	)

	// act
	result := core.DecideMarkLost(state, core.MarkLostCommand{LoanID: "loan-a", At: t0.Add(time.Hour)}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	assert.Equal(t, []string{core.LoanMarkedLostEventType}, eventTypes(result.Events))
	assert.Equal(t, 0, after.Reservations.OfferedCount())
}

func Test_DecidePayFine_PartialThenFull(t *testing.T) {
	// arrange
	policy := core.DefaultPolicy()
	state := project(t,
		givenItem(1),
		givenLoan("loan-a", "user-a", t0),
		core.BuildLoanReturned(itemID, "loan-a", "user-a", 5, 50, t0.Add(19*24*time.Hour)),
	)

	// act
	partial := core.DecidePayFine(state, core.PayFineCommand{LoanID: "loan-a", Amount: 20, At: t0.Add(20 * 24 * time.Hour)}, policy)
	afterPartial := decided(t, partial)
	full := core.DecidePayFine(afterPartial, core.PayFineCommand{LoanID: "loan-a", Amount: 30, At: t0.Add(21 * 24 * time.Hour)}, policy)
	afterFull := decided(t, full)

	// assert
	loan, _ := afterPartial.Loans.Get("loan-a")
	assert.False(t, loan.FinePaid)
	assert.Equal(t, core.Money(20), loan.FinePaidAmount)

	loan, _ = afterFull.Loans.Get("loan-a")
	assert.True(t, loan.FinePaid)
	assert.Equal(t, core.Money(50), loan.FinePaidAmount)
}

func Test_DecidePayFine_Errors(t *testing.T) {
	// arrange
	state := project(t,
		givenItem(2),
		givenLoan("loan-a", "user-a", t0),
		core.BuildLoanReturned(itemID, "loan-a", "user-a", 0, 0, t0.Add(time.Hour)),
		givenLoan("loan-b", "user-b", t0),
		core.BuildLoanReturned(itemID, "loan-b", "user-b", 5, 50, t0.Add(19*24*time.Hour)),
		core.BuildFinePaymentRecorded(itemID, "loan-b", "user-b", 50, 50, true, t0.Add(20*24*time.Hour)),
	)
	policy := core.DefaultPolicy()
	at := t0.Add(30 * 24 * time.Hour)

	// act
	noFine := core.DecidePayFine(state, core.PayFineCommand{LoanID: "loan-a", Amount: 10, At: at}, policy)
	alreadyPaid := core.DecidePayFine(state, core.PayFineCommand{LoanID: "loan-b", Amount: 10, At: at}, policy)
	zero := core.DecidePayFine(state, core.PayFineCommand{LoanID: "loan-b", Amount: 0, At: at}, policy)
	unknown := core.DecidePayFine(state, core.PayFineCommand{LoanID: "loan-x", Amount: 10, At: at}, policy)

	// assert
	assert.ErrorIs(t, noFine.HasError(), core.ErrInvalidStateTransition)
	assert.ErrorIs(t, alreadyPaid.HasError(), core.ErrInvalidStateTransition)
	assert.ErrorIs(t, zero.HasError(), core.ErrInvalidAmount)
	assert.ErrorIs(t, unknown.HasError(), core.ErrLoanNotFound)
}

func Test_DecideCancelReservation_OfferedCascadesToNext(t *testing.T) {
	// arrange
	state := project(t,
		givenItem(1),
		givenReservation("res-b", "user-b", 1, t0),
		givenReservation("res-c", "user-c", 2, t0),
		core.BuildReservationOffered(itemID, "res-b", "user-b", t0.Add(48*time.Hour), t0),
	)

	// act
	result := core.DecideCancelReservation(state, core.CancelReservationCommand{
		ReservationID: "res-b",
		UserID:        "user-b",
		At:            t0.Add(time.Hour),
	}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	assert.Equal(t, []string{core.ReservationCancelledEventType, core.ReservationOfferedEventType}, eventTypes(result.Events))

	offer, ok := after.Reservations.Offered()
	require.True(t, ok)
	assert.Equal(t, "user-c", offer.UserID)
}

func Test_DecideCancelReservation_ActiveDoesNotTouchCopies(t *testing.T) {
	// arrange
	state := project(t, givenItem(1), givenLoan("loan-a", "user-a", t0), givenReservation("res-b", "user-b", 1, t0))

	// act
	result := core.DecideCancelReservation(state, core.CancelReservationCommand{
		ReservationID: "res-b",
		UserID:        "user-b",
		At:            t0.Add(time.Hour),
	}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	reservation, _ := after.Reservations.Get("res-b")
	assert.Equal(t, core.ReservationStatusCancelled, reservation.Status)
	assert.Equal(t, t0.Add(time.Hour), reservation.ResolvedAt)
	assert.Equal(t, 0, after.Availability.Available())
}

func Test_DecideCancelReservation_Errors(t *testing.T) {
	// arrange
	state := project(t,
		givenItem(0),
		givenReservation("res-b", "user-b", 1, t0),
		givenReservation("res-c", "user-c", 2, t0),
		core.BuildReservationCancelled(itemID, "res-c", "user-c", false, t0.Add(time.Hour)),
	)
	policy := core.DefaultPolicy()
	at := t0.Add(2 * time.Hour)

	// act
	notOwner := core.DecideCancelReservation(state, core.CancelReservationCommand{ReservationID: "res-b", UserID: "user-x", At: at}, policy)
	twice := core.DecideCancelReservation(state, core.CancelReservationCommand{ReservationID: "res-c", UserID: "user-c", At: at}, policy)
	unknown := core.DecideCancelReservation(state, core.CancelReservationCommand{ReservationID: "res-x", UserID: "user-b", At: at}, policy)

	// assert
	assert.ErrorIs(t, notOwner.HasError(), core.ErrNotReservationOwner)
	assert.ErrorIs(t, twice.HasError(), core.ErrInvalidStateTransition)
	assert.ErrorIs(t, unknown.HasError(), core.ErrReservationNotFound)
}

func Test_DecideCopyCountChange_RegistersUnknownItem(t *testing.T) {
	// arrange
	state := project(t)

	// act
	result := core.DecideCopyCountChange(state, core.ChangeCopyCountCommand{ItemID: itemID, NewTotal: 2, At: t0}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	assert.True(t, after.Known)
	assert.Equal(t, 2, after.Availability.Available())
}

func Test_DecideCopyCountChange_AcquisitionOffersToWaiter(t *testing.T) {
	// arrange
	state := project(t, givenItem(0), givenReservation("res-a", "user-a", 1, t0))

	// act
	result := core.DecideCopyCountChange(state, core.ChangeCopyCountCommand{ItemID: itemID, NewTotal: 1, At: t0.Add(time.Hour)}, core.DefaultPolicy())

	// assert
	after := decided(t, result)
	assert.Equal(t, []string{core.ItemCopyCountChangedEventType, core.ReservationOfferedEventType}, eventTypes(result.Events))
	assert.Equal(t, 0, after.Availability.Available())

	changed, ok := result.Events[0].(core.ItemCopyCountChanged)
	require.True(t, ok)
	assert.Equal(t, 0, changed.PreviousTotal)
}

func Test_DecideCopyCountChange_SameTotalIsIdempotent(t *testing.T) {
	// arrange
	state := project(t, givenItem(2))

	// act
	result := core.DecideCopyCountChange(state, core.ChangeCopyCountCommand{ItemID: itemID, NewTotal: 2, At: t0}, core.DefaultPolicy())

	// assert
	assert.True(t, result.IsIdempotent())
	assert.False(t, result.HasEventsToAppend())
	assert.NoError(t, result.HasError())
}

func Test_DecideCopyCountChange_BelowOutstandingIsRejected(t *testing.T) {
	// arrange
	state := project(t, givenItem(2), givenLoan("loan-a", "user-a", t0), givenLoan("loan-b", "user-b", t0))

	// act
	result := core.DecideCopyCountChange(state, core.ChangeCopyCountCommand{ItemID: itemID, NewTotal: 1, At: t0}, core.DefaultPolicy())

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrInvalidCopyCount)
}
