package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

func Test_Coordinator_BorrowSoleCopy_ThenSecondUserIsQueued(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)

	// act
	first := f.borrow(t, "alice")
	second := f.borrow(t, "bob")

	// assert
	assert.Equal(t, circulation.BorrowStatusBorrowed, first.Status)
	require.NotNil(t, first.Loan)
	assert.Equal(t, core.LoanStatusBorrowed, first.Loan.Status)
	assert.Equal(t, t0.Add(14*24*time.Hour), first.Loan.DueDate)

	assert.Equal(t, circulation.BorrowStatusQueued, second.Status)
	require.NotNil(t, second.Reservation)
	assert.Nil(t, second.Loan)
	assert.Equal(t, 1, second.Reservation.QueuePosition)
	assert.Equal(t, core.ReservationStatusActive, second.Reservation.Status)

	snapshot := f.item(t)
	assert.Equal(t, 0, snapshot.AvailableCopies)
	assertCopiesAccountedFor(t, snapshot)
}

func Test_Coordinator_ReturnOffersCopy_ThenQueuedUserClaimsIt(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	queued := f.borrow(t, "bob").Reservation
	f.clock.Advance(3 * 24 * time.Hour)
	returnedAt := f.clock.Now()

	// act
	_, returnErr := f.coordinator.ReturnItem(ctx, loan.LoanID)
	afterReturn := f.item(t)
	claimed, borrowErr := f.coordinator.BorrowItem(ctx, itemID, "bob")

	// assert
	require.NoError(t, returnErr)
	require.NoError(t, borrowErr)

	offered := afterReturn.Reservations[0]
	assert.Equal(t, core.ReservationStatusOffered, offered.Status)
	assert.Equal(t, returnedAt.Add(48*time.Hour), offered.ExpiresAt)
	assert.Equal(t, 0, afterReturn.AvailableCopies)
	assertCopiesAccountedFor(t, afterReturn)

	notifications := f.notifier.received()
	require.Len(t, notifications, 1)
	assert.Equal(t, circulation.OfferNotification{
		UserID:        "bob",
		ItemID:        itemID,
		ReservationID: queued.ReservationID,
		ExpiresAt:     returnedAt.Add(48 * time.Hour),
	}, notifications[0])

	assert.Equal(t, circulation.BorrowStatusBorrowed, claimed.Status)
	assert.Equal(t, queued.ReservationID, claimed.Loan.ReservationID)

	afterClaim := f.item(t)
	assert.Equal(t, core.ReservationStatusFulfilled, afterClaim.Reservations[0].Status)
	assert.Equal(t, claimed.Loan.LoanID, afterClaim.Reservations[0].FulfilledLoanID)
	assert.Equal(t, 0, afterClaim.AvailableCopies, "the held copy is transferred, not counted twice")
	assertCopiesAccountedFor(t, afterClaim)
}

func Test_Coordinator_TickExpiresUnclaimedOffer_AndReleasesCopy(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	f.borrow(t, "bob")
	_, err := f.coordinator.ReturnItem(ctx, loan.LoanID)
	require.NoError(t, err)
	f.clock.Advance(48*time.Hour + time.Second)

	// act
	result, tickErr := f.coordinator.Tick(ctx)

	// assert
	require.NoError(t, tickErr)
	assert.Equal(t, 1, result.ExpiredReservations)
	assert.Equal(t, 0, result.OverdueTransitioned)

	snapshot := f.item(t)
	assert.Equal(t, core.ReservationStatusExpired, snapshot.Reservations[0].Status)
	assert.Equal(t, 1, snapshot.AvailableCopies)
	assertCopiesAccountedFor(t, snapshot)
}

func Test_Coordinator_TickCascadesExpiredOfferToNextWaiter(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	f.borrow(t, "bob")
	carol := f.borrow(t, "carol").Reservation
	_, err := f.coordinator.ReturnItem(ctx, loan.LoanID)
	require.NoError(t, err)
	f.clock.Advance(49 * time.Hour)

	// act
	result, tickErr := f.coordinator.Tick(ctx)

	// assert
	require.NoError(t, tickErr)
	assert.Equal(t, 1, result.ExpiredReservations)

	snapshot := f.item(t)
	assert.Equal(t, core.ReservationStatusOffered, snapshot.Reservations[1].Status)
	assert.Equal(t, carol.ReservationID, snapshot.Reservations[1].ReservationID)
	assert.Equal(t, 0, snapshot.AvailableCopies)
	assertCopiesAccountedFor(t, snapshot)
	assert.Len(t, f.notifier.received(), 2)
}

func Test_Coordinator_LateReturnIsFined(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	f.clock.Advance((14 + 5) * 24 * time.Hour)

	// act
	result, err := f.coordinator.ReturnItem(context.Background(), loan.LoanID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.Money(50), result.FineAssessed)
	assert.Equal(t, 5, result.Loan.OverdueDays)
	assert.False(t, result.Loan.FinePaid)
	assert.Equal(t, core.LoanStatusReturned, result.Loan.Status)
}

func Test_Coordinator_PayFineInInstalments(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	f.clock.Advance((14 + 5) * 24 * time.Hour)
	_, err := f.coordinator.ReturnItem(ctx, loan.LoanID)
	require.NoError(t, err)

	// act
	partial, partialErr := f.coordinator.PayFine(ctx, loan.LoanID, 20)
	full, fullErr := f.coordinator.PayFine(ctx, loan.LoanID, 30)
	_, againErr := f.coordinator.PayFine(ctx, loan.LoanID, 10)

	// assert
	require.NoError(t, partialErr)
	require.NoError(t, fullErr)
	assert.False(t, partial.FullyPaid)
	assert.Equal(t, core.Money(20), partial.Loan.FinePaidAmount)
	assert.True(t, full.FullyPaid)
	assert.Equal(t, core.Money(50), full.Loan.FinePaidAmount)
	assert.ErrorIs(t, againErr, core.ErrInvalidStateTransition)
}

func Test_Coordinator_MarkLostSoleCopy_ThenBorrowIsQueued(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan

	// act
	lost, err := f.coordinator.MarkLost(ctx, loan.LoanID)
	after := f.item(t)
	queued := f.borrow(t, "bob")

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.LoanStatusLost, lost.Loan.Status)
	assert.Equal(t, core.Money(2500), lost.FineAssessed)
	assert.Equal(t, 0, after.TotalCopies)
	assert.Equal(t, 0, after.AvailableCopies)
	assertCopiesAccountedFor(t, after)
	assert.Equal(t, circulation.BorrowStatusQueued, queued.Status)
}

func Test_Coordinator_MarkLostSoleCopy_ThenBorrowFailsWhenPolicyForbidsQueueing(t *testing.T) {
	// arrange
	ctx := context.Background()
	policy := core.DefaultPolicy()
	policy.AllowQueueOnZeroCapacity = false
	f := newFixture(t, circulation.WithPolicy(policy))
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	_, err := f.coordinator.MarkLost(ctx, loan.LoanID)
	require.NoError(t, err)

	// act
	_, borrowErr := f.coordinator.BorrowItem(ctx, itemID, "bob")

	// assert
	assert.ErrorIs(t, borrowErr, core.ErrNoCopiesAvailable)
}

func Test_Coordinator_BorrowThenReturn_RestoresAvailability(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.givenItemWithCopies(t, 3)
	before := f.item(t)
	loan := f.borrow(t, "alice").Loan

	// act
	_, err := f.coordinator.ReturnItem(context.Background(), loan.LoanID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, before.AvailableCopies, f.item(t).AvailableCopies)
}

func Test_Coordinator_TickIsIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 2)
	f.borrow(t, "alice")
	f.borrow(t, "bob")
	f.clock.Advance(15 * 24 * time.Hour)

	// act
	first, firstErr := f.coordinator.Tick(ctx)
	eventsAfterFirst := f.store.Len()
	second, secondErr := f.coordinator.Tick(ctx)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, 2, first.OverdueTransitioned)
	assert.Equal(t, circulation.TickResult{}, second)
	assert.Equal(t, eventsAfterFirst, f.store.Len())

	for _, loan := range f.item(t).Loans {
		assert.Equal(t, core.LoanStatusOverdue, loan.Status)
	}
}

func Test_Coordinator_OverdueLoanCanStillBeReturned(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	f.clock.Advance(16 * 24 * time.Hour)
	_, err := f.coordinator.Tick(ctx)
	require.NoError(t, err)

	// act
	result, returnErr := f.coordinator.ReturnItem(ctx, loan.LoanID)

	// assert
	require.NoError(t, returnErr)
	assert.Equal(t, core.Money(20), result.FineAssessed)
	assert.Equal(t, 1, f.item(t).AvailableCopies)
}

func Test_Coordinator_CancelOfferedReservation_PassesCopyOn(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	bob := f.borrow(t, "bob").Reservation
	carol := f.borrow(t, "carol").Reservation
	_, err := f.coordinator.ReturnItem(ctx, loan.LoanID)
	require.NoError(t, err)

	// act
	cancelled, cancelErr := f.coordinator.CancelReservation(ctx, bob.ReservationID, "bob")

	// assert
	require.NoError(t, cancelErr)
	assert.Equal(t, core.ReservationStatusCancelled, cancelled.Reservation.Status)

	snapshot := f.item(t)
	assert.Equal(t, carol.ReservationID, snapshot.Reservations[1].ReservationID)
	assert.Equal(t, core.ReservationStatusOffered, snapshot.Reservations[1].Status)
	assertCopiesAccountedFor(t, snapshot)
}

func Test_Coordinator_CopyCountIncreaseOffersToWaiter(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	f.borrow(t, "alice")
	f.borrow(t, "bob")

	// act
	snapshot, err := f.coordinator.OnCatalogCopyCountChanged(ctx, itemID, 2)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.TotalCopies)
	assert.Equal(t, 1, snapshot.OfferedCopies)
	assert.Equal(t, 0, snapshot.AvailableCopies)
	assertCopiesAccountedFor(t, snapshot)
	assert.Len(t, f.notifier.received(), 1)
}

func Test_Coordinator_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	bob := f.borrow(t, "bob").Reservation

	testCases := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{
			name:    "borrow unknown item",
			call:    func() error { _, err := f.coordinator.BorrowItem(ctx, "item-unknown", "alice"); return err },
			wantErr: core.ErrItemNotFound,
		},
		{
			name:    "borrow with empty user",
			call:    func() error { _, err := f.coordinator.BorrowItem(ctx, itemID, ""); return err },
			wantErr: core.ErrEmptyID,
		},
		{
			name:    "borrow twice",
			call:    func() error { _, err := f.coordinator.BorrowItem(ctx, itemID, "alice"); return err },
			wantErr: core.ErrDuplicateActiveLoan,
		},
		{
			name:    "queue twice",
			call:    func() error { _, err := f.coordinator.BorrowItem(ctx, itemID, "bob"); return err },
			wantErr: core.ErrDuplicateActiveReservation,
		},
		{
			name:    "return unknown loan",
			call:    func() error { _, err := f.coordinator.ReturnItem(ctx, "loan-unknown"); return err },
			wantErr: core.ErrNotFound,
		},
		{
			name:    "cancel someone else's reservation",
			call:    func() error { _, err := f.coordinator.CancelReservation(ctx, bob.ReservationID, "alice"); return err },
			wantErr: core.ErrNotReservationOwner,
		},
		{
			name:    "cancel unknown reservation",
			call:    func() error { _, err := f.coordinator.CancelReservation(ctx, "res-unknown", "bob"); return err },
			wantErr: core.ErrReservationNotFound,
		},
		{
			name:    "pay a fine that was never assessed",
			call:    func() error { _, err := f.coordinator.PayFine(ctx, loan.LoanID, 10); return err },
			wantErr: core.ErrInvalidStateTransition,
		},
		{
			name:    "pay a negative amount",
			call:    func() error { _, err := f.coordinator.PayFine(ctx, loan.LoanID, -10); return err },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "shrink below copies on loan",
			call:    func() error { _, err := f.coordinator.OnCatalogCopyCountChanged(ctx, itemID, 0); return err },
			wantErr: core.ErrInvalidCopyCount,
		},
		{
			name:    "inspect unknown item",
			call:    func() error { _, err := f.coordinator.Item(ctx, "item-unknown"); return err },
			wantErr: core.ErrItemNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			eventsBefore := f.store.Len()

			// act
			err := tc.call()

			// assert
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, eventsBefore, f.store.Len(), "a rejected operation appends nothing")
		})
	}
}

func Test_Coordinator_ElapsedOfferIsExpiredBeforeBorrow(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	f.borrow(t, "bob")
	_, err := f.coordinator.ReturnItem(ctx, loan.LoanID)
	require.NoError(t, err)
	f.clock.Advance(72 * time.Hour)

	// act
	latecomer := f.borrow(t, "bob")

	// assert
	assert.Equal(t, circulation.BorrowStatusBorrowed, latecomer.Status, "the expired offer freed the copy and nobody else waits")
	snapshot := f.item(t)
	assert.Equal(t, core.ReservationStatusExpired, snapshot.Reservations[0].Status)
	assertCopiesAccountedFor(t, snapshot)
}

func Test_Coordinator_Close_RejectsNewOperations(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)

	// act
	f.coordinator.Close()
	_, err := f.coordinator.BorrowItem(context.Background(), itemID, "alice")

	// assert
	assert.ErrorIs(t, err, circulation.ErrClosed)
}

func Test_NewCoordinator_RejectsInvalidConfiguration(t *testing.T) {
	store := newFixture(t).store

	_, err := circulation.NewCoordinator(nil)
	assert.ErrorIs(t, err, circulation.ErrNilEventStore)

	_, err = circulation.NewCoordinator(store, circulation.WithPolicy(core.Policy{}))
	assert.ErrorIs(t, err, core.ErrInvalidPolicy)

	_, err = circulation.NewCoordinator(store, circulation.WithClock(nil))
	assert.ErrorIs(t, err, circulation.ErrNilClock)

	_, err = circulation.NewCoordinator(store, circulation.WithNotifyTimeout(0))
	assert.ErrorIs(t, err, circulation.ErrInvalidNotifyTimeout)

	_, err = circulation.NewCoordinator(store, circulation.WithNotifier(nil))
	assert.ErrorIs(t, err, circulation.ErrNilNotifier)

	_, err = circulation.NewCoordinator(store, circulation.WithIDGenerator(nil))
	assert.ErrorIs(t, err, circulation.ErrNilIDGenerator)
}
