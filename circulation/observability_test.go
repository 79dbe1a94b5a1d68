package circulation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
	"github.com/AntonStoeckl/circulation-engine-go/testutil/observability/testdoubles"
)

func Test_Coordinator_RecordsOperationMetricsByStatus(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	f := newFixture(t, circulation.WithMetrics(metrics))
	f.givenItemWithCopies(t, 1)

	// act
	f.borrow(t, "alice")
	_, err := f.coordinator.BorrowItem(context.Background(), itemID, "alice")
	_, idempotentErr := f.coordinator.OnCatalogCopyCountChanged(context.Background(), itemID, 1)

	// assert
	assert.ErrorIs(t, err, core.ErrDuplicateActiveLoan)
	require.NoError(t, idempotentErr)

	assert.Equal(t, 1, metrics.CountCounter(shell.OperationCallsMetric, map[string]string{
		shell.LabelOperation: "borrow_item",
		shell.LabelStatus:    shell.StatusSuccess,
	}))
	assert.Equal(t, 1, metrics.CountCounter(shell.OperationCallsMetric, map[string]string{
		shell.LabelOperation: "borrow_item",
		shell.LabelStatus:    shell.StatusRejected,
	}))
	assert.Equal(t, 1, metrics.CountCounter(shell.IdempotentOperationsMetric, map[string]string{
		shell.LabelOperation: "change_copy_count",
	}))
	assert.True(t, metrics.HasDurationRecord(shell.OperationDurationMetric, map[string]string{shell.LabelOperation: "borrow_item"}))
}

func Test_Coordinator_TracesAndLogsOperations(t *testing.T) {
	// arrange
	tracing := testdoubles.NewTracingCollectorSpy()
	logger := testdoubles.NewContextualLoggerSpy()
	f := newFixture(t, circulation.WithTracing(tracing), circulation.WithContextualLogger(logger))
	f.givenItemWithCopies(t, 1)

	// act
	f.borrow(t, "alice")
	_, err := f.coordinator.BorrowItem(context.Background(), "item-unknown", "bob")

	// assert
	require.ErrorIs(t, err, core.ErrItemNotFound)

	spans := tracing.SpansNamed(shell.SpanNameOperation)
	require.Len(t, spans, 3)
	assert.Equal(t, "change_copy_count", spans[0].StartAttributes[shell.LogAttrOperation])
	assert.Equal(t, shell.StatusSuccess, spans[1].Status)
	assert.Equal(t, "1", spans[1].EndAttributes[shell.LogAttrEventCount])
	assert.Equal(t, shell.StatusRejected, spans[2].Status)

	assert.True(t, logger.HasLog("info", shell.LogMsgOperationCompleted))
	assert.True(t, logger.HasLog("info", shell.LogMsgOperationRejected))
	assert.False(t, logger.HasLog("error", shell.LogMsgOperationFailed))
}

func Test_Coordinator_NotifierFailureIsLoggedAndDoesNotRollBack(t *testing.T) {
	// arrange
	ctx := context.Background()
	logger := testdoubles.NewContextualLoggerSpy()
	metrics := testdoubles.NewMetricsCollectorSpy()
	f := newFixture(t, circulation.WithContextualLogger(logger), circulation.WithMetrics(metrics))
	f.notifier.err = errors.New("smtp unavailable")
	f.givenItemWithCopies(t, 1)
	loan := f.borrow(t, "alice").Loan
	f.borrow(t, "bob")

	// act
	_, err := f.coordinator.ReturnItem(ctx, loan.LoanID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.ReservationStatusOffered, f.item(t).Reservations[0].Status)

	warnings := logger.Records("warn")
	require.Len(t, warnings, 1)
	assert.Equal(t, shell.LogMsgNotifyFailed, warnings[0].Message)
	user, _ := warnings[0].Attr(shell.LogAttrUserID)
	assert.Equal(t, "bob", user)

	assert.Equal(t, 1, metrics.CountCounter(shell.NotificationFailuresMetric, nil))
	assert.Equal(t, 1, metrics.CountCounter(shell.OffersMetric, map[string]string{shell.LabelOperation: "return_item"}))
}

func Test_Coordinator_AsynchronousNotificationsAreDeliveredByClose(t *testing.T) {
	// arrange
	store := newFixture(t).store
	notifier := &notifierSpy{}
	coordinator, err := circulation.NewCoordinator(store, circulation.WithNotifier(notifier))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = coordinator.OnCatalogCopyCountChanged(ctx, itemID, 1)
	require.NoError(t, err)
	borrowed, err := coordinator.BorrowItem(ctx, itemID, "alice")
	require.NoError(t, err)
	_, err = coordinator.BorrowItem(ctx, itemID, "bob")
	require.NoError(t, err)

	// act
	_, err = coordinator.ReturnItem(ctx, borrowed.Loan.LoanID)
	coordinator.Close()

	// assert
	require.NoError(t, err)
	require.Len(t, notifier.received(), 1)
	assert.Equal(t, "bob", notifier.received()[0].UserID)
}

func Test_Coordinator_RunSweeps_TicksOnEveryInterval(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.givenItemWithCopies(t, 1)
	f.borrow(t, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// act
	go func() { done <- f.coordinator.RunSweeps(ctx, time.Hour) }()

	require.Eventually(t, func() bool { return f.clock.Pending() == 1 }, time.Second, time.Millisecond)
	f.clock.Advance(15 * 24 * time.Hour)

	// assert
	require.Eventually(t, func() bool {
		snapshot, err := f.coordinator.Item(context.Background(), itemID)
		return err == nil && snapshot.Loans[0].Status == core.LoanStatusOverdue
	}, time.Second, time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func Test_Coordinator_RunSweeps_RejectsNonPositiveInterval(t *testing.T) {
	f := newFixture(t)

	err := f.coordinator.RunSweeps(context.Background(), 0)

	assert.ErrorIs(t, err, circulation.ErrInvalidSweepInterval)
}
