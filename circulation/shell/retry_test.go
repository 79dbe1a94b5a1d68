package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
	"github.com/AntonStoeckl/circulation-engine-go/testutil/observability/testdoubles"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount == 1 {
			return eventstore.ErrConcurrencyConflict // the item stream moved
		}
		if callCount == 2 {
			return core.ErrConcurrencyConflict // the item lock was taken
		}
		return nil
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_BusinessErrorFailsFast(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return core.ErrDuplicateActiveLoan
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.ErrorIs(t, err, core.ErrDuplicateActiveLoan)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "business_rule", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_ExhaustedSurfacesConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	metrics := testdoubles.NewMetricsCollectorSpy()

	fn := func(_ context.Context) error {
		return eventstore.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn,
		WithMaxAttempts(3),
		WithBaseDelay(time.Millisecond),
		WithJitterFactor(0),
		WithMetrics(metrics, "borrow_item"),
	)

	assert.ErrorIs(t, err, core.ErrConcurrencyConflict)
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)

	assert.Equal(t, 2, metrics.CountCounter(RetriesMetric, map[string]string{LabelOperation: "borrow_item"}))
	assert.Equal(t, 1, metrics.CountCounter(MaxRetriesReachedMetric, map[string]string{
		LabelOperation:      "borrow_item",
		LabelFinalErrorType: "concurrency_conflict",
	}))
	assert.True(t, metrics.HasDurationRecord(RetryDelayMetric, map[string]string{LabelAttemptNumber: "2"}))
}

func Test_RetryWithExponentialBackoff_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		cancel()
		return eventstore.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	_, err := RetryWithExponentialBackoff(ctx, fn, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, ErrNegativeBaseDelay)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithJitterFactor(1.5))
	assert.ErrorIs(t, err, ErrInvalidJitterFactor)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithMetrics(nil, "borrow_item"))
	assert.ErrorIs(t, err, ErrNilMetricsCollector)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithMetrics(testdoubles.NewMetricsCollectorSpy(), ""))
	assert.ErrorIs(t, err, ErrEmptyOperation)
}

func Test_StatusFromError(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusFromError(nil))
	assert.Equal(t, StatusRejected, StatusFromError(core.ErrNoCopiesAvailable))
	assert.Equal(t, StatusRejected, StatusFromError(errors.Join(errors.New("wrapped"), core.ErrLoanNotFound)))
	assert.Equal(t, StatusConcurrencyConflict, StatusFromError(core.ErrConcurrencyConflict))
	assert.Equal(t, StatusCanceled, StatusFromError(context.Canceled))
	assert.Equal(t, StatusTimeout, StatusFromError(context.DeadlineExceeded))
	assert.Equal(t, StatusError, StatusFromError(core.ErrInconsistentHistory))
}

func Test_HandlerResult_Status(t *testing.T) {
	retried := RetryMetrics{Attempts: 2, TotalDelay: time.Millisecond, LastErrorType: errorTypeNone}

	success := NewSuccessResult(retried, 3)
	idempotent := NewIdempotentResult(retried)
	failed := NewErrorResult(RetryMetrics{Attempts: 1, LastErrorType: errorTypeBusinessRule})

	assert.Equal(t, StatusSuccess, success.Status(nil))
	assert.Equal(t, 3, success.EventCount)
	assert.Equal(t, 2, success.RetryAttempts)
	assert.Equal(t, StatusIdempotent, idempotent.Status(nil))
	assert.Equal(t, StatusRejected, failed.Status(core.ErrInvalidAmount))
}

func Test_RecordOperationMetrics_CountsConflictsAndIdempotency(t *testing.T) {
	ctx := context.Background()
	metrics := testdoubles.NewMetricsCollectorSpy()

	RecordOperationMetrics(ctx, metrics, "return_item", StatusIdempotent, time.Millisecond)
	RecordOperationMetrics(ctx, metrics, "borrow_item", StatusConcurrencyConflict, time.Millisecond)
	RecordOperationMetrics(ctx, nil, "borrow_item", StatusSuccess, time.Millisecond)

	assert.Equal(t, 2, metrics.CountCounter(OperationCallsMetric, nil))
	assert.Equal(t, 1, metrics.CountCounter(IdempotentOperationsMetric, map[string]string{LabelOperation: "return_item"}))
	assert.Equal(t, 1, metrics.CountCounter(ConcurrencyConflictsMetric, map[string]string{LabelOperation: "borrow_item"}))
	assert.True(t, metrics.HasDurationRecord(OperationDurationMetric, map[string]string{LabelStatus: StatusIdempotent}))
}
