package shell

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

const (
	// OperationDurationMetric tracks coordinator operation duration.
	OperationDurationMetric = "circulation_operation_duration_seconds"

	// OperationCallsMetric tracks total coordinator operation calls.
	OperationCallsMetric = "circulation_operation_calls_total"

	// IdempotentOperationsMetric tracks operations that changed nothing.
	IdempotentOperationsMetric = "circulation_idempotent_operations_total"

	// ConcurrencyConflictsMetric tracks operations that gave up on a contended item.
	ConcurrencyConflictsMetric = "circulation_concurrency_conflicts_total"

	// RetriesMetric tracks retry attempts.
	//
	// Labels:
	//   - operation: the coordinator operation being retried (e.g., "borrow_item")
	//   - attempt_number: which retry attempt (1, 2, 3, 4, 5)
	//   - error_type: category of the error causing the retry
	RetriesMetric = "circulation_retries_total"

	// RetryDelayMetric tracks the backoff delays between attempts.
	RetryDelayMetric = "circulation_retry_delay_seconds"

	// MaxRetriesReachedMetric tracks when the retry budget is exhausted.
	MaxRetriesReachedMetric = "circulation_max_retries_reached_total"

	// OffersMetric counts offers made to waiting users.
	OffersMetric = "circulation_offers_total"

	// NotificationFailuresMetric counts offer notifications the notifier could not take.
	NotificationFailuresMetric = "circulation_notification_failures_total"

	// TickOverdueMetric counts loans marked overdue by ticks.
	TickOverdueMetric = "circulation_tick_overdue_loans_total"

	// TickExpiredMetric counts offers expired by ticks.
	TickExpiredMetric = "circulation_tick_expired_reservations_total"

	// TickDurationMetric tracks the duration of a whole tick.
	TickDurationMetric = "circulation_tick_duration_seconds"

	StatusSuccess             = "success"
	StatusError               = "error"
	StatusIdempotent          = "idempotent"
	StatusRejected            = "rejected"
	StatusCanceled            = "canceled"
	StatusTimeout             = "timeout"
	StatusConcurrencyConflict = "conflict"

	LogMsgOperationStarted   = "circulation operation started"
	LogMsgOperationCompleted = "circulation operation completed"
	LogMsgOperationRejected  = "circulation operation rejected"
	LogMsgOperationFailed    = "circulation operation failed"
	LogMsgNotifyFailed       = "offer notification failed"
	LogMsgTickCompleted      = "tick completed"
	LogMsgTickItemFailed     = "tick failed for item"
	LogMsgSweeperStarted     = "sweeper started"
	LogMsgSweeperStopped     = "sweeper stopped"

	LogAttrOperation     = "operation"
	LogAttrItemID        = "item_id"
	LogAttrLoanID        = "loan_id"
	LogAttrReservationID = "reservation_id"
	LogAttrUserID        = "user_id"
	LogAttrStatus        = "status"
	LogAttrDurationMS    = "duration_ms"
	LogAttrEventCount    = "event_count"
	LogAttrAttempts      = "attempts"
	LogAttrItemCount     = "item_count"
	LogAttrOverdue       = "overdue_transitioned"
	LogAttrExpired       = "expired_reservations"
	LogAttrInterval      = "interval"
	LogAttrError         = "error"

	LabelOperation      = "operation"
	LabelStatus         = "status"
	LabelAttemptNumber  = "attempt_number"
	LabelErrorType      = "error_type"
	LabelFinalErrorType = "final_error_type"

	// SpanNameOperation is the tracing span name for coordinator operations.
	SpanNameOperation = "circulation.operation"

	// SpanNameTick is the tracing span name for a whole tick.
	SpanNameTick = "circulation.tick"

	errorTypeNone                = "none"
	errorTypeConcurrencyConflict = "concurrency_conflict"
	errorTypeContextCanceled     = "context_canceled"
	errorTypeDeadlineExceeded    = "context_deadline_exceeded"
	errorTypeBusinessRule        = "business_rule"
	errorTypeOther               = "other"
)

// MetricsCollector interface for collecting operation metrics.
type MetricsCollector = eventstore.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = eventstore.ContextualMetricsCollector

// TracingCollector interface for distributed tracing of operations.
type TracingCollector = eventstore.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = eventstore.SpanContext

// ContextualLogger interface for context-aware logging.
type ContextualLogger = eventstore.ContextualLogger

// Logger interface for basic logging.
type Logger = eventstore.Logger

var businessErrors = []error{
	core.ErrNoCopiesAvailable,
	core.ErrDuplicateActiveLoan,
	core.ErrDuplicateActiveReservation,
	core.ErrInvalidStateTransition,
	core.ErrNotFound,
	core.ErrNotReservationOwner,
	core.ErrInvalidAmount,
	core.ErrInvalidCopyCount,
	core.ErrEmptyID,
}

// IsBusinessError reports whether err is a rule violation the caller has to act on, as opposed to a failure.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// ErrorTypeOf extracts a string representation of the error for metrics labeling.
func ErrorTypeOf(err error) string {
	switch {
	case err == nil:
		return errorTypeNone
	case IsRetryableError(err):
		return errorTypeConcurrencyConflict
	case errors.Is(err, context.Canceled):
		return errorTypeContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeDeadlineExceeded
	case IsBusinessError(err):
		return errorTypeBusinessRule
	default:
		return errorTypeOther
	}
}

// StatusFromError maps an operation error to a status label.
func StatusFromError(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case IsRetryableError(err):
		return StatusConcurrencyConflict
	case IsBusinessError(err):
		return StatusRejected
	default:
		return StatusError
	}
}

// BuildOperationLabels creates standard metric labels for coordinator operations.
func BuildOperationLabels(operation, status string) map[string]string {
	return map[string]string{
		LabelOperation: operation,
		LabelStatus:    status,
	}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(operation string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LabelOperation:     operation,
		LabelAttemptNumber: strconv.Itoa(attemptNumber),
		LabelErrorType:     errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RecordOperationMetrics records duration and call count of one operation,
// plus the idempotent and conflict counters when the status asks for them.
func RecordOperationMetrics(
	ctx context.Context,
	collector MetricsCollector,
	operation string,
	status string,
	duration time.Duration,
) {

	if collector == nil {
		return
	}

	labels := BuildOperationLabels(operation, status)

	RecordDuration(ctx, collector, OperationDurationMetric, duration, labels)
	IncrementCounter(ctx, collector, OperationCallsMetric, labels)

	switch status {
	case StatusIdempotent:
		IncrementCounter(ctx, collector, IdempotentOperationsMetric, labels)
	case StatusConcurrencyConflict:
		IncrementCounter(ctx, collector, ConcurrencyConflictsMetric, labels)
	}
}

// RecordDuration uses the context variant when the collector has one.
func RecordDuration(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {

	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

// IncrementCounter uses the context variant when the collector has one.
func IncrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// RecordValue uses the context variant when the collector has one.
func RecordValue(ctx context.Context, collector MetricsCollector, metric string, value float64, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}

// StartOperationSpan starts a tracing span for an operation.
// Returns the original context and nil if tracing is disabled.
func StartOperationSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	spanName string,
	attrs map[string]string,
) (context.Context, SpanContext) {

	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, spanName, attrs)
}

// FinishOperationSpan finishes a span started by StartOperationSpan.
func FinishOperationSpan(tracingCollector TracingCollector, span SpanContext, status string, attrs map[string]string) {
	if tracingCollector == nil || span == nil {
		return
	}

	tracingCollector.FinishSpan(span, status, attrs)
}
