package shell

import "time"

// HandlerResult captures the business outcome of one item operation together with its retry metadata,
// without coupling the operation to a specific observability implementation.
type HandlerResult struct {
	// Idempotent indicates that no state change was needed. This is a business outcome, not an error.
	Idempotent bool

	// EventCount is the number of events appended.
	EventCount int

	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in retry backoff delays.
	TotalRetryDelay time.Duration

	// LastErrorType describes the final error encountered during retries, "none" on success.
	LastErrorType string

	// RetriesExhausted is true only when all attempts failed with a retryable error.
	RetriesExhausted bool
}

// NewSuccessResult creates a HandlerResult for operations that appended events.
func NewSuccessResult(retryMetrics RetryMetrics, eventCount int) HandlerResult {
	result := newHandlerResult(retryMetrics)
	result.EventCount = eventCount

	return result
}

// NewIdempotentResult creates a HandlerResult for idempotent operations.
func NewIdempotentResult(retryMetrics RetryMetrics) HandlerResult {
	result := newHandlerResult(retryMetrics)
	result.Idempotent = true

	return result
}

// NewErrorResult creates a HandlerResult for failed operations, still reporting the retry metadata.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics)
}

func newHandlerResult(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}

// Status classifies the result for metrics and spans.
func (r HandlerResult) Status(err error) string {
	if err != nil {
		return StatusFromError(err)
	}

	if r.Idempotent {
		return StatusIdempotent
	}

	return StatusSuccess
}
