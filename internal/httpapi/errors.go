package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

const conflictRetryAfterSeconds = 1

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	ErrorCode         string `json:"error"`
	Detail            string `json:"detail,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

type httpError struct {
	Status     int
	Code       string
	Detail     string
	RetryAfter int64
}

func (h httpError) Error() string {
	if h.Detail != "" {
		return fmt.Sprintf("%s: %s", h.Code, h.Detail)
	}

	return h.Code
}

func badRequest(code, detail string) httpError {
	return httpError{Status: http.StatusBadRequest, Code: code, Detail: detail}
}

// httpErrorFrom maps coordinator errors to responses. Anything unmapped is an internal error and reported as such.
func httpErrorFrom(err error) (httpError, bool) {
	var httpErr httpError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}

	switch {
	case errors.Is(err, core.ErrItemNotFound):
		return httpError{Status: http.StatusNotFound, Code: "item_not_found", Detail: err.Error()}, true
	case errors.Is(err, core.ErrLoanNotFound):
		return httpError{Status: http.StatusNotFound, Code: "loan_not_found", Detail: err.Error()}, true
	case errors.Is(err, core.ErrReservationNotFound):
		return httpError{Status: http.StatusNotFound, Code: "reservation_not_found", Detail: err.Error()}, true
	case errors.Is(err, core.ErrNotFound):
		return httpError{Status: http.StatusNotFound, Code: "not_found", Detail: err.Error()}, true

	case errors.Is(err, core.ErrDuplicateActiveLoan):
		return httpError{Status: http.StatusConflict, Code: "duplicate_active_loan", Detail: err.Error()}, true
	case errors.Is(err, core.ErrDuplicateActiveReservation):
		return httpError{Status: http.StatusConflict, Code: "duplicate_active_reservation", Detail: err.Error()}, true
	case errors.Is(err, core.ErrInvalidStateTransition):
		return httpError{Status: http.StatusConflict, Code: "invalid_state_transition", Detail: err.Error()}, true
	case errors.Is(err, core.ErrInvalidCopyCount):
		return httpError{Status: http.StatusConflict, Code: "invalid_copy_count", Detail: err.Error()}, true
	case errors.Is(err, core.ErrNoCopiesAvailable):
		return httpError{Status: http.StatusConflict, Code: "no_copies_available", Detail: err.Error()}, true

	case errors.Is(err, core.ErrNotReservationOwner):
		return httpError{Status: http.StatusForbidden, Code: "not_reservation_owner", Detail: err.Error()}, true

	case errors.Is(err, core.ErrEmptyID):
		return badRequest("empty_id", err.Error()), true
	case errors.Is(err, core.ErrInvalidAmount):
		return badRequest("invalid_amount", err.Error()), true

	case errors.Is(err, core.ErrConcurrencyConflict):
		return httpError{
			Status:     http.StatusServiceUnavailable,
			Code:       "concurrency_conflict",
			Detail:     err.Error(),
			RetryAfter: conflictRetryAfterSeconds,
		}, true

	case errors.Is(err, circulation.ErrClosed):
		return httpError{Status: http.StatusServiceUnavailable, Code: "shutting_down", Detail: err.Error()}, true
	case errors.Is(err, context.DeadlineExceeded):
		return httpError{Status: http.StatusGatewayTimeout, Code: "timeout", Detail: err.Error()}, true
	}

	return httpError{}, false
}
