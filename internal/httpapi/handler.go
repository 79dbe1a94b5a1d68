// Package httpapi exposes the circulation coordinator over JSON/HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

const (
	maxBodyBytes = 4 << 10

	logMsgRequestFailed    = "http request failed"
	logMsgRequestCompleted = "http request completed"
	logMsgInternalError    = "http request internal error"

	logAttrOperation  = "operation"
	logAttrMethod     = "method"
	logAttrPath       = "path"
	logAttrStatus     = "status"
	logAttrCode       = "code"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

var strictJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// Circulation is the part of *circulation.Coordinator the API calls.
type Circulation interface {
	BorrowItem(ctx context.Context, itemID core.ItemIDString, userID core.UserIDString) (circulation.BorrowResult, error)
	ReturnItem(ctx context.Context, loanID core.LoanIDString) (circulation.ReturnResult, error)
	MarkLost(ctx context.Context, loanID core.LoanIDString) (circulation.LostResult, error)
	PayFine(ctx context.Context, loanID core.LoanIDString, amount core.Money) (circulation.PayFineResult, error)
	CancelReservation(
		ctx context.Context,
		reservationID core.ReservationIDString,
		userID core.UserIDString,
	) (circulation.CancelResult, error)
	OnCatalogCopyCountChanged(ctx context.Context, itemID core.ItemIDString, newTotal int) (circulation.ItemSnapshot, error)
	Item(ctx context.Context, itemID core.ItemIDString) (circulation.ItemSnapshot, error)
	Tick(ctx context.Context) (circulation.TickResult, error)
}

// Handler routes requests to the coordinator.
type Handler struct {
	circulation Circulation
	logger      eventstore.ContextualLogger
	mux         *http.ServeMux
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for request failures and completions.
func WithLogger(logger eventstore.ContextualLogger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New builds a Handler with all routes registered.
func New(c Circulation, options ...Option) *Handler {
	h := &Handler{circulation: c, mux: http.NewServeMux()}

	for _, option := range options {
		option(h)
	}

	h.mux.Handle("PUT /items/{itemID}/copies", h.wrap("change_copy_count", h.handleCopyCount))
	h.mux.Handle("GET /items/{itemID}", h.wrap("get_item", h.handleGetItem))
	h.mux.Handle("POST /items/{itemID}/borrow", h.wrap("borrow_item", h.handleBorrow))
	h.mux.Handle("POST /loans/{loanID}/return", h.wrap("return_item", h.handleReturn))
	h.mux.Handle("POST /loans/{loanID}/lost", h.wrap("mark_lost", h.handleLost))
	h.mux.Handle("POST /loans/{loanID}/payments", h.wrap("pay_fine", h.handlePayment))
	h.mux.Handle("POST /reservations/{reservationID}/cancel", h.wrap("cancel_reservation", h.handleCancel))
	h.mux.Handle("POST /tick", h.wrap("tick", h.handleTick))
	h.mux.Handle("GET /healthz", h.wrap("healthz", h.handleHealth))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) wrap(operation string, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if err := fn(w, r); err != nil {
			h.handleError(r.Context(), w, operation, err)
			return
		}

		h.logDebug(r.Context(), logMsgRequestCompleted,
			logAttrOperation, operation,
			logAttrMethod, r.Method,
			logAttrPath, r.URL.Path,
			logAttrDurationMS, time.Since(start).Milliseconds())
	})
}

func (h *Handler) handleError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	httpErr, ok := httpErrorFrom(err)
	if !ok {
		h.logError(ctx, logMsgInternalError, logAttrOperation, operation, logAttrError, err.Error())
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			ErrorCode: "internal_error",
			Detail:    "internal server error",
		}, nil)

		return
	}

	h.logDebug(ctx, logMsgRequestFailed,
		logAttrOperation, operation,
		logAttrStatus, httpErr.Status,
		logAttrCode, httpErr.Code)

	headers := map[string]string{}
	if httpErr.RetryAfter > 0 {
		headers["Retry-After"] = strconv.FormatInt(httpErr.RetryAfter, 10)
	}

	writeJSON(w, httpErr.Status, ErrorResponse{
		ErrorCode:         httpErr.Code,
		Detail:            httpErr.Detail,
		RetryAfterSeconds: httpErr.RetryAfter,
	}, headers)
}

func (h *Handler) handleCopyCount(w http.ResponseWriter, r *http.Request) error {
	var request copyCountRequest
	if err := decodeJSONBody(r.Body, &request); err != nil {
		return err
	}

	if request.TotalCopies == nil {
		return badRequest("missing_total_copies", "totalCopies required")
	}

	snapshot, err := h.circulation.OnCatalogCopyCountChanged(r.Context(), r.PathValue("itemID"), *request.TotalCopies)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, itemResponseFrom(snapshot), nil)

	return nil
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) error {
	snapshot, err := h.circulation.Item(r.Context(), r.PathValue("itemID"))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, itemResponseFrom(snapshot), nil)

	return nil
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) error {
	var request userRequest
	if err := decodeJSONBody(r.Body, &request); err != nil {
		return err
	}

	result, err := h.circulation.BorrowItem(r.Context(), r.PathValue("itemID"), request.UserID)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Status == circulation.BorrowStatusQueued {
		status = http.StatusAccepted
	}

	writeJSON(w, status, borrowResponseFrom(result), nil)

	return nil
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) error {
	result, err := h.circulation.ReturnItem(r.Context(), r.PathValue("loanID"))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, ReturnResponse{Loan: loanResponseFrom(result.Loan), FineAssessed: result.FineAssessed}, nil)

	return nil
}

func (h *Handler) handleLost(w http.ResponseWriter, r *http.Request) error {
	result, err := h.circulation.MarkLost(r.Context(), r.PathValue("loanID"))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, ReturnResponse{Loan: loanResponseFrom(result.Loan), FineAssessed: result.FineAssessed}, nil)

	return nil
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) error {
	var request paymentRequest
	if err := decodeJSONBody(r.Body, &request); err != nil {
		return err
	}

	result, err := h.circulation.PayFine(r.Context(), r.PathValue("loanID"), request.Amount)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, PaymentResponse{Loan: loanResponseFrom(result.Loan), FullyPaid: result.FullyPaid}, nil)

	return nil
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) error {
	var request userRequest
	if err := decodeJSONBody(r.Body, &request); err != nil {
		return err
	}

	result, err := h.circulation.CancelReservation(r.Context(), r.PathValue("reservationID"), request.UserID)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, reservationResponseFrom(result.Reservation), nil)

	return nil
}

func (h *Handler) handleTick(w http.ResponseWriter, r *http.Request) error {
	result, err := h.circulation.Tick(r.Context())
	if err != nil && !hasProgress(result) {
		return err
	}

	// Partial failures were logged by the coordinator; the counts still describe what changed.
	writeJSON(w, http.StatusOK, TickResponse{
		OverdueTransitioned: result.OverdueTransitioned,
		ExpiredReservations: result.ExpiredReservations,
		ItemsSwept:          result.ItemsSwept,
	}, nil)

	return nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, nil)

	return nil
}

func hasProgress(result circulation.TickResult) bool {
	return result.ItemsSwept > 0
}

// decodeJSONBody decodes exactly one JSON object with known fields only.
func decodeJSONBody(body io.Reader, dst any) error {
	if body == nil {
		return badRequest("invalid_body", "request body required")
	}

	decoder := strictJSON.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("invalid_body", "request body required")
		}

		return badRequest("invalid_body", err.Error())
	}

	if decoder.More() {
		return badRequest("invalid_body", "unexpected trailing JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any, headers map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	w.WriteHeader(status)
	if payload == nil {
		return
	}

	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(payload)
}

func (h *Handler) logDebug(ctx context.Context, msg string, args ...any) {
	if h.logger != nil {
		h.logger.DebugContext(ctx, msg, args...)
	}
}

func (h *Handler) logError(ctx context.Context, msg string, args ...any) {
	if h.logger != nil {
		h.logger.ErrorContext(ctx, msg, args...)
	}
}
