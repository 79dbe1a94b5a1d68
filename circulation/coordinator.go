package circulation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

var (
	// ErrNilEventStore is returned when NewCoordinator gets no event store.
	ErrNilEventStore = errors.New("nil event store supplied")

	// ErrClosed is returned by operations started after Close.
	ErrClosed = errors.New("coordinator is closed")

	// ErrInvalidSweepInterval is returned by RunSweeps for a non-positive interval.
	ErrInvalidSweepInterval = errors.New("sweep interval must be positive")
)

const (
	operationBorrowItem        = "borrow_item"
	operationReturnItem        = "return_item"
	operationCancelReservation = "cancel_reservation"
	operationPayFine           = "pay_fine"
	operationMarkLost          = "mark_lost"
	operationChangeCopyCount   = "change_copy_count"
	operationSweepItem         = "sweep_item"
	operationTick              = "tick"
)

// EventStore defines the event store operations the Coordinator needs.
// Both postgresengine.EventStore and memengine.EventStore satisfy it.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		event eventstore.StorableEvent,
		additionalEvents ...eventstore.StorableEvent,
	) error
}

// Clock is the time source of the Coordinator. internal/clock provides a real and a manual one.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Coordinator is the entry point for all circulation operations. It is safe for concurrent use.
type Coordinator struct {
	eventStore        EventStore
	policy            core.Policy
	clock             Clock
	notifier          Notifier
	notifyTimeout     time.Duration
	syncNotifications bool
	retryOptions      []shell.RetryOption
	newID             func() string
	locks             *itemLocks
	logger            shell.Logger
	contextualLogger  shell.ContextualLogger
	metricsCollector  shell.MetricsCollector
	tracingCollector  shell.TracingCollector
	lifecycle         sync.RWMutex
	closed            bool
	operations        sync.WaitGroup
	notifications     sync.WaitGroup
}

// NewCoordinator creates a Coordinator on top of the given event store.
//
// Defaults: core.DefaultPolicy(), the wall clock, a NoopNotifier with asynchronous dispatch,
// the shell retry defaults and UUIDv7 ids for loans and reservations.
func NewCoordinator(eventStore EventStore, options ...Option) (*Coordinator, error) {
	if eventStore == nil {
		return nil, ErrNilEventStore
	}

	c := &Coordinator{
		eventStore:    eventStore,
		policy:        core.DefaultPolicy(),
		clock:         realClock{},
		notifier:      NoopNotifier{},
		notifyTimeout: defaultNotifyTimeout,
		newID:         newUUIDv7,
		locks:         newItemLocks(),
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Policy returns the circulation policy in effect.
func (c *Coordinator) Policy() core.Policy {
	return c.policy
}

// Close rejects new operations, waits for the running ones and then for their pending notifications.
// It is safe to call more than once. It must not be called from within a Notifier.
func (c *Coordinator) Close() {
	c.lifecycle.Lock()
	c.closed = true
	c.lifecycle.Unlock()

	c.operations.Wait()
	c.notifications.Wait()
}

// beginOperation registers a running operation, or returns ErrClosed once Close has started.
// Every notification is scheduled inside a registered operation, so Close never waits on
// notifications that are still being added.
func (c *Coordinator) beginOperation() error {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()

	if c.closed {
		return ErrClosed
	}

	c.operations.Add(1)

	return nil
}

func (c *Coordinator) isClosed() bool {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()

	return c.closed
}

func newUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// decideFunc is one operation's pure decision, evaluated against the freshly projected item.
type decideFunc func(state core.ItemState, at time.Time) core.DecisionResult

// runOnItem executes the query-decide-append workflow for one item with retry and observability.
// Offers decided by the operation are dispatched once the append committed.
func (c *Coordinator) runOnItem(
	ctx context.Context,
	operation string,
	itemID core.ItemIDString,
	decide decideFunc,
) (core.DecisionResult, error) {

	if err := c.beginOperation(); err != nil {
		return core.DecisionResult{}, err
	}
	defer c.operations.Done()

	start := time.Now()
	ctx, span := shell.StartOperationSpan(ctx, c.tracingCollector, shell.SpanNameOperation, map[string]string{
		shell.LogAttrOperation: operation,
		shell.LogAttrItemID:    itemID,
	})
	c.logDebug(ctx, shell.LogMsgOperationStarted, shell.LogAttrOperation, operation, shell.LogAttrItemID, itemID)

	correlationID := uuid.NewString()
	var decision core.DecisionResult

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		decision, execErr = c.decideAndAppend(retryCtx, itemID, correlationID, decide)

		return execErr
	}, c.retryOptionsFor(operation)...)

	var handlerResult shell.HandlerResult
	switch {
	case err != nil:
		handlerResult = shell.NewErrorResult(retryMetrics)
	case decision.IsIdempotent():
		handlerResult = shell.NewIdempotentResult(retryMetrics)
	default:
		handlerResult = shell.NewSuccessResult(retryMetrics, len(decision.Events))
	}

	status := handlerResult.Status(err)
	duration := time.Since(start)

	shell.RecordOperationMetrics(ctx, c.metricsCollector, operation, status, duration)
	c.finishSpan(span, status, handlerResult, err)
	c.logOutcome(ctx, operation, itemID, status, handlerResult, duration, err)

	if err != nil {
		return core.DecisionResult{}, err
	}

	c.dispatchOffers(ctx, operation, decision.OfferIntents())

	return decision, nil
}

// decideAndAppend is one attempt, run inside the item's critical section.
func (c *Coordinator) decideAndAppend(
	ctx context.Context,
	itemID core.ItemIDString,
	correlationID string,
	decide decideFunc,
) (core.DecisionResult, error) {

	unlock, ok := c.locks.tryLock(itemID)
	if !ok {
		return core.DecisionResult{}, core.ErrConcurrencyConflict
	}
	defer unlock()

	ctx = eventstore.WithStrongConsistency(ctx)
	filter := ItemStreamFilter(itemID)

	storableEvents, maxSequenceNumber, err := c.eventStore.Query(ctx, filter)
	if err != nil {
		return core.DecisionResult{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return core.DecisionResult{}, err
	}

	state, err := core.ProjectItemState(itemID, history)
	if err != nil {
		return core.DecisionResult{}, err
	}

	decision := decide(state, c.clock.Now())
	if decisionErr := decision.HasError(); decisionErr != nil {
		return decision, decisionErr
	}

	if !decision.HasEventsToAppend() {
		return decision, nil
	}

	toAppend, err := shell.StorableEventsFrom(decision.Events, uuid.NewString, correlationID, correlationID)
	if err != nil {
		return core.DecisionResult{}, err
	}

	if err = c.eventStore.Append(ctx, filter, maxSequenceNumber, toAppend[0], toAppend[1:]...); err != nil {
		return core.DecisionResult{}, err
	}

	return decision, nil
}

func (c *Coordinator) retryOptionsFor(operation string) []shell.RetryOption {
	if c.metricsCollector == nil {
		return c.retryOptions
	}

	options := make([]shell.RetryOption, 0, len(c.retryOptions)+1)
	options = append(options, c.retryOptions...)

	return append(options, shell.WithMetrics(c.metricsCollector, operation))
}

func (c *Coordinator) finishSpan(span shell.SpanContext, status string, result shell.HandlerResult, err error) {
	attrs := map[string]string{
		shell.LogAttrStatus:     status,
		shell.LogAttrEventCount: itoa(result.EventCount),
		shell.LogAttrAttempts:   itoa(result.RetryAttempts),
	}

	if err != nil {
		attrs[shell.LogAttrError] = err.Error()
	}

	shell.FinishOperationSpan(c.tracingCollector, span, status, attrs)
}

func (c *Coordinator) logOutcome(
	ctx context.Context,
	operation string,
	itemID core.ItemIDString,
	status string,
	result shell.HandlerResult,
	duration time.Duration,
	err error,
) {

	args := []any{
		shell.LogAttrOperation, operation,
		shell.LogAttrItemID, itemID,
		shell.LogAttrStatus, status,
		shell.LogAttrAttempts, result.RetryAttempts,
		shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
	}

	switch {
	case err == nil:
		c.logInfo(ctx, shell.LogMsgOperationCompleted, append(args, shell.LogAttrEventCount, result.EventCount)...)
	case status == shell.StatusRejected:
		c.logInfo(ctx, shell.LogMsgOperationRejected, append(args, shell.LogAttrError, err.Error())...)
	default:
		c.logError(ctx, shell.LogMsgOperationFailed, err, args...)
	}
}
