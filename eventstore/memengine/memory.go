// Package memengine provides an in-memory EventStore with the same Query/Append semantics as postgresengine.
//
// It is used by unit and coordinator tests and by the daemon's "mem" store for single-process runs.
// Sequence numbers start at 1 and are global across all streams, exactly like the BIGSERIAL column in Postgres.
package memengine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

const (
	logMsgQueryCompleted      = "eventstore operation: query completed"
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logAttrEventCount         = "event_count"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
	logAttrDurationMS         = "duration_ms"

	metricQueryDuration        = "eventstore_query_duration_seconds"
	metricAppendDuration       = "eventstore_append_duration_seconds"
	metricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	labelOperation             = "operation"
	labelStatus                = "status"
)

// ErrMalformedPayload is returned by Append when a payload is valid JSON but not a JSON object.
var ErrMalformedPayload = errors.New("payload must be a json object")

type storedEvent struct {
	sequenceNumber eventstore.MaxSequenceNumberUint
	event          eventstore.StorableEvent
	payload        map[string]any
}

func (se storedEvent) payloadValue(key string) (string, bool) {
	val, ok := se.payload[key].(string)
	return val, ok
}

// EventStore keeps all events in a slice guarded by a RWMutex.
type EventStore struct {
	mu               sync.RWMutex
	events           []storedEvent
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventStore.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.metricsCollector = collector
		return nil
	}
}

// NewEventStore creates an empty in-memory EventStore.
func NewEventStore(options ...Option) (*EventStore, error) {
	es := &EventStore{}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Query returns all events selected by the filter in sequence order,
// and the highest sequence number among them (0 for an empty stream).
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	if err := ctx.Err(); err != nil {
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	start := time.Now()

	es.mu.RLock()
	events := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, se := range es.events {
		if filter.Matches(se.event.EventType, se.payloadValue) {
			events = append(events, cloneEvent(se.event))
			maxSequenceNumber = se.sequenceNumber
		}
	}
	es.mu.RUnlock()

	duration := time.Since(start)
	es.logInfo(ctx, logMsgQueryCompleted, logAttrEventCount, len(events), logAttrDurationMS, toMilliseconds(duration))
	es.recordDuration(ctx, metricQueryDuration, duration, "query")

	return events, maxSequenceNumber, nil
}

// Append adds the events atomically if the stream selected by the filter still ends at expectedMaxSequenceNumber.
// Otherwise, it returns eventstore.ErrConcurrencyConflict and stores nothing.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if err := ctx.Err(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	prepared := make([]storedEvent, 0, len(allEvents))
	for _, e := range allEvents {
		se, err := prepare(e)
		if err != nil {
			return errors.Join(eventstore.ErrAppendingEventFailed, err)
		}

		prepared = append(prepared, se)
	}

	start := time.Now()

	es.mu.Lock()

	actual := es.currentMaxSequenceNumber(filter)
	if actual != expectedMaxSequenceNumber {
		es.mu.Unlock()

		es.logInfo(ctx, logMsgConcurrencyConflict,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
			logAttrActualSequence, actual)
		es.incrementCounter(ctx, metricConcurrencyConflicts, "append")

		return eventstore.ErrConcurrencyConflict
	}

	next := eventstore.MaxSequenceNumberUint(len(es.events))
	for i := range prepared {
		next++
		prepared[i].sequenceNumber = next
	}

	es.events = append(es.events, prepared...)
	es.mu.Unlock()

	duration := time.Since(start)
	es.logInfo(ctx, logMsgEventsAppended, logAttrEventCount, len(prepared), logAttrDurationMS, toMilliseconds(duration))
	es.recordDuration(ctx, metricAppendDuration, duration, "append")

	return nil
}

// Len returns the total number of stored events.
func (es *EventStore) Len() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

// currentMaxSequenceNumber must be called with the write lock held.
func (es *EventStore) currentMaxSequenceNumber(filter eventstore.Filter) eventstore.MaxSequenceNumberUint {
	for i := len(es.events) - 1; i >= 0; i-- {
		if filter.Matches(es.events[i].event.EventType, es.events[i].payloadValue) {
			return es.events[i].sequenceNumber
		}
	}

	return 0
}

func prepare(event eventstore.StorableEvent) (storedEvent, error) {
	validated, err := eventstore.BuildStorableEvent(event.EventType, event.OccurredAt, event.PayloadJSON, event.MetadataJSON)
	if err != nil {
		return storedEvent{}, err
	}

	payload := make(map[string]any)
	if err := jsoniter.ConfigFastest.Unmarshal(validated.PayloadJSON, &payload); err != nil {
		return storedEvent{}, errors.Join(ErrMalformedPayload, err)
	}

	return storedEvent{event: cloneEvent(validated), payload: payload}, nil
}

func cloneEvent(event eventstore.StorableEvent) eventstore.StorableEvent {
	return eventstore.StorableEvent{
		EventType:    event.EventType,
		OccurredAt:   event.OccurredAt,
		PayloadJSON:  slices.Clone(event.PayloadJSON),
		MetadataJSON: slices.Clone(event.MetadataJSON),
	}
}

func (es *EventStore) logInfo(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Info(msg, args...)
	}
}

func (es *EventStore) recordDuration(ctx context.Context, metric string, duration time.Duration, operation string) {
	if es.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation, labelStatus: "success"}

	if contextual, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	es.metricsCollector.RecordDuration(metric, duration, labels)
}

func (es *EventStore) incrementCounter(ctx context.Context, metric string, operation string) {
	if es.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation, "conflict_type": "concurrency"}

	if contextual, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	es.metricsCollector.IncrementCounter(metric, labels)
}

func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
