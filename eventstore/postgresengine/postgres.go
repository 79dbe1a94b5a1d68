package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore/postgresengine/internal/adapters"
)

const defaultEventTableName = "events"

// EventStore persists and queries events in PostgreSQL.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

type queryResultRow struct {
	eventType      string
	payload        []byte
	metadata       []byte
	occurredAt     time.Time
	sequenceNumber eventstore.MaxSequenceNumberUint
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore that serves eventually consistent
// queries from the replica pool. Appends and strongly consistent queries always go to the primary.
func NewEventStoreFromPGXPoolAndReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if primary == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (*EventStore, error) {
	es := &EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// TableName returns the configured events table name.
func (es *EventStore) TableName() string {
	return es.eventTableName
}

// Query retrieves the events selected by the filter, in sequence order,
// as well as the MaxSequenceNumberUint for this "dynamic event stream" at the time of the query.
//
// With eventstore.WithEventualConsistency on ctx, and a replica configured, the query is served by the replica.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	ctx, span := es.startSpan(ctx, spanNameQuery, map[string]string{
		spanAttrOperation:   operationQuery,
		spanAttrConsistency: eventstore.GetConsistencyLevel(ctx).String(),
	})

	sqlQuery, buildQueryErr := buildSelectQuery(es.eventTableName, filter)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		es.recordError(ctx, operationQuery, errorTypeBuildQuery)
		es.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeBuildQuery})

		return nil, 0, buildQueryErr
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, operationQuery, time.Since(start))

	if queryErr != nil {
		es.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		es.recordError(ctx, operationQuery, errorTypeDatabaseQuery)
		es.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeDatabaseQuery})

		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	eventStream, maxSequenceNumber, scanErr := es.processQueryResults(ctx, rows)
	duration := time.Since(start)

	if scanErr != nil {
		es.recordError(ctx, operationQuery, errorTypeRowScan)
		es.recordDuration(ctx, metricQueryDuration, duration, operationQuery, statusError)
		es.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeRowScan})

		return nil, 0, scanErr
	}

	es.logOperation(ctx, logMsgQueryCompleted,
		logAttrEventCount, len(eventStream),
		logAttrDurationMS, toMilliseconds(duration))
	es.recordDuration(ctx, metricQueryDuration, duration, operationQuery, statusSuccess)
	es.recordValue(ctx, metricEventsQueried, float64(len(eventStream)), operationQuery, statusSuccess)
	es.finishSpan(span, statusSuccess, map[string]string{
		spanAttrEventCount:  itoa(len(eventStream)),
		spanAttrMaxSequence: itoa(int(maxSequenceNumber)),
	})

	return eventStream, maxSequenceNumber, nil
}

func (es *EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	result := queryResultRow{}
	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.eventType, &result.occurredAt, &result.payload, &result.metadata, &result.sequenceNumber)
		if rowScanErr != nil {
			es.logError(ctx, logMsgScanRowFailed, rowScanErr)

			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		event, buildStorableErr := eventstore.BuildStorableEvent(result.eventType, result.occurredAt, result.payload, result.metadata)
		if buildStorableErr != nil {
			es.logError(ctx, logMsgBuildStorableEventFailed, buildStorableErr, logAttrEventType, result.eventType)

			return nil, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildStorableErr)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = result.sequenceNumber
	}

	if err := rows.Err(); err != nil {
		es.logError(ctx, logMsgScanRowFailed, err)

		return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, err)
	}

	return eventStream, maxSequenceNumber, nil
}

func (es *EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// Append appends one or multiple events atomically if the "dynamic event stream" selected by filter
// still has expectedMaxSequenceNumber as its max sequence number. Otherwise, nothing is written and
// eventstore.ErrConcurrencyConflict is returned.
//
// The filter must be the same one used for the Query the business decision was based on.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	ctx, span := es.startSpan(ctx, spanNameAppend, map[string]string{
		spanAttrOperation:        operationAppend,
		spanAttrEventCount:       itoa(len(allEvents)),
		spanAttrEventType:        event.EventType,
		spanAttrExpectedSequence: itoa(int(expectedMaxSequenceNumber)),
	})

	sqlQuery, buildQueryErr := buildAppendQuery(es.eventTableName, allEvents, filter, expectedMaxSequenceNumber)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildInsertQueryFailed, buildQueryErr, logAttrEventCount, len(allEvents))
		es.recordError(ctx, operationAppend, errorTypeBuildQuery)
		es.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeBuildQuery})

		return buildQueryErr
	}

	start := time.Now()
	result, execErr := es.db.ExecLocked(ctx, filter.StreamKey(), sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(ctx, sqlQuery, operationAppend, duration)

	if execErr != nil {
		es.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		es.recordError(ctx, operationAppend, errorTypeDatabaseExec)
		es.recordDuration(ctx, metricAppendDuration, duration, operationAppend, statusError)
		es.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeDatabaseExec})

		return errors.Join(eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		es.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		es.recordError(ctx, operationAppend, errorTypeRowsAffected)
		es.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeRowsAffected})

		return errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	if rowsAffected < int64(len(allEvents)) {
		es.logOperation(ctx, logMsgConcurrencyConflict,
			logAttrExpectedEvents, len(allEvents),
			logAttrRowsAffected, rowsAffected,
			logAttrExpectedSequence, expectedMaxSequenceNumber)
		es.recordConcurrencyConflict(ctx, operationAppend)
		es.recordDuration(ctx, metricAppendDuration, duration, operationAppend, statusConflict)
		es.finishSpan(span, statusConflict, map[string]string{spanAttrErrorType: errorTypeConcurrencyConflict})

		return eventstore.ErrConcurrencyConflict
	}

	es.logOperation(ctx, logMsgEventsAppended,
		logAttrEventCount, len(allEvents),
		logAttrDurationMS, toMilliseconds(duration))
	es.recordDuration(ctx, metricAppendDuration, duration, operationAppend, statusSuccess)
	es.recordValue(ctx, metricEventsAppended, float64(len(allEvents)), operationAppend, statusSuccess)
	es.finishSpan(span, statusSuccess, map[string]string{spanAttrRowsAffected: itoa(int(rowsAffected))})

	return nil
}
