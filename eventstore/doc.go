// Package eventstore provides the storage abstractions the circulation engine is built on:
// an append-only log of events where a "dynamic event stream" is whatever a Filter selects.
//
// A stream is not a physical partition. It is defined by the query that reads it:
//   - event types (any of)
//   - JSON payload predicates (any of, or all of)
//
// Writers query a stream, decide on new events, and append them together with the max sequence number
// they observed. The append fails with ErrConcurrencyConflict if any event that matches the same filter
// was written in between, so the decision is never made on stale state.
//
// Typical usage for one lendable item:
//
//	filter := eventstore.BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(
//			core.LoanCreatedEventType,
//			core.LoanReturnedEventType).
//		AndAnyPredicateOf(eventstore.P("ItemID", itemID)).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	newEvent, err := eventstore.BuildStorableEvent(eventType, occurredAt, payloadJSON, metadataJSON)
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//
// Two engines implement the contract: postgresengine (production) and memengine (tests and single-process use).
package eventstore
