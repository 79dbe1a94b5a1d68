// Package postgresengine provides a PostgreSQL implementation of the eventstore Query/Append contract.
//
// Events live in a single table (default "events") with a BIGSERIAL sequence number, a JSONB payload
// and JSONB metadata. A "dynamic event stream" is whatever an eventstore.Filter selects; the filter is
// translated into event_type and `payload @> '{"Key":"Val"}'` conditions, which the GIN index on the
// payload column serves.
//
// Append is a conditional INSERT ... SELECT guarded by a CTE that computes the current max sequence
// number of the stream. It runs in a transaction that first takes pg_advisory_xact_lock on the
// filter's StreamKey, so two writers on the same stream are serialised and the second one
// reliably sees eventstore.ErrConcurrencyConflict.
//
// Three database libraries are supported through internal adapters: pgx (pgxpool), database/sql
// (lib/pq) and sqlx.
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(pool, postgresengine.WithTableName("circulation_events"))
//	_ = store.EnsureSchema(ctx)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
package postgresengine
