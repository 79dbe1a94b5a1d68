// Package adapters hides the differences between pgxpool.Pool, sql.DB and sqlx.DB behind DBAdapter.
//
// Every adapter runs plain queries, plain execs, and execs inside a transaction that
// first takes a transaction-scoped Postgres advisory lock (ExecLocked). The event store uses
// the latter to make the conditional append of a "dynamic event stream" atomic
// under READ COMMITTED.
package adapters
