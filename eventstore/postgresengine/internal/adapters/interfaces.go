package adapters

import "context"

// advisoryLockSQL takes a transaction-scoped advisory lock derived from an arbitrary string key.
const advisoryLockSQL = "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))"

// DBAdapter defines the database operations needed by the event store.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)

	// ExecLocked runs query in its own transaction after taking the advisory lock for lockKey.
	// The lock is released on commit or rollback.
	ExecLocked(ctx context.Context, lockKey string, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
