package postgresengine_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // database/sql driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore/postgresengine"
)

const dsnEnvVar = "CIRCULATION_TEST_POSTGRES_DSN"

type storeFactory struct {
	name  string
	build func(t *testing.T, dsn string, table string) *postgresengine.EventStore
}

func factories() []storeFactory {
	return []storeFactory{
		{"pgx", func(t *testing.T, dsn string, table string) *postgresengine.EventStore {
			pool, err := pgxpool.New(context.Background(), dsn)
			require.NoError(t, err)
			t.Cleanup(pool.Close)

			es, err := postgresengine.NewEventStoreFromPGXPool(pool, postgresengine.WithTableName(table))
			require.NoError(t, err)

			return es
		}},
		{"sql", func(t *testing.T, dsn string, table string) *postgresengine.EventStore {
			db, err := sql.Open("postgres", dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			es, err := postgresengine.NewEventStoreFromSQLDB(db, postgresengine.WithTableName(table))
			require.NoError(t, err)

			return es
		}},
		{"sqlx", func(t *testing.T, dsn string, table string) *postgresengine.EventStore {
			db, err := sqlx.Open("postgres", dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			es, err := postgresengine.NewEventStoreFromSQLX(db, postgresengine.WithTableName(table))
			require.NoError(t, err)

			return es
		}},
	}
}

func freshTable(t *testing.T, dsn string, adapter string) string {
	t.Helper()

	table := fmt.Sprintf("events_test_%s_%d", adapter, time.Now().UnixNano())

	t.Cleanup(func() {
		pool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			return
		}
		defer pool.Close()
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
	})

	return table
}

func itemFilter(itemID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyPredicateOf(eventstore.P("ItemID", itemID)).
		Finalize()
}

func storable(t *testing.T, eventType string, itemID string) eventstore.StorableEvent {
	e, err := eventstore.BuildStorableEvent(
		eventType,
		time.Now().UTC().Truncate(time.Microsecond),
		[]byte(fmt.Sprintf(`{"ItemID":%q}`, itemID)),
		[]byte(`{"MessageID":"m-1"}`),
	)
	require.NoError(t, err)

	return e
}

func Test_Postgres_AppendQueryAndConflict(t *testing.T) {
	dsn := os.Getenv(dsnEnvVar)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnvVar)
	}

	for _, factory := range factories() {
		t.Run(factory.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			es := factory.build(t, dsn, freshTable(t, dsn, factory.name))
			require.NoError(t, es.EnsureSchema(ctx))
			require.NoError(t, es.EnsureSchema(ctx), "schema must be idempotent")

			filter := itemFilter("i-1")

			// act
			_, maxSeq, err := es.Query(ctx, filter)
			require.NoError(t, err)
			appendErr := es.Append(ctx, filter, maxSeq,
				storable(t, "ItemCopyCountChanged", "i-1"),
				storable(t, "LoanCreated", "i-1"))
			staleErr := es.Append(ctx, filter, maxSeq, storable(t, "LoanCreated", "i-1"))
			otherItemErr := es.Append(ctx, itemFilter("i-2"), 0, storable(t, "ItemCopyCountChanged", "i-2"))
			events, newMaxSeq, queryErr := es.Query(ctx, filter)

			// assert
			assert.NoError(t, appendErr)
			assert.ErrorIs(t, staleErr, eventstore.ErrConcurrencyConflict)
			assert.NoError(t, otherItemErr)
			assert.NoError(t, queryErr)
			require.Len(t, events, 2)
			assert.Equal(t, "ItemCopyCountChanged", events[0].EventType)
			assert.Equal(t, "LoanCreated", events[1].EventType)
			assert.JSONEq(t, `{"MessageID":"m-1"}`, string(events[1].MetadataJSON))
			assert.Greater(t, newMaxSeq, maxSeq)
		})
	}
}

func Test_Postgres_ConcurrentAppendsOnSameStream_OnlyOneWins(t *testing.T) {
	dsn := os.Getenv(dsnEnvVar)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnvVar)
	}

	// arrange
	ctx := context.Background()
	es := factories()[0].build(t, dsn, freshTable(t, dsn, "race"))
	require.NoError(t, es.EnsureSchema(ctx))

	filter := itemFilter("i-1")
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)

	// act
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- es.Append(ctx, filter, 0, storable(t, "LoanCreated", "i-1"))
		}()
	}
	wg.Wait()
	close(errs)

	// assert
	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	}
	assert.Equal(t, 1, succeeded)
}
