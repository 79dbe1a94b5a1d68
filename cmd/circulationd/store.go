package main

import (
	"context"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore/memengine"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/circulation-engine-go/internal/dbconfig"
)

// openedStore is the event store with its connection cleanup. postgres is nil for the mem store.
type openedStore struct {
	store    circulation.EventStore
	postgres *postgresengine.EventStore
	close    func()
}

func openEventStore(ctx context.Context, cfg daemonConfig, t *telemetry) (openedStore, error) {
	if cfg.Store == storeMem {
		es, err := memengine.NewEventStore(
			memengine.WithContextualLogger(t.logger),
			memengine.WithMetrics(t.metrics),
		)
		if err != nil {
			return openedStore{}, err
		}

		return openedStore{store: es, close: func() {}}, nil
	}

	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.Table),
		postgresengine.WithContextualLogger(t.logger),
		postgresengine.WithMetrics(t.metrics),
	}
	if t.tracing != nil {
		options = append(options, postgresengine.WithTracing(t.tracing))
	}

	switch cfg.Adapter {
	case adapterSQL:
		db, err := dbconfig.OpenSQLDB(ctx, cfg.PostgresDSN, cfg.Pool)
		if err != nil {
			return openedStore{}, err
		}

		es, err := postgresengine.NewEventStoreFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return openedStore{}, err
		}

		return openedStore{store: es, postgres: es, close: func() { _ = db.Close() }}, nil

	case adapterSQLX:
		db, err := dbconfig.OpenSQLX(ctx, cfg.PostgresDSN, cfg.Pool)
		if err != nil {
			return openedStore{}, err
		}

		es, err := postgresengine.NewEventStoreFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return openedStore{}, err
		}

		return openedStore{store: es, postgres: es, close: func() { _ = db.Close() }}, nil
	}

	primary, err := dbconfig.OpenPGXPool(ctx, cfg.PostgresDSN, cfg.Pool)
	if err != nil {
		return openedStore{}, err
	}

	if cfg.PostgresReplicaDSN == "" {
		es, err := postgresengine.NewEventStoreFromPGXPool(primary, options...)
		if err != nil {
			primary.Close()
			return openedStore{}, err
		}

		return openedStore{store: es, postgres: es, close: primary.Close}, nil
	}

	replica, err := dbconfig.OpenPGXPool(ctx, cfg.PostgresReplicaDSN, cfg.Pool)
	if err != nil {
		primary.Close()
		return openedStore{}, err
	}

	es, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(primary, replica, options...)
	if err != nil {
		primary.Close()
		replica.Close()
		return openedStore{}, err
	}

	return openedStore{store: es, postgres: es, close: func() {
		replica.Close()
		primary.Close()
	}}, nil
}

func (s openedStore) ensureSchema(ctx context.Context) error {
	if s.postgres == nil {
		return nil
	}

	return s.postgres.EnsureSchema(ctx)
}
