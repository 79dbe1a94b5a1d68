// Package dbconfig opens PostgreSQL connections for the daemon with one of the three supported drivers:
// pgx.Pool, sql.DB or sqlx.DB.
package dbconfig

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const driverName = "postgres"

var ErrEmptyDSN = errors.New("postgres dsn is empty")

// PoolSettings holds the connection pool limits shared by all drivers.
// MinConns and HealthCheckPeriod only apply to pgx.
type PoolSettings struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// DefaultPoolSettings returns the settings used when nothing is configured.
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		MaxConns:          50,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   time.Minute * 5,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    time.Second * 5,
	}
}

// PGXPoolConfig parses the DSN and applies the pool settings. It does not connect.
func PGXPoolConfig(dsn string, settings PoolSettings) (*pgxpool.Config, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if settings.MaxConns > 0 {
		dbConfig.MaxConns = settings.MaxConns
	}
	if settings.MinConns > 0 {
		dbConfig.MinConns = settings.MinConns
	}
	if settings.MaxConnLifetime > 0 {
		dbConfig.MaxConnLifetime = settings.MaxConnLifetime
	}
	if settings.MaxConnIdleTime > 0 {
		dbConfig.MaxConnIdleTime = settings.MaxConnIdleTime
	}
	if settings.HealthCheckPeriod > 0 {
		dbConfig.HealthCheckPeriod = settings.HealthCheckPeriod
	}
	if settings.ConnectTimeout > 0 {
		dbConfig.ConnConfig.ConnectTimeout = settings.ConnectTimeout
	}

	return dbConfig, nil
}

// OpenPGXPool opens and pings a pgx pool.
func OpenPGXPool(ctx context.Context, dsn string, settings PoolSettings) (*pgxpool.Pool, error) {
	dbConfig, err := PGXPoolConfig(dsn, settings)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, pingErr
	}

	return pool, nil
}

// OpenSQLDB opens and pings a *sql.DB backed by lib/pq.
func OpenSQLDB(ctx context.Context, dsn string, settings PoolSettings) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	applyPoolSettings(db, settings)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

// OpenSQLX opens and pings a *sqlx.DB backed by lib/pq.
func OpenSQLX(ctx context.Context, dsn string, settings PoolSettings) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	applyPoolSettings(db.DB, settings)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

func applyPoolSettings(db *sql.DB, settings PoolSettings) {
	if settings.MaxConns > 0 {
		db.SetMaxOpenConns(int(settings.MaxConns))
		db.SetMaxIdleConns(max(1, int(settings.MaxConns)/5))
	}

	db.SetConnMaxLifetime(settings.MaxConnLifetime)
	db.SetConnMaxIdleTime(settings.MaxConnIdleTime)
}
