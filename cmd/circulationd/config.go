package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/internal/dbconfig"
)

const (
	envPrefix = "CIRCULATION"

	storeMem      = "mem"
	storePostgres = "postgres"

	adapterPGX  = "pgx"
	adapterSQL  = "sql"
	adapterSQLX = "sqlx"
)

var (
	errUnknownStore   = errors.New("unknown store, want mem or postgres")
	errUnknownAdapter = errors.New("unknown adapter, want pgx, sql or sqlx")
	errMissingDSN     = errors.New("postgres store needs --postgres-dsn")
	errReplicaNeedPGX = errors.New("a replica dsn is only supported with the pgx adapter")
	errBadLogLevel    = errors.New("unknown log level")
	errBadRetry       = errors.New("retry attempts and base delay must be positive")
)

// daemonConfig is everything the commands read from flags, environment and the config file.
type daemonConfig struct {
	Listen          string
	MetricsListen   string
	ShutdownTimeout time.Duration

	Store              string
	Adapter            string
	PostgresDSN        string
	PostgresReplicaDSN string
	Table              string
	Pool               dbconfig.PoolSettings

	SweepInterval    time.Duration
	NotifyTimeout    time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	Policy core.Policy

	LogLevel slog.Level
	Tracing  bool
}

func registerFlags(flags *pflag.FlagSet) {
	defaults := core.DefaultPolicy()
	pool := dbconfig.DefaultPoolSettings()

	flags.String("config", "", "path to a YAML config file")

	flags.String("listen", ":8080", "HTTP API listen address")
	flags.String("metrics-listen", ":9090", "Prometheus /metrics listen address, empty to disable")
	flags.Duration("shutdown-timeout", 10*time.Second, "grace period for in-flight requests on shutdown")

	flags.String("store", storeMem, "event store: mem or postgres")
	flags.String("adapter", adapterPGX, "postgres driver: pgx, sql or sqlx")
	flags.String("postgres-dsn", "", "postgres connection string")
	flags.String("postgres-replica-dsn", "", "optional read replica for eventually consistent scans (pgx only)")
	flags.String("table", "events", "events table name")
	flags.Int32("db-max-conns", pool.MaxConns, "maximum open database connections")
	flags.Duration("db-conn-lifetime", pool.MaxConnLifetime, "maximum lifetime of a database connection")
	flags.Duration("db-conn-idle-time", pool.MaxConnIdleTime, "maximum idle time of a database connection")

	flags.Duration("sweep-interval", time.Minute, "interval of the overdue and expiry sweep, 0 disables it")
	flags.Duration("notify-timeout", 5*time.Second, "timeout of one offer notification")
	flags.Int("retry-max-attempts", 5, "attempts per operation on a concurrency conflict")
	flags.Duration("retry-base-delay", 10*time.Millisecond, "first backoff delay after a concurrency conflict")

	flags.Duration("loan-period", defaults.LoanPeriod, "time from borrow to due date")
	flags.Duration("hold-window", defaults.HoldWindow, "time an offered copy is held for the reserving user")
	flags.Int64("fine-per-day", defaults.PerDayRate, "fine per full overdue day, in minor currency units")
	flags.Int64("fine-cap", defaults.MaxFineCap, "maximum overdue fine, 0 for uncapped")
	flags.Int64("replacement-cost", defaults.ReplacementCost, "fine for a lost copy")
	flags.Bool("queue-on-zero-capacity", defaults.AllowQueueOnZeroCapacity, "allow reservations on items without any copy")

	flags.String("log-level", "info", "debug, info, warn or error")
	flags.Bool("tracing", false, "record OpenTelemetry spans and correlate them into the logs")
}

// newViper binds the flags and the CIRCULATION_ environment, so that --metrics-listen
// can also be set as CIRCULATION_METRICS_LISTEN or metrics-listen in the config file.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	cfgPath := v.GetString("config")
	if cfgPath == "" {
		return v, nil
	}

	expanded, err := filepath.Abs(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("expand config path %q: %w", cfgPath, err)
	}

	info, err := os.Stat(expanded)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", expanded, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config file %q is a directory", expanded)
	}

	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %q: %w", expanded, err)
	}

	return v, nil
}

func loadConfig(v *viper.Viper) (daemonConfig, error) {
	cfg := daemonConfig{
		Listen:             v.GetString("listen"),
		MetricsListen:      v.GetString("metrics-listen"),
		ShutdownTimeout:    v.GetDuration("shutdown-timeout"),
		Store:              strings.ToLower(v.GetString("store")),
		Adapter:            strings.ToLower(v.GetString("adapter")),
		PostgresDSN:        v.GetString("postgres-dsn"),
		PostgresReplicaDSN: v.GetString("postgres-replica-dsn"),
		Table:              v.GetString("table"),
		SweepInterval:      v.GetDuration("sweep-interval"),
		NotifyTimeout:      v.GetDuration("notify-timeout"),
		RetryMaxAttempts:   v.GetInt("retry-max-attempts"),
		RetryBaseDelay:     v.GetDuration("retry-base-delay"),
		Tracing:            v.GetBool("tracing"),
		Policy: core.Policy{
			LoanPeriod:               v.GetDuration("loan-period"),
			HoldWindow:               v.GetDuration("hold-window"),
			PerDayRate:               v.GetInt64("fine-per-day"),
			MaxFineCap:               v.GetInt64("fine-cap"),
			ReplacementCost:          v.GetInt64("replacement-cost"),
			AllowQueueOnZeroCapacity: v.GetBool("queue-on-zero-capacity"),
		},
	}

	cfg.Pool = dbconfig.DefaultPoolSettings()
	cfg.Pool.MaxConns = v.GetInt32("db-max-conns")
	cfg.Pool.MaxConnLifetime = v.GetDuration("db-conn-lifetime")
	cfg.Pool.MaxConnIdleTime = v.GetDuration("db-conn-idle-time")

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return daemonConfig{}, errors.Join(errBadLogLevel, err)
	}

	if err := cfg.validate(); err != nil {
		return daemonConfig{}, err
	}

	return cfg, nil
}

func (cfg daemonConfig) validate() error {
	switch cfg.Store {
	case storeMem:
	case storePostgres:
		if cfg.PostgresDSN == "" {
			return errMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownStore, cfg.Store)
	}

	switch cfg.Adapter {
	case adapterPGX, adapterSQL, adapterSQLX:
	default:
		return fmt.Errorf("%w: %q", errUnknownAdapter, cfg.Adapter)
	}

	if cfg.PostgresReplicaDSN != "" && cfg.Adapter != adapterPGX {
		return errReplicaNeedPGX
	}

	if cfg.RetryMaxAttempts < 1 || cfg.RetryBaseDelay <= 0 {
		return errBadRetry
	}

	return cfg.Policy.Validate()
}
