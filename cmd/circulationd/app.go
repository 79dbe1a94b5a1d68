package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
	"github.com/AntonStoeckl/circulation-engine-go/internal/httpapi"
)

const readHeaderTimeout = 5 * time.Second

// app is one wired process: telemetry, event store and coordinator.
type app struct {
	cfg         daemonConfig
	telemetry   *telemetry
	store       openedStore
	coordinator *circulation.Coordinator
}

func newApp(ctx context.Context, cfg daemonConfig) (*app, error) {
	t := newTelemetry(cfg)

	store, err := openEventStore(ctx, cfg, t)
	if err != nil {
		t.shutdown(ctx)
		return nil, err
	}

	options := []circulation.Option{
		circulation.WithPolicy(cfg.Policy),
		circulation.WithNotifier(newLogNotifier(t.logger)),
		circulation.WithNotifyTimeout(cfg.NotifyTimeout),
		circulation.WithContextualLogger(t.logger),
		circulation.WithMetrics(t.metrics),
		circulation.WithRetryOptions(
			shell.WithMaxAttempts(cfg.RetryMaxAttempts),
			shell.WithBaseDelay(cfg.RetryBaseDelay),
		),
	}
	if t.tracing != nil {
		options = append(options, circulation.WithTracing(t.tracing))
	}

	coordinator, err := circulation.NewCoordinator(store.store, options...)
	if err != nil {
		store.close()
		t.shutdown(ctx)
		return nil, err
	}

	return &app{cfg: cfg, telemetry: t, store: store, coordinator: coordinator}, nil
}

func (a *app) close(ctx context.Context) {
	a.coordinator.Close()
	a.store.close()
	a.telemetry.shutdown(ctx)
}

// serve runs the HTTP API, the metrics endpoint and the sweeper until ctx is canceled.
func (a *app) serve(ctx context.Context) error {
	if err := a.store.ensureSchema(ctx); err != nil {
		return err
	}

	metricsServer, err := a.telemetry.startMetricsServer(a.cfg.MetricsListen)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.cfg.Listen)
	if err != nil {
		shutdownServer(context.Background(), metricsServer, a.cfg.ShutdownTimeout)
		return err
	}

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	apiServer := &http.Server{
		Handler:           httpapi.New(a.coordinator, httpapi.WithLogger(a.telemetry.logger)),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return runCtx },
	}

	errs := make(chan error, 2)
	var sweeper sync.WaitGroup

	go func() {
		if serveErr := apiServer.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errs <- serveErr
		}
	}()

	if a.cfg.SweepInterval > 0 {
		sweeper.Add(1)
		go func() {
			defer sweeper.Done()
			if sweepErr := a.coordinator.RunSweeps(runCtx, a.cfg.SweepInterval); sweepErr != nil && !errors.Is(sweepErr, circulation.ErrClosed) {
				errs <- sweepErr
			}
		}()
	}

	a.telemetry.logger.InfoContext(ctx, "circulation api started",
		"listen", ln.Addr().String(),
		"store", a.cfg.Store,
		"sweep_interval", a.cfg.SweepInterval.String())

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}

	// The sweeper must be gone before the caller closes the coordinator.
	stopRun()
	sweeper.Wait()

	shutdownServer(context.Background(), apiServer, a.cfg.ShutdownTimeout)
	shutdownServer(context.Background(), metricsServer, a.cfg.ShutdownTimeout)
	a.telemetry.logger.InfoContext(context.Background(), "circulation api stopped")

	return runErr
}

func shutdownServer(ctx context.Context, srv *http.Server, timeout time.Duration) {
	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
}
