package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore/oteladapters"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore/promadapters"
)

const serviceName = "circulationd"

// telemetry bundles the logger, the Prometheus registry and the optional tracer provider of one process.
type telemetry struct {
	logger         *oteladapters.SlogBridgeLogger
	registry       *prometheus.Registry
	metrics        *promadapters.MetricsCollector
	tracerProvider *sdktrace.TracerProvider
	tracing        eventstore.TracingCollector
}

func newTelemetry(cfg daemonConfig) *telemetry {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	t := &telemetry{
		logger:   logger,
		registry: registry,
		metrics:  promadapters.NewMetricsCollector(registry),
	}

	if cfg.Tracing {
		res := resource.NewSchemaless(attribute.String("service.name", serviceName))
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1.0))),
		)
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

		t.tracing = oteladapters.NewTracingCollector(t.tracerProvider.Tracer(serviceName))
	}

	return t
}

func (t *telemetry) shutdown(ctx context.Context) {
	if t.tracerProvider == nil {
		return
	}

	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		t.logger.WarnContext(ctx, "tracer provider shutdown failed", "error", err.Error())
	}
}

// startMetricsServer serves /metrics until ctx is done. An empty addr disables it.
func (t *telemetry) startMetricsServer(addr string) (*http.Server, error) {
	if addr == "" {
		return nil, nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			t.logger.WarnContext(context.Background(), "metrics server failed", "error", serveErr.Error())
		}
	}()

	t.logger.InfoContext(context.Background(), "metrics server started", "listen", ln.Addr().String())

	return srv, nil
}
