// Package oteladapters implements the eventstore observability interfaces on top of OpenTelemetry.
//
// The same collectors are handed to the event store engines and to the circulation Coordinator,
// so store operations and circulation commands end up in one trace with correlated logs.
//
//	meter := otel.Meter("circulation")
//	tracer := otel.Tracer("circulation")
//
//	store, _ := postgresengine.NewEventStoreFromPGXPool(pool,
//		postgresengine.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//		postgresengine.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("circulation")),
//	)
package oteladapters
