package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/circulation-engine-go/eventstore/oteladapters"
)

func newTracing() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func attributeValue(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	collector, exporter := newTracing()

	// act
	_, span := collector.StartSpan(context.Background(), "circulation.borrow_item", map[string]string{"item_id": "i-1"})
	span.AddAttribute("outcome", "borrowed")
	collector.FinishSpan(span, "success", map[string]string{"events": "1"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "circulation.borrow_item", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	for key, expected := range map[string]string{"item_id": "i-1", "outcome": "borrowed", "events": "1"} {
		val, ok := attributeValue(spans[0], key)
		assert.True(t, ok, key)
		assert.Equal(t, expected, val)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	tests := []struct {
		status       string
		expectedCode codes.Code
	}{
		{"success", codes.Ok},
		{"idempotent", codes.Ok},
		{"error", codes.Error},
		{"conflict", codes.Error},
		{"rejected", codes.Error},
		{"canceled", codes.Error},
		{"something_else", codes.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			// arrange
			collector, exporter := newTracing()
			_, span := collector.StartSpan(context.Background(), "op", nil)

			// act
			collector.FinishSpan(span, tt.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_ChildSpansShareTrace(t *testing.T) {
	// arrange
	collector, exporter := newTracing()

	// act
	ctx, parent := collector.StartSpan(context.Background(), "circulation.return_item", nil)
	_, child := collector.StartSpan(ctx, "eventstore.append", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[0].SpanContext.TraceID(), spans[1].SpanContext.TraceID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func Test_TracingCollector_IgnoresForeignSpanContext(t *testing.T) {
	// arrange
	collector, exporter := newTracing()

	// act & assert
	assert.NotPanics(t, func() { collector.FinishSpan(nil, "success", nil) })
	assert.Empty(t, exporter.GetSpans())
}
