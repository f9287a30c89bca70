package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs a tracer provider backed by an in-memory exporter.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("eventdispatch")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		tracer = otel.Tracer("eventdispatch")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}
	return exporter, cleanup
}

func TestStartDispatchSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()
	_, span := m.StartDispatchSpan(context.Background(), "orders", "order-7", true)
	require.NotNil(t, span)
	m.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "eventdispatch.dispatch", s.Name)
	assert.Equal(t, codes.Ok, s.Status.Code)

	attrs := attribute.NewSet(s.Attributes...)
	v, ok := attrs.Value("event.key")
	require.True(t, ok)
	assert.Equal(t, "order-7", v.AsString())
	v, ok = attrs.Value("event.retained")
	require.True(t, ok)
	assert.True(t, v.AsBool())
}

func TestStartAddListenerSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()
	ctx, span := m.StartAddListenerSpan(context.Background(), "orders", "audit")
	m.AddSpanEvent(ctx, "replay.complete", attribute.Int("replayed", 2))
	m.EndSpanWithError(span, errors.New("already registered"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "eventdispatch.add_listener", s.Name)
	assert.Equal(t, codes.Error, s.Status.Code)
	assert.Equal(t, "already registered", s.Status.Description)
	require.Len(t, s.Events, 2) // replay.complete + recorded error
	assert.Equal(t, "replay.complete", s.Events[0].Name)
}

func TestEndSpanWithError_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		EndSpanWithError(nil, errors.New("x"))
	})
}

func TestAddSpanEvent_NoSpanInContext(t *testing.T) {
	assert.NotPanics(t, func() {
		AddSpanEvent(context.Background(), "nothing")
	})
}
