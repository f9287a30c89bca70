package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the dispatcher tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("eventdispatch")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDispatchSpan starts a span covering one fan-out.
	StartDispatchSpan(ctx context.Context, dispatcher, eventKey string, retained bool) (context.Context, trace.Span)

	// StartAddListenerSpan starts a span covering a registration and its replay.
	StartAddListenerSpan(ctx context.Context, dispatcher, listenerKey string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartDispatchSpan starts a span for a fan-out.
func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, dispatcher, eventKey string, retained bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventdispatch.dispatch",
		trace.WithAttributes(
			attribute.String("dispatcher", dispatcher),
			attribute.String("event.key", eventKey),
			attribute.Bool("event.retained", retained),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartAddListenerSpan starts a span for a registration.
func (m *otelSpanManager) StartAddListenerSpan(ctx context.Context, dispatcher, listenerKey string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventdispatch.add_listener",
		trace.WithAttributes(
			attribute.String("dispatcher", dispatcher),
			attribute.String("listener.key", listenerKey),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
