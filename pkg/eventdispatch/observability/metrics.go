package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatcher metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records one DispatchEvent or DispatchAndRemoveEvent call.
	RecordDispatch(ctx context.Context, retained bool, listeners int)

	// RecordDelivery records one listener invocation, live or replayed.
	RecordDelivery(ctx context.Context, replay bool, duration time.Duration, err error)

	// RecordListeners records a change in the number of registered listeners.
	RecordListeners(ctx context.Context, delta int64)

	// RecordPending records a change in the number of replay log entries.
	RecordPending(ctx context.Context, delta int64)
}

// instruments holds the OTel instruments shared by every recorder.
type instruments struct {
	dispatches       metric.Int64Counter
	deliveries       metric.Int64Counter
	deliveryLatency  metric.Float64Histogram
	deliveryFailures metric.Int64Counter
	listeners        metric.Int64UpDownCounter
	pending          metric.Int64UpDownCounter
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	inst  *instruments
	attrs []attribute.KeyValue
}

var (
	defaultInstruments     *instruments
	defaultInstrumentsOnce sync.Once
	defaultInstrumentsErr  error
)

// getDefaultInstruments lazily creates the instruments on first call.
func getDefaultInstruments() (*instruments, error) {
	defaultInstrumentsOnce.Do(func() {
		defaultInstruments, defaultInstrumentsErr = newInstruments()
	})
	return defaultInstruments, defaultInstrumentsErr
}

// newInstruments creates the instruments from the global meter provider.
func newInstruments() (*instruments, error) {
	meter := otel.Meter("eventdispatch")

	dispatches, err := meter.Int64Counter("eventdispatch.dispatches",
		metric.WithDescription("Number of dispatched events"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("eventdispatch.deliveries",
		metric.WithDescription("Number of listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	deliveryLatency, err := meter.Float64Histogram("eventdispatch.delivery.latency_ms",
		metric.WithDescription("Listener invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	deliveryFailures, err := meter.Int64Counter("eventdispatch.delivery.failures",
		metric.WithDescription("Number of failed listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	listeners, err := meter.Int64UpDownCounter("eventdispatch.listeners",
		metric.WithDescription("Number of registered listeners"),
	)
	if err != nil {
		return nil, err
	}

	pending, err := meter.Int64UpDownCounter("eventdispatch.pending_events",
		metric.WithDescription("Number of events retained for replay"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		dispatches:       dispatches,
		deliveries:       deliveries,
		deliveryLatency:  deliveryLatency,
		deliveryFailures: deliveryFailures,
		listeners:        listeners,
		pending:          pending,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry and
// tags every measurement with the dispatcher name.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder(dispatcher string) MetricsRecorder {
	inst, err := getDefaultInstruments()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return newOtelMetrics(inst, dispatcher)
}

func newOtelMetrics(inst *instruments, dispatcher string) *otelMetrics {
	return &otelMetrics{
		inst:  inst,
		attrs: []attribute.KeyValue{attribute.String("dispatcher", dispatcher)},
	}
}

func (m *otelMetrics) with(extra ...attribute.KeyValue) metric.MeasurementOption {
	attrs := make([]attribute.KeyValue, 0, len(m.attrs)+len(extra))
	attrs = append(attrs, m.attrs...)
	attrs = append(attrs, extra...)
	return metric.WithAttributes(attrs...)
}

// RecordDispatch records a dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, retained bool, listeners int) {
	m.inst.dispatches.Add(ctx, 1, m.with(
		attribute.Bool("retained", retained),
		attribute.Int("listeners", listeners),
	))
}

// RecordDelivery records a listener invocation.
func (m *otelMetrics) RecordDelivery(ctx context.Context, replay bool, duration time.Duration, err error) {
	opt := m.with(attribute.Bool("replay", replay))
	m.inst.deliveries.Add(ctx, 1, opt)
	m.inst.deliveryLatency.Record(ctx, float64(duration.Microseconds())/1000, opt)
	if err != nil {
		m.inst.deliveryFailures.Add(ctx, 1, opt)
	}
}

// RecordListeners records a listener count change.
func (m *otelMetrics) RecordListeners(ctx context.Context, delta int64) {
	m.inst.listeners.Add(ctx, delta, m.with())
}

// RecordPending records a replay log size change.
func (m *otelMetrics) RecordPending(ctx context.Context, delta int64) {
	m.inst.pending.Add(ctx, delta, m.with())
}
