package eventdispatch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/config"
	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/observability"
)

// options holds dispatcher configuration.
type options struct {
	name           string
	logger         *slog.Logger
	level          *slog.Level
	metrics        observability.MetricsRecorder
	metricsEnabled bool
	spans          observability.SpanManager
	sharedDelivery bool
}

// defaultOptions returns the default dispatcher configuration.
func defaultOptions() options {
	return options{
		logger: slog.Default(),
	}
}

// Option configures a Dispatcher.
type Option func(*options)

// WithName sets the name used in logs, metrics and spans.
// Default: "dispatcher-" followed by a random suffix.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	d := eventdispatch.New(policy, nil,
//	    eventdispatch.WithMetrics(observability.NewMetricsRecorder("orders")))
func WithMetrics(recorder observability.MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = recorder
	}
}

// WithTracing sets the span manager.
// Default: observability.NoopSpanManager{}
func WithTracing(spans observability.SpanManager) Option {
	return func(o *options) {
		o.spans = spans
	}
}

// WithSharedDelivery controls whether concurrent live deliveries to one
// listener may overlap.
//
// When false (the default) every delivery to a listener holds that
// listener's lock exclusively, so the listener sees one event at a time in
// lock arrival order. When true live deliveries share the lock; replay still
// holds it exclusively, so no live event is interleaved into a replay.
func WithSharedDelivery(shared bool) Option {
	return func(o *options) {
		o.sharedDelivery = shared
	}
}

// WithSettings applies loaded settings. Options given after WithSettings
// override it.
func WithSettings(s config.Settings) Option {
	return func(o *options) {
		if s.Name != "" {
			o.name = s.Name
		}
		o.sharedDelivery = s.SharedDelivery
		o.metricsEnabled = s.Metrics
		if s.Tracing {
			o.spans = observability.NewSpanManager()
		}
		if s.HasLevel() {
			if level, err := s.Level(); err == nil {
				o.level = &level
			}
		}
	}
}

// resolve fills in everything that depends on other options.
func (o *options) resolve() {
	if o.name == "" {
		o.name = "dispatcher-" + uuid.New().String()[:8]
	}
	if o.metrics == nil {
		if o.metricsEnabled {
			o.metrics = observability.NewMetricsRecorder(o.name)
		} else {
			o.metrics = observability.NoopMetrics{}
		}
	}
	if o.spans == nil {
		o.spans = observability.NoopSpanManager{}
	}
	if o.logger != nil {
		if o.level != nil {
			o.logger = slog.New(&levelHandler{level: *o.level, handler: o.logger.Handler()})
		}
		o.logger = observability.EnrichLogger(o.logger, o.name)
	}
}

// levelHandler raises the minimum level of a wrapped handler.
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.handler.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}
