// Package observability provides logging, metrics and tracing helpers for
// the event dispatcher.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds the dispatcher name to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "orders")
//	enriched.Info("doing work") // includes dispatcher=orders
func EnrichLogger(logger *slog.Logger, dispatcher string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("dispatcher", dispatcher))
}

// LogListenerAdded logs a successful registration and the size of its replay.
func LogListenerAdded(logger *slog.Logger, listenerKey string, replayed int) {
	if logger == nil {
		return
	}
	logger.Debug("listener added",
		slog.String("listener_key", listenerKey),
		slog.Int("replayed", replayed),
	)
}

// LogListenerRejected logs a registration refused because the key is taken.
func LogListenerRejected(logger *slog.Logger, listenerKey string) {
	if logger == nil {
		return
	}
	logger.Warn("listener already registered",
		slog.String("listener_key", listenerKey),
	)
}

// LogListenerRemoved logs a listener removal.
func LogListenerRemoved(logger *slog.Logger, listenerKey string) {
	if logger == nil {
		return
	}
	logger.Debug("listener removed",
		slog.String("listener_key", listenerKey),
	)
}

// LogDispatch logs a completed fan-out.
func LogDispatch(logger *slog.Logger, eventKey string, listeners int, retained bool, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("event_key", eventKey),
		slog.Int("listeners", listeners),
		slog.Bool("retained", retained),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEventRemoved logs the retraction of an event from the replay log.
func LogEventRemoved(logger *slog.Logger, eventKey string, existed bool) {
	if logger == nil {
		return
	}
	logger.Debug("event removed",
		slog.String("event_key", eventKey),
		slog.Bool("existed", existed),
	)
}

// LogDeliveryFailure logs a listener failure that no failure handler took.
func LogDeliveryFailure(logger *slog.Logger, listenerKey string, replay bool, err error) {
	if logger == nil {
		return
	}
	logger.Warn("listener failed",
		slog.String("listener_key", listenerKey),
		slog.Bool("replay", replay),
		slog.String("error", err.Error()),
	)
}

// LogHandlerPanic logs a failure handler that panicked (non-fatal).
func LogHandlerPanic(logger *slog.Logger, listenerKey string, value any) {
	if logger == nil {
		return
	}
	logger.Error("failure handler panicked",
		slog.String("listener_key", listenerKey),
		slog.Any("panic", value),
	)
}

// LogJournalError logs a failure journal operation that failed (non-fatal).
func LogJournalError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("failure journal error",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
