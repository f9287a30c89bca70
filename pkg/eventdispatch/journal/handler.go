package journal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch"
	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/observability"
)

// Handler is an eventdispatch.FailureHandler that appends every failure to a
// Store. Store errors are logged, never returned to the dispatcher.
type Handler[LK comparable, E any] struct {
	store      Store
	dispatcher string
	logger     *slog.Logger
	next       eventdispatch.FailureHandler[LK, E]
	now        func() time.Time
}

// Compile-time interface check.
var _ eventdispatch.FailureHandler[string, int] = (*Handler[string, int])(nil)

// HandlerOption configures a Handler.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	dispatcher string
	logger     *slog.Logger
	now        func() time.Time
}

// WithDispatcherName sets the Dispatcher field of written records.
func WithDispatcherName(name string) HandlerOption {
	return func(o *handlerOptions) {
		o.dispatcher = name
	}
}

// WithLogger sets the logger used for store errors.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(o *handlerOptions) {
		o.logger = logger
	}
}

// withClock overrides the record timestamp source.
func withClock(now func() time.Time) HandlerOption {
	return func(o *handlerOptions) {
		o.now = now
	}
}

// NewHandler creates a Handler writing to store.
func NewHandler[LK comparable, E any](store Store, opts ...HandlerOption) *Handler[LK, E] {
	o := handlerOptions{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Handler[LK, E]{
		store:      store,
		dispatcher: o.dispatcher,
		logger:     o.logger,
		now:        o.now,
	}
}

// Then returns a copy of h that also forwards every failure to next after
// recording it.
func (h *Handler[LK, E]) Then(next eventdispatch.FailureHandler[LK, E]) *Handler[LK, E] {
	c := *h
	c.next = next
	return &c
}

// HandleFailure implements eventdispatch.FailureHandler.
func (h *Handler[LK, E]) HandleFailure(listenerKey LK, event E, err error) {
	rec := Record{
		ID:          uuid.NewString(),
		Dispatcher:  h.dispatcher,
		ListenerKey: fmt.Sprint(listenerKey),
		Event:       fmt.Sprint(event),
		OccurredAt:  h.now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	var pe *eventdispatch.PanicError
	if errors.As(err, &pe) {
		rec.Panic = true
		rec.Stack = pe.Stack
	}

	if appendErr := h.store.Append(rec); appendErr != nil {
		observability.LogJournalError(h.logger, "append", appendErr)
	}

	if h.next != nil {
		h.next.HandleFailure(listenerKey, event, err)
	}
}
