package eventdispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/fairlock"
	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/observability"
	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/registry"
	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/replaylog"
)

// listenerRecord is one registration. The lock serializes every delivery to
// the listener; removed is set under the write lock.
type listenerRecord[LK comparable, L any] struct {
	key      LK
	listener L
	lock     fairlock.RWMutex
	removed  atomic.Bool
}

// Stats is a point-in-time view of dispatcher counters.
type Stats struct {
	// Dispatched counts DispatchEvent and DispatchAndRemoveEvent calls.
	Dispatched uint64
	// Deliveries counts live listener invocations.
	Deliveries uint64
	// Replays counts replayed listener invocations.
	Replays uint64
	// Failures counts invocations that returned an error or panicked.
	Failures uint64
	// HandlerPanics counts failure handler calls that panicked.
	HandlerPanics uint64
}

// Dispatcher delivers events to registered listeners and replays retained
// events to listeners that register later.
//
// E is the event type, K the event key, LK the listener key and L the
// listener type. A Dispatcher is safe for concurrent use. All work happens
// on the calling goroutine.
type Dispatcher[E any, K comparable, LK comparable, L any] struct {
	policy  Policy[E, K, L]
	handler FailureHandler[LK, E]
	opts    options

	// mu guards listeners, events and closed. It is never held while a
	// listener runs.
	mu        sync.Mutex
	listeners *registry.Ordered[LK, *listenerRecord[LK, L]]
	events    *replaylog.Log[K, E]
	closed    bool

	dispatched    atomic.Uint64
	deliveries    atomic.Uint64
	replays       atomic.Uint64
	failures      atomic.Uint64
	handlerPanics atomic.Uint64
}

// New creates a dispatcher. handler may be nil, in which case listener
// failures are logged and dropped. New panics if policy is nil.
func New[E any, K comparable, LK comparable, L any](
	policy Policy[E, K, L],
	handler FailureHandler[LK, E],
	opts ...Option,
) *Dispatcher[E, K, LK, L] {
	if policy == nil {
		panic("eventdispatch: nil policy")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.resolve()

	return &Dispatcher[E, K, LK, L]{
		policy:    policy,
		handler:   handler,
		opts:      o,
		listeners: registry.New[LK, *listenerRecord[LK, L]](),
		events:    replaylog.New[K, E](),
	}
}

// Name returns the dispatcher name used in logs, metrics and spans.
func (d *Dispatcher[E, K, LK, L]) Name() string {
	return d.opts.name
}

// AddListener registers listener under listenerKey and replays every
// retained event to it, transformed by Policy.ReplayEvent, in the order the
// events were first dispatched.
//
// Replay completes before the listener receives any live event. An event
// dispatched concurrently with AddListener reaches the listener exactly
// once: either in the replay or live afterwards.
//
// Returns a *ListenerAlreadyRegisteredError if listenerKey is taken, or
// ErrDispatcherClosed after Close.
func (d *Dispatcher[E, K, LK, L]) AddListener(ctx context.Context, listenerKey LK, listener L) (err error) {
	keyStr := formatKey(listenerKey)
	ctx, span := d.opts.spans.StartAddListenerSpan(ctx, d.opts.name, keyStr)
	defer func() {
		d.opts.spans.EndSpanWithError(span, err)
	}()

	rec := &listenerRecord[LK, L]{key: listenerKey, listener: listener}
	// Taken before the record is visible, so live deliveries queue behind
	// the replay.
	rec.lock.Lock()
	defer rec.lock.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	if !d.listeners.Register(listenerKey, rec) {
		d.mu.Unlock()
		observability.LogListenerRejected(d.opts.logger, keyStr)
		return &ListenerAlreadyRegisteredError{Key: listenerKey}
	}
	snapshot := d.events.Snapshot()
	d.mu.Unlock()

	d.opts.metrics.RecordListeners(ctx, 1)

	replayCtx := withHeld(ctx, &rec.lock)
	replayed := 0
	for _, entry := range snapshot {
		if rec.removed.Load() {
			break
		}
		d.replay(replayCtx, rec, entry.Event)
		replayed++
	}

	d.opts.spans.AddSpanEvent(ctx, "replay.complete", attribute.Int("replayed", replayed))
	observability.LogListenerAdded(d.opts.logger, keyStr, replayed)
	return nil
}

// RemoveListener unregisters listenerKey. It returns false if the key was not
// registered. Once RemoveListener returns the listener receives no further
// events; a delivery in progress on another goroutine completes first.
func (d *Dispatcher[E, K, LK, L]) RemoveListener(ctx context.Context, listenerKey LK) bool {
	d.mu.Lock()
	rec, ok := d.listeners.Unregister(listenerKey)
	d.mu.Unlock()
	if !ok {
		return false
	}

	d.retire(ctx, rec)
	d.opts.metrics.RecordListeners(ctx, -1)
	observability.LogListenerRemoved(d.opts.logger, formatKey(listenerKey))
	return true
}

// DispatchEvent delivers event to every registered listener in registration
// order and retains it for replay under Policy.EventKey(event), replacing any
// event retained under the same key.
func (d *Dispatcher[E, K, LK, L]) DispatchEvent(ctx context.Context, event E) {
	d.dispatch(ctx, event, true)
}

// DispatchAndRemoveEvent delivers event like DispatchEvent but removes its
// key from the replay log, so later listeners do not see it.
func (d *Dispatcher[E, K, LK, L]) DispatchAndRemoveEvent(ctx context.Context, event E) {
	d.dispatch(ctx, event, false)
}

// RemoveEvent removes the event retained under Policy.EventKey(event) and
// reports whether one was retained. No listener is notified.
func (d *Dispatcher[E, K, LK, L]) RemoveEvent(ctx context.Context, event E) bool {
	key := d.policy.EventKey(event)

	d.mu.Lock()
	existed := d.events.Remove(key)
	d.mu.Unlock()

	if existed {
		d.opts.metrics.RecordPending(ctx, -1)
	}
	observability.LogEventRemoved(d.opts.logger, formatKey(key), existed)
	return existed
}

// Close unregisters every listener, waiting for deliveries in progress.
// AddListener fails with ErrDispatcherClosed afterwards; dispatches still
// maintain the replay log. Close must not be called from inside a listener.
func (d *Dispatcher[E, K, LK, L]) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	recs := d.listeners.Clear()
	d.mu.Unlock()

	ctx := context.Background()
	for _, rec := range recs {
		d.retire(ctx, rec)
	}
	if len(recs) > 0 {
		d.opts.metrics.RecordListeners(ctx, -int64(len(recs)))
	}
	return nil
}

// ListenerCount returns the number of registered listeners.
func (d *Dispatcher[E, K, LK, L]) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listeners.Len()
}

// HasListener reports whether listenerKey is registered.
func (d *Dispatcher[E, K, LK, L]) HasListener(listenerKey LK) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listeners.Has(listenerKey)
}

// ListenerKeys returns the registered listener keys in registration order.
func (d *Dispatcher[E, K, LK, L]) ListenerKeys() []LK {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listeners.Keys()
}

// PendingEvents returns the retained events in replay order.
func (d *Dispatcher[E, K, LK, L]) PendingEvents() []E {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events.Events()
}

// PendingCount returns the number of retained events.
func (d *Dispatcher[E, K, LK, L]) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events.Len()
}

// Stats returns the dispatcher counters.
// Counters are read individually, so values may be slightly inconsistent
// while dispatches are running.
func (d *Dispatcher[E, K, LK, L]) Stats() Stats {
	return Stats{
		Dispatched:    d.dispatched.Load(),
		Deliveries:    d.deliveries.Load(),
		Replays:       d.replays.Load(),
		Failures:      d.failures.Load(),
		HandlerPanics: d.handlerPanics.Load(),
	}
}

// dispatch updates the replay log and fans event out. The log update and the
// listener snapshot happen in one critical section; that is what makes a
// concurrent registration see the event either in its replay or live.
func (d *Dispatcher[E, K, LK, L]) dispatch(ctx context.Context, event E, retain bool) {
	key := d.policy.EventKey(event)
	keyStr := formatKey(key)
	done := observability.TimedOperation()

	ctx, span := d.opts.spans.StartDispatchSpan(ctx, d.opts.name, keyStr, retain)
	defer d.opts.spans.EndSpanWithError(span, nil)

	var pendingDelta int64
	d.mu.Lock()
	if retain {
		if d.events.Record(key, event) {
			pendingDelta = 1
		}
	} else if d.events.Remove(key) {
		pendingDelta = -1
	}
	recs := d.listeners.Values()
	d.mu.Unlock()

	if pendingDelta != 0 {
		d.opts.metrics.RecordPending(ctx, pendingDelta)
	}

	for _, rec := range recs {
		d.deliverLive(ctx, rec, event)
	}

	d.dispatched.Add(1)
	d.opts.metrics.RecordDispatch(ctx, retain, len(recs))
	observability.LogDispatch(d.opts.logger, keyStr, len(recs), retain, done())
}

// deliverLive invokes one listener under its lock, skipping it if it was
// removed after the fan-out snapshot was taken.
func (d *Dispatcher[E, K, LK, L]) deliverLive(ctx context.Context, rec *listenerRecord[LK, L], event E) {
	if !holds(ctx, &rec.lock) {
		if d.opts.sharedDelivery {
			rec.lock.RLock()
			defer rec.lock.RUnlock()
		} else {
			rec.lock.Lock()
			defer rec.lock.Unlock()
		}
		ctx = withHeld(ctx, &rec.lock)
	}
	if rec.removed.Load() {
		return
	}

	start := time.Now()
	err := guard(func() error {
		return d.policy.CallListener(ctx, rec.listener, event)
	})
	d.deliveries.Add(1)
	d.opts.metrics.RecordDelivery(ctx, false, time.Since(start), err)
	if err != nil {
		d.reportFailure(rec.key, event, false, err)
	}
}

// replay transforms a retained event and invokes the listener with it. The
// caller holds the record's write lock.
func (d *Dispatcher[E, K, LK, L]) replay(ctx context.Context, rec *listenerRecord[LK, L], original E) {
	reported := original
	start := time.Now()
	err := guard(func() error {
		replayed := d.policy.ReplayEvent(original)
		reported = replayed
		return d.policy.CallListener(ctx, rec.listener, replayed)
	})
	d.replays.Add(1)
	d.opts.metrics.RecordDelivery(ctx, true, time.Since(start), err)
	if err != nil {
		d.reportFailure(rec.key, reported, true, err)
	}
}

// retire marks a detached record removed once no delivery holds its lock.
// A delivery chain that already holds the lock marks it directly.
func (d *Dispatcher[E, K, LK, L]) retire(ctx context.Context, rec *listenerRecord[LK, L]) {
	if holds(ctx, &rec.lock) {
		rec.removed.Store(true)
		return
	}
	rec.lock.Lock()
	rec.removed.Store(true)
	rec.lock.Unlock()
}

// reportFailure routes a listener failure to the failure handler, or to the
// log when there is none. Nothing escapes: a panicking handler is logged.
func (d *Dispatcher[E, K, LK, L]) reportFailure(listenerKey LK, event E, replay bool, err error) {
	d.failures.Add(1)

	if d.handler == nil {
		observability.LogDeliveryFailure(d.opts.logger, formatKey(listenerKey), replay, err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.handlerPanics.Add(1)
			observability.LogHandlerPanic(d.opts.logger, formatKey(listenerKey), r)
		}
	}()
	d.handler.HandleFailure(listenerKey, event, err)
}

// guard runs fn and converts a panic into a *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

// formatKey renders a key for logs and spans.
func formatKey(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}

