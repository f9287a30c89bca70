package eventdispatch

import "context"

// Policy supplies the event semantics the dispatcher does not interpret
// itself.
//
// E is the event type, K the key events are addressed by and L the listener
// type. Implementations must be safe for concurrent use.
type Policy[E any, K comparable, L any] interface {
	// EventKey derives the key an event is retained and retracted under.
	// Events with equal keys replace each other in the replay log.
	EventKey(event E) K

	// ReplayEvent transforms a retained event into the form delivered to a
	// listener that registered after it was dispatched.
	ReplayEvent(original E) E

	// CallListener delivers event to listener. A returned error or a panic is
	// reported to the FailureHandler and does not affect other listeners.
	//
	// ctx marks the listener locks held by the current delivery. Pass it on
	// to any Dispatcher call made from inside the listener.
	CallListener(ctx context.Context, listener L, event E) error
}

// PolicyFuncs adapts plain functions to the Policy interface.
// ReplayFunc may be nil, in which case replayed events are delivered as-is.
type PolicyFuncs[E any, K comparable, L any] struct {
	KeyFunc    func(event E) K
	ReplayFunc func(original E) E
	CallFunc   func(ctx context.Context, listener L, event E) error
}

// Compile-time interface check.
var _ Policy[int, int, func(int)] = PolicyFuncs[int, int, func(int)]{}

// EventKey implements Policy.
func (p PolicyFuncs[E, K, L]) EventKey(event E) K {
	return p.KeyFunc(event)
}

// ReplayEvent implements Policy.
func (p PolicyFuncs[E, K, L]) ReplayEvent(original E) E {
	if p.ReplayFunc == nil {
		return original
	}
	return p.ReplayFunc(original)
}

// CallListener implements Policy.
func (p PolicyFuncs[E, K, L]) CallListener(ctx context.Context, listener L, event E) error {
	return p.CallFunc(ctx, listener, event)
}

// FailureHandler receives listener failures.
//
// err is the error returned by the listener, or a *PanicError if the
// listener panicked. A panicking handler is logged and otherwise ignored.
type FailureHandler[LK comparable, E any] interface {
	HandleFailure(listenerKey LK, event E, err error)
}

// FailureHandlerFunc adapts a function to the FailureHandler interface.
type FailureHandlerFunc[LK comparable, E any] func(listenerKey LK, event E, err error)

// HandleFailure implements FailureHandler.
func (f FailureHandlerFunc[LK, E]) HandleFailure(listenerKey LK, event E, err error) {
	f(listenerKey, event, err)
}
