package eventdispatch

import (
	"context"
	"sync"
)

// Test helpers shared across the package tests.

// sink is a test listener that records every event it receives.
type sink struct {
	name string

	mu     sync.Mutex
	events []int

	// onEvent, if set, runs after the event is recorded.
	onEvent func(ctx context.Context, e int) error
}

func newSink(name string) *sink {
	return &sink{name: name}
}

func (s *sink) receive(ctx context.Context, e int) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	if s.onEvent != nil {
		return s.onEvent(ctx, e)
	}
	return nil
}

// Events returns a copy of the received events.
func (s *sink) Events() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.events))
	copy(out, s.events)
	return out
}

type testDispatcher = Dispatcher[int, int, string, *sink]

func abs(e int) int {
	if e < 0 {
		return -e
	}
	return e
}

// negatePolicy keys events by absolute value and negates replayed events,
// so a test can tell replayed deliveries from live ones.
func negatePolicy() PolicyFuncs[int, int, *sink] {
	return PolicyFuncs[int, int, *sink]{
		KeyFunc:    abs,
		ReplayFunc: func(e int) int { return -e },
		CallFunc: func(ctx context.Context, s *sink, e int) error {
			return s.receive(ctx, e)
		},
	}
}

// newTestDispatcher creates a dispatcher with negatePolicy and logging
// disabled. Later options override.
func newTestDispatcher(handler FailureHandler[string, int], opts ...Option) *testDispatcher {
	all := append([]Option{WithLogger(nil), WithName("test")}, opts...)
	return New[int, int, string, *sink](negatePolicy(), handler, all...)
}

// failure is one call received by a failureLog.
type failure struct {
	listenerKey string
	event       int
	err         error
}

// failureLog is a FailureHandler that records its calls.
type failureLog struct {
	mu    sync.Mutex
	calls []failure
}

func (f *failureLog) HandleFailure(listenerKey string, event int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, failure{listenerKey: listenerKey, event: event, err: err})
}

func (f *failureLog) Calls() []failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]failure, len(f.calls))
	copy(out, f.calls)
	return out
}

// recordFor returns the registration record for key.
func recordFor(d *testDispatcher, key string) *listenerRecord[string, *sink] {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, _ := d.listeners.Get(key)
	return rec
}
