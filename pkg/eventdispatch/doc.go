/*
Package eventdispatch provides an event dispatcher that replays retained
events to late listeners.

# Overview

A Dispatcher fans events out to registered listeners and keeps the most
recent event for every event key in a replay log. A listener registered
later first receives every retained event, transformed by the policy's
replay function, in the order the keys were first dispatched. Only then
does it receive live events.

Events dispatched while a listener is being registered reach it exactly
once: either in its replay or live afterwards, never both and never
neither.

# Basic Usage

Describe the event semantics with a Policy, then register listeners and
dispatch:

	type Listener func(int)

	policy := eventdispatch.PolicyFuncs[int, int, Listener]{
	    KeyFunc:    func(e int) int { return abs(e) },
	    ReplayFunc: func(e int) int { return -e },
	    CallFunc: func(ctx context.Context, l Listener, e int) error {
	        l(e)
	        return nil
	    },
	}

	d := eventdispatch.New[int, int, string, Listener](policy, nil)

	d.DispatchEvent(ctx, 1)
	d.DispatchEvent(ctx, 2)
	d.RemoveEvent(ctx, 2)

	_ = d.AddListener(ctx, "printer", func(e int) { fmt.Println(e) }) // -1
	d.DispatchEvent(ctx, 3)                                          // 3

# Retaining and Retracting

  - DispatchEvent delivers the event and retains it under its key,
    replacing any earlier event with the same key. A replaced key keeps
    its original replay position.
  - DispatchAndRemoveEvent delivers the event and drops its key from the
    replay log.
  - RemoveEvent drops the key without notifying anyone.

# Failures

A listener error or panic never reaches the dispatching goroutine and
never stops delivery to other listeners. It is passed to the
FailureHandler given to New; with no handler it is logged. Panics arrive
as *PanicError. The journal subpackage provides a handler that persists
failures.

# Reentrancy

Listeners may call back into the dispatcher. Pass the ctx given to
Policy.CallListener on to those calls: it records which listener locks
the current delivery holds, so a nested dispatch to the same listener
runs immediately instead of deadlocking.

	CallFunc: func(ctx context.Context, l Listener, e int) error {
	    if e == 1 {
	        d.DispatchEvent(ctx, 2) // delivered to l before this call returns
	    }
	    return nil
	}

# Observability

Logging uses log/slog, metrics and tracing use OpenTelemetry:

	d := eventdispatch.New(policy, nil,
	    eventdispatch.WithName("orders"),
	    eventdispatch.WithLogger(logger),
	    eventdispatch.WithMetrics(observability.NewMetricsRecorder("orders")),
	    eventdispatch.WithTracing(observability.NewSpanManager()),
	)

Settings loaded by the config subpackage can be applied with WithSettings.

# Thread Safety

A Dispatcher is safe for concurrent use. Deliveries run on the calling
goroutine. Each listener has a fair lock, so deliveries to one listener
never overlap (unless WithSharedDelivery is set) and are admitted in
arrival order.
*/
package eventdispatch
