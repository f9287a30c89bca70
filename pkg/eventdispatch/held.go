package eventdispatch

import (
	"context"

	"github.com/randalmurphal/eventdispatch/pkg/eventdispatch/fairlock"
)

// heldKey is the context key under which the listener locks held by the
// current delivery chain are stored.
type heldKey struct{}

// heldLock is an immutable stack of locks, newest first.
type heldLock struct {
	lock *fairlock.RWMutex
	next *heldLock
}

// holds reports whether lock is held by the delivery chain carried in ctx.
func holds(ctx context.Context, lock *fairlock.RWMutex) bool {
	h, _ := ctx.Value(heldKey{}).(*heldLock)
	for ; h != nil; h = h.next {
		if h.lock == lock {
			return true
		}
	}
	return false
}

// withHeld returns a context recording that lock is held.
func withHeld(ctx context.Context, lock *fairlock.RWMutex) context.Context {
	parent, _ := ctx.Value(heldKey{}).(*heldLock)
	return context.WithValue(ctx, heldKey{}, &heldLock{lock: lock, next: parent})
}
