// Package fairlock provides a read/write lock that admits waiters in
// arrival order.
//
// sync.RWMutex only prevents writer starvation; it makes no promise about
// the order in which blocked goroutines are woken. The dispatcher relies on
// FIFO admission to give each listener a well-defined delivery order, so it
// uses RWMutex from this package instead.
//
// Admission rules:
//   - A writer is admitted when no reader or writer holds the lock and no
//     waiter is queued ahead of it.
//   - A reader is admitted when no writer holds the lock and no waiter is
//     queued ahead of it. Consecutive queued readers are admitted together.
//
// The zero value is an unlocked lock. A RWMutex must not be copied after
// first use.
package fairlock

import "sync"

// waiter is a goroutine parked in the admission queue.
type waiter struct {
	write bool
	ready chan struct{}
}

// RWMutex is a fair reader/writer mutual exclusion lock.
type RWMutex struct {
	mu      sync.Mutex
	readers int
	writer  bool
	queue   []*waiter
}

// Lock acquires the lock for writing, blocking until every goroutine that
// arrived earlier has been admitted and released its hold.
func (m *RWMutex) Lock() {
	m.mu.Lock()
	if !m.writer && m.readers == 0 && len(m.queue) == 0 {
		m.writer = true
		m.mu.Unlock()
		return
	}
	w := &waiter{write: true, ready: make(chan struct{})}
	m.queue = append(m.queue, w)
	m.mu.Unlock()
	<-w.ready
}

// TryLock acquires the write lock only if it is immediately available.
func (m *RWMutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer || m.readers > 0 || len(m.queue) > 0 {
		return false
	}
	m.writer = true
	return true
}

// Unlock releases a write hold and admits the next waiters.
func (m *RWMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.writer {
		panic("fairlock: Unlock of unlocked RWMutex")
	}
	m.writer = false
	m.admit()
}

// RLock acquires the lock for reading. A reader never overtakes a queued
// writer.
func (m *RWMutex) RLock() {
	m.mu.Lock()
	if !m.writer && len(m.queue) == 0 {
		m.readers++
		m.mu.Unlock()
		return
	}
	w := &waiter{ready: make(chan struct{})}
	m.queue = append(m.queue, w)
	m.mu.Unlock()
	<-w.ready
}

// TryRLock acquires a read hold only if it is immediately available.
func (m *RWMutex) TryRLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer || len(m.queue) > 0 {
		return false
	}
	m.readers++
	return true
}

// RUnlock releases one read hold.
func (m *RWMutex) RUnlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readers <= 0 {
		panic("fairlock: RUnlock of unlocked RWMutex")
	}
	m.readers--
	if m.readers == 0 {
		m.admit()
	}
}

// Waiting returns the number of goroutines queued for the lock.
func (m *RWMutex) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// admit hands the lock to the head of the queue. Must be called with mu held.
func (m *RWMutex) admit() {
	for len(m.queue) > 0 {
		w := m.queue[0]
		if w.write {
			if m.writer || m.readers > 0 {
				return
			}
			m.writer = true
			m.pop()
			close(w.ready)
			return
		}
		if m.writer {
			return
		}
		m.readers++
		m.pop()
		close(w.ready)
	}
}

func (m *RWMutex) pop() {
	m.queue[0] = nil
	m.queue = m.queue[1:]
}
