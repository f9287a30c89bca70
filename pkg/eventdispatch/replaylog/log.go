// Package replaylog keeps the most recent event for every key in first-seen
// order.
//
// The dispatcher records each dispatched event here so listeners that
// register later can be caught up. Recording an event whose key is already
// present replaces the stored event but keeps the key's original position.
package replaylog

import "container/list"

// Entry is one key in the log.
type Entry[K comparable, E any] struct {
	Key   K
	Event E
	// Seq is the position at which the key was first recorded. It does not
	// change when the event is replaced.
	Seq uint64
}

// Log is an insertion-ordered, key-addressed event log.
//
// Log is not safe for concurrent use; the dispatcher serializes every call.
type Log[K comparable, E any] struct {
	order   *list.List // of *Entry[K, E]
	index   map[K]*list.Element
	nextSeq uint64
}

// New creates an empty log.
func New[K comparable, E any]() *Log[K, E] {
	return &Log[K, E]{
		order: list.New(),
		index: make(map[K]*list.Element),
	}
}

// Record stores event under key. It returns true if the key was not present
// before.
func (l *Log[K, E]) Record(key K, event E) bool {
	if el, ok := l.index[key]; ok {
		el.Value.(*Entry[K, E]).Event = event
		return false
	}
	l.nextSeq++
	l.index[key] = l.order.PushBack(&Entry[K, E]{Key: key, Event: event, Seq: l.nextSeq})
	return true
}

// Remove deletes key and reports whether it was present.
func (l *Log[K, E]) Remove(key K) bool {
	el, ok := l.index[key]
	if !ok {
		return false
	}
	l.order.Remove(el)
	delete(l.index, key)
	return true
}

// Get returns the event stored under key.
func (l *Log[K, E]) Get(key K) (E, bool) {
	el, ok := l.index[key]
	if !ok {
		var zero E
		return zero, false
	}
	return el.Value.(*Entry[K, E]).Event, true
}

// Len returns the number of keys in the log.
func (l *Log[K, E]) Len() int {
	return len(l.index)
}

// Snapshot returns a copy of every entry in insertion order.
func (l *Log[K, E]) Snapshot() []Entry[K, E] {
	entries := make([]Entry[K, E], 0, len(l.index))
	for el := l.order.Front(); el != nil; el = el.Next() {
		entries = append(entries, *el.Value.(*Entry[K, E]))
	}
	return entries
}

// Events returns the stored events in insertion order.
func (l *Log[K, E]) Events() []E {
	events := make([]E, 0, len(l.index))
	for el := l.order.Front(); el != nil; el = el.Next() {
		events = append(events, el.Value.(*Entry[K, E]).Event)
	}
	return events
}

// Keys returns the stored keys in insertion order.
func (l *Log[K, E]) Keys() []K {
	keys := make([]K, 0, len(l.index))
	for el := l.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*Entry[K, E]).Key)
	}
	return keys
}
