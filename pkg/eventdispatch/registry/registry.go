package registry

// Ordered is a keyed table that remembers registration order.
//
// Ordered is not safe for concurrent use. The dispatcher guards it with the
// same mutex that guards the replay log so that a registration and its replay
// snapshot form one atomic step.
type Ordered[K comparable, V any] struct {
	entries map[K]*slot[V]
	order   []K
	nextSeq uint64
}

type slot[V any] struct {
	value V
	seq   uint64
}

// New creates a new empty registry.
func New[K comparable, V any]() *Ordered[K, V] {
	return &Ordered[K, V]{
		entries: make(map[K]*slot[V]),
	}
}

// Register adds value under key. It returns false and leaves the existing
// entry untouched if key is already registered.
func (r *Ordered[K, V]) Register(key K, value V) bool {
	if _, ok := r.entries[key]; ok {
		return false
	}
	r.nextSeq++
	r.entries[key] = &slot[V]{value: value, seq: r.nextSeq}
	r.order = append(r.order, key)
	return true
}

// Unregister removes key and returns the value it held.
func (r *Ordered[K, V]) Unregister(key K) (V, bool) {
	s, ok := r.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s.value, true
}

// Get returns the value for a key and whether it exists.
func (r *Ordered[K, V]) Get(key K) (V, bool) {
	s, ok := r.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return s.value, true
}

// Has returns true if the key is registered.
func (r *Ordered[K, V]) Has(key K) bool {
	_, ok := r.entries[key]
	return ok
}

// Seq returns the registration sequence number of key, starting at 1.
// Sequence numbers are never reused, so a key registered again after removal
// gets a larger number.
func (r *Ordered[K, V]) Seq(key K) (uint64, bool) {
	s, ok := r.entries[key]
	if !ok {
		return 0, false
	}
	return s.seq, true
}

// Len returns the number of registered entries.
func (r *Ordered[K, V]) Len() int {
	return len(r.entries)
}

// Keys returns the registered keys in registration order.
func (r *Ordered[K, V]) Keys() []K {
	keys := make([]K, len(r.order))
	copy(keys, r.order)
	return keys
}

// Values returns the registered values in registration order. The slice is a
// snapshot; later registrations do not affect it.
func (r *Ordered[K, V]) Values() []V {
	values := make([]V, 0, len(r.order))
	for _, k := range r.order {
		values = append(values, r.entries[k].value)
	}
	return values
}

// Range calls fn for each entry in registration order until fn returns false.
// fn must not modify the registry.
func (r *Ordered[K, V]) Range(fn func(K, V) bool) {
	for _, k := range r.order {
		if !fn(k, r.entries[k].value) {
			return
		}
	}
}

// Clear removes every entry and returns the removed values in registration
// order.
func (r *Ordered[K, V]) Clear() []V {
	values := r.Values()
	r.entries = make(map[K]*slot[V])
	r.order = nil
	return values
}
