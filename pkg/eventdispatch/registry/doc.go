// Package registry provides an insertion-ordered table of values indexed by key.
//
// Ordered backs the dispatcher's listener registry. Registration order is the
// fan-out order of every dispatch, so the table keeps it explicitly instead of
// relying on map iteration.
//
// # Basic Usage
//
//	r := registry.New[string, *record]()
//	if !r.Register("audit", rec) {
//	    // "audit" was already registered; the existing entry is untouched
//	}
//
//	for _, rec := range r.Values() {
//	    // registration order
//	}
//
// # Thread Safety
//
// Ordered is not safe for concurrent use. Callers serialize access, which lets
// the dispatcher make a registration and its replay snapshot one atomic step.
package registry
