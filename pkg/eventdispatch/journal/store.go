// Package journal records listener failures for later inspection.
//
// A Handler plugs into a dispatcher as its FailureHandler and appends one
// Record per failed delivery to a Store. MemoryStore suits tests and
// short-lived processes; SQLiteStore keeps the journal on disk.
//
// The journal holds failures, not events: it is never read back into a
// dispatcher.
package journal

import (
	"errors"
	"time"
)

// Record describes one failed listener invocation.
type Record struct {
	ID          string
	Dispatcher  string
	ListenerKey string
	Event       string
	Error       string
	Panic       bool
	Stack       string
	OccurredAt  time.Time
}

// Store persists failure records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a record. Records with a duplicate ID are rejected.
	Append(rec Record) error

	// List returns up to limit records, oldest first. A limit <= 0 means no
	// limit.
	List(limit int) ([]Record, error)

	// ListByListener returns up to limit records for one listener key,
	// oldest first.
	ListByListener(listenerKey string, limit int) ([]Record, error)

	// Delete removes a record. Returns nil if it doesn't exist.
	Delete(id string) error

	// Count returns the number of stored records.
	Count() (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrDuplicateID indicates a record with the same ID is already stored.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
