package journal

import "sync"

// MemoryStore is an in-memory failure journal.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	ids     map[string]struct{}
	closed  bool
}

// NewMemoryStore creates a new in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if _, ok := m.ids[rec.ID]; ok {
		return ErrDuplicateID
	}
	m.ids[rec.ID] = struct{}{}
	m.records = append(m.records, rec)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(limit int) ([]Record, error) {
	return m.filter(limit, func(Record) bool { return true })
}

// ListByListener implements Store.
func (m *MemoryStore) ListByListener(listenerKey string, limit int) ([]Record, error) {
	return m.filter(limit, func(r Record) bool { return r.ListenerKey == listenerKey })
}

func (m *MemoryStore) filter(limit int, keep func(Record) bool) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []Record
	for _, r := range m.records {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if _, ok := m.ids[id]; !ok {
		return nil
	}
	delete(m.ids, id)
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			break
		}
	}
	return nil
}

// Count implements Store.
func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return len(m.records), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	m.ids = nil
	return nil
}
