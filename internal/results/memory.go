package results

import "fmt"

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store for tests. It enforces the same
// one-record-per-signal invariant as FileStore but persists nothing.
type MemoryStore struct {
	records []Record
	seen    map[string]struct{}
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// Contains reports whether the signal already has a score.
func (s *MemoryStore) Contains(signal string) bool {
	_, ok := s.seen[signal]
	return ok
}

// Append adds one record.
func (s *MemoryStore) Append(rec Record) error {
	if s.Contains(rec.Signal) {
		return fmt.Errorf("%w: %s", ErrDuplicateSignal, rec.Signal)
	}
	s.records = append(s.records, rec)
	s.seen[rec.Signal] = struct{}{}
	return nil
}

// Records returns the appended records in order.
func (s *MemoryStore) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *MemoryStore) Len() int {
	return len(s.records)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
