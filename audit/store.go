package audit

import (
	"context"
	"sync"
)

// Store persists audit entries in append order.
type Store interface {
	// Append adds an entry to the end of the trail.
	Append(ctx context.Context, e Entry) error
	// List returns every entry in append order.
	List(ctx context.Context) ([]Entry, error)
	// ByJob returns the entries tagged with a workload identifier.
	ByJob(ctx context.Context, jobID string) ([]Entry, error)
	// ByTransaction returns the entries tagged with a Beckn transaction identifier.
	ByTransaction(ctx context.Context, txnID string) ([]Entry, error)
}

// MemoryStore is a volatile Store keeping entries in a process local slice.
// It is safe for concurrent access and best suited for tests and single-shot
// demo runs. Returned slices are copies to prevent external mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore constructs an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...), nil
}

// ByJob implements Store.
func (s *MemoryStore) ByJob(_ context.Context, jobID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ByTransaction implements Store.
func (s *MemoryStore) ByTransaction(_ context.Context, txnID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.TransactionID == txnID {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
