// Package memstore is an in-memory queuestore.QueueStore used by Sync
// engine and Validator tests.
package memstore

import (
	"context"
	"sync"

	"github.com/timhilliard/yubistack/internal/queuestore"
)

type key struct {
	server      string
	modified    int64
	serverNonce string
}

// Store is a mutex-guarded map-backed QueueStore.
type Store struct {
	mu      sync.Mutex
	entries map[key]queuestore.Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[key]queuestore.Entry)}
}

var _ queuestore.QueueStore = (*Store)(nil)

func keyOf(e queuestore.Entry) key {
	return key{server: e.Server, modified: e.Modified, serverNonce: e.ServerNonce}
}

// Enqueue inserts or overwrites a row, with queued left nil.
func (s *Store) Enqueue(_ context.Context, e queuestore.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Queued = nil
	s.entries[keyOf(e)] = e
	return nil
}

// Dequeue returns all rows matching (modified, serverNonce).
func (s *Store) Dequeue(_ context.Context, modified int64, serverNonce string) ([]queuestore.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []queuestore.Entry
	for k, e := range s.entries {
		if k.modified == modified && k.serverNonce == serverNonce {
			out = append(out, e)
		}
	}
	return out, nil
}

// Remove deletes a row.
func (s *Store) Remove(_ context.Context, server string, modified int64, serverNonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key{server: server, modified: modified, serverNonce: serverNonce})
	return nil
}

// NullQueued clears queued for every row in the given batch.
func (s *Store) NullQueued(_ context.Context, serverNonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if k.serverNonce == serverNonce {
			e.Queued = nil
			s.entries[k] = e
		}
	}
	return nil
}

// ListOrphaned returns rows with a nil Queued timestamp.
func (s *Store) ListOrphaned(_ context.Context) ([]queuestore.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []queuestore.Entry
	for _, e := range s.entries {
		if e.Queued == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// MarkQueued sets the Queued timestamp for one row, a test helper
// simulating a dispatch attempt.
func (s *Store) MarkQueued(server string, modified int64, serverNonce string, ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{server: server, modified: modified, serverNonce: serverNonce}
	if e, ok := s.entries[k]; ok {
		e.Queued = &ts
		s.entries[k] = e
	}
}

// Len returns the number of rows currently stored, for test assertions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
