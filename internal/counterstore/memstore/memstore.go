// Package memstore is an in-memory counterstore.CounterStore used by
// Validator and Sync engine tests, so their logic can be exercised without
// a Postgres instance. It preserves the same I1/I2 semantics as the
// Postgres-backed store.
package memstore

import (
	"context"
	"sync"

	"github.com/timhilliard/yubistack/internal/counter"
	"github.com/timhilliard/yubistack/internal/counterstore"
)

// Store is a mutex-guarded map-backed CounterStore.
type Store struct {
	mu      sync.Mutex
	records map[string]counterstore.Record
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[string]counterstore.Record)}
}

var _ counterstore.CounterStore = (*Store)(nil)

// Get returns the record for publicName, autovivifying it on first
// sighting (I2).
func (s *Store) Get(_ context.Context, publicName string, now int64) (counterstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[publicName]; ok {
		return r, nil
	}
	r := counterstore.Record{
		Active:     true,
		PublicName: publicName,
		YkCounter:  counterstore.Sentinel,
		YkUse:      counterstore.Sentinel,
		YkHigh:     counterstore.Sentinel,
		YkLow:      counterstore.Sentinel,
		Modified:   counterstore.Sentinel,
		Created:    now,
	}
	s.records[publicName] = r
	return r, nil
}

// ConditionalUpdate writes rec iff the stored tuple is strictly less than
// rec's (I1).
func (s *Store) ConditionalUpdate(_ context.Context, rec counterstore.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[rec.PublicName]
	if !ok {
		stored = counterstore.Record{
			PublicName: rec.PublicName,
			YkCounter:  counterstore.Sentinel,
			YkUse:      counterstore.Sentinel,
			YkHigh:     counterstore.Sentinel,
			YkLow:      counterstore.Sentinel,
			Modified:   counterstore.Sentinel,
			Active:     true,
		}
	}
	if !counter.Gt(rec.Tuple(), stored.Tuple()) {
		return false, nil
	}
	// Only the counter/nonce/modified columns are conditionally updated;
	// active and created are untouched, mirroring the Postgres store's
	// UPDATE column list.
	stored.YkCounter = rec.YkCounter
	stored.YkUse = rec.YkUse
	stored.YkHigh = rec.YkHigh
	stored.YkLow = rec.YkLow
	stored.Nonce = rec.Nonce
	stored.Modified = rec.Modified
	s.records[rec.PublicName] = stored
	return true, nil
}

// ListActive enumerates active public_names.
func (s *Store) ListActive(_ context.Context, publicName string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for name, r := range s.records {
		if !r.Active {
			continue
		}
		if publicName != "all" && name != publicName {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// SetActive enables or disables a key (test helper, mirrors Store.SetActive).
func (s *Store) SetActive(publicName string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[publicName]; ok {
		r.Active = active
		s.records[publicName] = r
	}
}

// Peek returns the current record without mutating anything, for test
// assertions.
func (s *Store) Peek(publicName string) (counterstore.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[publicName]
	return r, ok
}
