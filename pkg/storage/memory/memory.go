// Package memory provides an in-memory implementation of storage.RecordStore
// for testing and lightweight deployments. Records are lost when the process
// restarts; Load and Save are no-ops.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rhuss/warden/pkg/storage"
)

// Store is an in-memory RecordStore.
type Store struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]storage.Record
	now     func() time.Time
}

// Ensure Store implements storage.RecordStore at compile time.
var _ storage.RecordStore = (*Store)(nil)

// New creates an empty in-memory store for records of the given kind.
func New(kind string) *Store {
	return &Store{
		kind:    kind,
		entries: make(map[string]storage.Record),
		now:     time.Now,
	}
}

// Kind returns the record kind.
func (s *Store) Kind() string { return s.kind }

// Load is a no-op: memory is the medium.
func (s *Store) Load(_ context.Context) error { return nil }

// Save is a no-op: memory is the medium.
func (s *Store) Save(_ context.Context) error { return nil }

// Search returns copies of all matching records, oldest first.
func (s *Store) Search(_ context.Context, filter storage.Filter) ([]storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []storage.Record
	for _, rec := range s.entries {
		if filter.Matches(rec) {
			matches = append(matches, rec.Clone())
		}
	}
	storage.SortByCreated(matches)
	return matches, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(_ context.Context, id string) (storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.entries[id]
	if !ok {
		return storage.Record{}, storage.ErrNotFound
	}
	return rec.Clone(), nil
}

// Put inserts or replaces a record.
func (s *Store) Put(_ context.Context, rec storage.Record) error {
	if rec.ID == "" {
		return storage.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[rec.ID]; ok && rec.CreatedAt.IsZero() {
		rec.CreatedAt = prev.CreatedAt
	}
	storage.Stamp(&rec, s.now())
	s.entries[rec.ID] = rec.Clone()
	return nil
}

// Remove deletes a record.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
