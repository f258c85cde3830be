// Package file provides a storage.RecordStore persisted as a JSON document
// on the local filesystem, one file per record kind (".db_<Kind>.json").
//
// Mutations change an in-memory working set. Save writes the whole set to
// disk atomically (temp file + rename); Load replaces the working set with
// the file's content. A missing file loads as an empty set.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rhuss/warden/pkg/storage"
)

// Store is a file-backed RecordStore.
type Store struct {
	kind    string
	path    string
	mu      sync.RWMutex
	entries map[string]storage.Record
	now     func() time.Time
}

// Ensure Store implements storage.RecordStore at compile time.
var _ storage.RecordStore = (*Store)(nil)

// New creates a store for records of the given kind under dir and loads any
// existing file. The directory is created if missing.
func New(ctx context.Context, dir, kind string) (*Store, error) {
	if kind == "" {
		return nil, fmt.Errorf("record kind is required")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}

	s := &Store{
		kind:    kind,
		path:    filepath.Join(dir, ".db_"+kind+".json"),
		entries: make(map[string]storage.Record),
		now:     time.Now,
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Kind returns the record kind.
func (s *Store) Kind() string { return s.kind }

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load replaces the working set with the content of the backing file.
func (s *Store) Load(_ context.Context) error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.entries = make(map[string]storage.Record)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	entries := make(map[string]storage.Record)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing %s: %w", s.path, err)
		}
	}
	for id, rec := range entries {
		if rec.ID == "" {
			rec.ID = id
			entries[id] = rec
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	slog.Debug("records loaded", "kind", s.kind, "count", len(entries), "path", s.path)
	return nil
}

// Save writes the working set to the backing file.
func (s *Store) Save(_ context.Context) error {
	s.mu.RLock()
	data, err := json.Marshal(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding %s records: %w", s.kind, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-"+s.kind+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Search returns matching records from the working set, oldest first.
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

// Get returns a record from the working set.
func (s *Store) Get(_ context.Context, id string) (storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.entries[id]
	if !ok {
		return storage.Record{}, storage.ErrNotFound
	}
	return rec.Clone(), nil
}

// Put inserts or replaces a record in the working set.
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

// Remove deletes a record from the working set.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// Count returns the size of the working set.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op; unsaved changes are not flushed.
func (s *Store) Close() error {
	return nil
}
