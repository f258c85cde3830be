// Package durable provides a session.Store persisted through a
// storage.RecordStore, so sessions survive process restarts.
//
// Every read reloads the working set from the medium and every mutation is
// flushed immediately. Writes are optionally mirrored into a secondary
// session.Store (normally the in-memory one). The mirror has its own lock;
// no I/O happens while it is held.
package durable

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rhuss/warden/pkg/debug"
	"github.com/rhuss/warden/pkg/session"
	"github.com/rhuss/warden/pkg/storage"
)

// Kind is the record kind used for session records.
const Kind = "UserSession"

const (
	fieldUserID    = "user_id"
	fieldSessionID = "session_id"
)

// Store is a durable session.Store.
type Store struct {
	records storage.RecordStore
	mirror  session.Store

	mu sync.Mutex
}

var _ session.MatchStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithMirror mirrors Put and Remove into m.
func WithMirror(m session.Store) Option {
	return func(s *Store) { s.mirror = m }
}

// New creates a durable store over records.
func New(records storage.RecordStore, opts ...Option) *Store {
	s := &Store{records: records}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put persists the session as a new record and flushes, then mirrors it.
// Nothing is mirrored when the flush fails.
func (s *Store) Put(ctx context.Context, sess session.Session) error {
	rec := storage.Record{
		ID: uuid.NewString(),
		Fields: map[string]string{
			fieldUserID:    sess.UserID,
			fieldSessionID: sess.ID,
		},
		CreatedAt: sess.CreatedAt,
	}

	if err := s.persist(ctx, rec); err != nil {
		return err
	}
	debug.Log("session", "session persisted", "session", debug.Mask(sess.ID), "store", s.records.Kind())

	if s.mirror != nil {
		if err := s.mirror.Put(ctx, sess); err != nil {
			return fmt.Errorf("mirroring session: %w", err)
		}
	}
	return nil
}

func (s *Store) persist(ctx context.Context, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reload first so a flush does not drop records written by another instance.
	if err := s.records.Load(ctx); err != nil {
		return fmt.Errorf("loading session records: %w", err)
	}
	if err := s.records.Put(ctx, rec); err != nil {
		return fmt.Errorf("storing session record: %w", err)
	}
	if err := s.records.Save(ctx); err != nil {
		return fmt.Errorf("flushing session records: %w", err)
	}
	return nil
}

// Get reloads the medium and returns the oldest record matching id.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	matches, err := s.Matches(ctx, id)
	if err != nil {
		return nil, err
	}
	return &matches[0], nil
}

// Matches reloads the medium and returns every record matching id, oldest
// first.
func (s *Store) Matches(ctx context.Context, id string) ([]session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.search(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, session.ErrNotFound
	}
	out := make([]session.Session, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

// Remove deletes every record matching id and flushes.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	recs, err := s.search(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if len(recs) == 0 {
		s.mu.Unlock()
		return session.ErrNotFound
	}
	for _, rec := range recs {
		if err := s.records.Remove(ctx, rec.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.mu.Unlock()
			return fmt.Errorf("removing session record: %w", err)
		}
	}
	err = s.records.Save(ctx)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("flushing session records: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Remove(ctx, id); err != nil && !errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("unmirroring session: %w", err)
		}
	}
	return nil
}

// All reloads the medium and returns every session, oldest first.
func (s *Store) All(ctx context.Context) ([]session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.records.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading session records: %w", err)
	}
	recs, err := s.records.Search(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing session records: %w", err)
	}
	out := make([]session.Session, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

// search must be called with s.mu held.
func (s *Store) search(ctx context.Context, id string) ([]storage.Record, error) {
	if id == "" {
		return nil, nil
	}
	if err := s.records.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading session records: %w", err)
	}
	recs, err := s.records.Search(ctx, storage.Filter{fieldSessionID: id})
	if err != nil {
		return nil, fmt.Errorf("searching session records: %w", err)
	}
	return recs, nil
}

func fromRecord(rec storage.Record) session.Session {
	return session.Session{
		ID:        rec.Get(fieldSessionID),
		UserID:    rec.Get(fieldUserID),
		CreatedAt: rec.CreatedAt,
	}
}
