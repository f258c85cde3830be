// Package memory provides a process-local session.Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rhuss/warden/pkg/session"
)

// Store keeps sessions in a map guarded by a RWMutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

var _ session.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{sessions: make(map[string]session.Session)}
}

// Put stores s.
func (s *Store) Put(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

// Remove deletes the session with the given id.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return session.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// All returns every session, oldest first.
func (s *Store) All(_ context.Context) ([]session.Session, error) {
	s.mu.RLock()
	out := make([]session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
