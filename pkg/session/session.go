// Package session defines the session model, the Store interface shared by
// the in-memory and durable backends, and the expiration policy.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id is unknown to a store.
var ErrNotFound = errors.New("session not found")

// Session binds an opaque id to a user id at a point in time.
// Sessions are immutable once created; they are only ever removed.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds sessions keyed by id.
type Store interface {
	// Put stores s, replacing any session with the same id.
	Put(ctx context.Context, s Session) error

	// Get returns the session with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Remove deletes the session with the given id or returns ErrNotFound.
	Remove(ctx context.Context, id string) error

	// All returns every stored session, oldest first.
	All(ctx context.Context) ([]Session, error)
}

// MatchStore is a Store that can hold several records under one id, as the
// durable backend does. Matches returns them oldest first, or ErrNotFound.
type MatchStore interface {
	Store
	Matches(ctx context.Context, id string) ([]Session, error)
}

// NewID returns a fresh random (v4) session id.
func NewID() string {
	return uuid.New().String()
}

// Policy decides whether a session is still usable.
type Policy struct {
	// Duration is the session lifetime. Zero or negative never expires.
	Duration time.Duration
}

// Expired reports whether s is expired at now.
// A session is valid while now < CreatedAt+Duration.
func (p Policy) Expired(s Session, now time.Time) bool {
	if p.Duration <= 0 {
		return false
	}
	return !now.Before(s.CreatedAt.Add(p.Duration))
}

// ParseDuration converts a SESSION_DURATION value (integer seconds) into a
// duration. Anything that is not a non-negative integer yields 0 with
// defaulted set, so the caller can log the fallback.
func ParseDuration(raw string) (d time.Duration, defaulted bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs < 0 {
		return 0, true
	}
	return time.Duration(secs) * time.Second, false
}
