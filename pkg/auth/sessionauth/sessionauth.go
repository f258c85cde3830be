// Package sessionauth implements the session-cookie strategies
// (session_auth, session_exp_auth, session_db_auth).
//
// All three share one Authenticator; they differ only in the session.Store
// they are given (memory or durable) and the expiration policy.
package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/debug"
	"github.com/rhuss/warden/pkg/observability"
	"github.com/rhuss/warden/pkg/session"
)

// Config describes a session strategy.
type Config struct {
	// Kind must be one of the session kinds.
	Kind auth.Kind

	// SessionName is the cookie carrying the session id.
	SessionName string

	// Store holds the sessions. Required.
	Store session.Store

	// Users resolves user ids to identities. When nil, CurrentUser returns
	// an identity carrying only the user id.
	Users auth.UserLookup

	// Policy is the expiration policy. Ignored for session_auth.
	Policy session.Policy
}

// Authenticator is a session-cookie strategy.
type Authenticator struct {
	auth.Base

	kind   auth.Kind
	store  session.Store
	users  auth.UserLookup
	policy session.Policy
	now    func() time.Time
}

var _ auth.SessionManager = (*Authenticator)(nil)

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// New creates a session strategy.
func New(cfg Config, opts ...Option) (*Authenticator, error) {
	if !cfg.Kind.IsSession() {
		return nil, fmt.Errorf("%w: %q is not a session strategy", auth.ErrUnknownKind, cfg.Kind)
	}
	if cfg.Store == nil {
		return nil, errors.New("session store is required")
	}

	policy := cfg.Policy
	if cfg.Kind == auth.KindSession {
		policy = session.Policy{}
	}

	a := &Authenticator{
		Base:   auth.Base{SessionName: cfg.SessionName},
		kind:   cfg.Kind,
		store:  cfg.Store,
		users:  cfg.Users,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Kind returns the configured kind.
func (a *Authenticator) Kind() auth.Kind { return a.kind }

// Policy returns the effective expiration policy.
func (a *Authenticator) Policy() session.Policy { return a.policy }

// CreateSession issues a new session id for userID.
func (a *Authenticator) CreateSession(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", auth.ErrInvalidUserID
	}

	s := session.Session{
		ID:        session.NewID(),
		UserID:    userID,
		CreatedAt: a.now(),
	}
	if err := a.store.Put(ctx, s); err != nil {
		observability.StorageErrorsTotal.WithLabelValues(string(a.kind), "put").Inc()
		return "", fmt.Errorf("creating session: %w", err)
	}

	observability.SessionsCreatedTotal.WithLabelValues(string(a.kind)).Inc()
	debug.Log("session", "session created", "user_id", userID, "session", debug.Mask(s.ID))
	return s.ID, nil
}

// UserIDForSessionID resolves sessionID to a user id, or "" when the
// session is unknown or expired. Store failures are logged and treated as
// no session.
func (a *Authenticator) UserIDForSessionID(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		return ""
	}

	matches, err := a.lookup(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		a.countLookup(observability.LookupMiss)
		return ""
	}
	if err != nil {
		a.countLookup(observability.LookupError)
		observability.StorageErrorsTotal.WithLabelValues(string(a.kind), "get").Inc()
		slog.Error("session lookup failed", "strategy", a.kind, "error", err)
		return ""
	}

	now := a.now()
	for _, s := range matches {
		if !a.policy.Expired(s, now) {
			a.countLookup(observability.LookupHit)
			return s.UserID
		}
	}

	a.countLookup(observability.LookupExpired)
	debug.Log("session", "session expired",
		"session", debug.Mask(sessionID),
		"created_at", matches[0].CreatedAt,
		"duration", a.policy.Duration,
	)
	return ""
}

// lookup returns every stored entry for sessionID, oldest first.
func (a *Authenticator) lookup(ctx context.Context, sessionID string) ([]session.Session, error) {
	if ms, ok := a.store.(session.MatchStore); ok {
		return ms.Matches(ctx, sessionID)
	}
	s, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return []session.Session{*s}, nil
}

// CurrentUser resolves the caller from the session cookie.
func (a *Authenticator) CurrentUser(ctx context.Context, r *http.Request) *auth.Identity {
	userID := a.UserIDForSessionID(ctx, a.SessionCookie(r))
	if userID == "" {
		return nil
	}
	if a.users == nil {
		return &auth.Identity{Subject: userID}
	}

	u, err := a.users.Get(ctx, userID)
	if err != nil {
		debug.Log("auth", "session user not found", "user_id", userID, "error", err)
		return nil
	}
	return auth.IdentityFromUser(u)
}

// DestroySession removes the session named by the request cookie. Only a
// currently valid session can be destroyed.
func (a *Authenticator) DestroySession(ctx context.Context, r *http.Request) error {
	if r == nil {
		return auth.ErrNoSession
	}
	sessionID := a.SessionCookie(r)
	if sessionID == "" {
		return auth.ErrNoSession
	}
	if a.UserIDForSessionID(ctx, sessionID) == "" {
		return auth.ErrNoSession
	}

	err := a.store.Remove(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return auth.ErrNoSession
	}
	if err != nil {
		observability.StorageErrorsTotal.WithLabelValues(string(a.kind), "remove").Inc()
		return fmt.Errorf("destroying session: %w", err)
	}

	observability.SessionsDestroyedTotal.WithLabelValues(string(a.kind)).Inc()
	debug.Log("session", "session destroyed", "session", debug.Mask(sessionID))
	return nil
}

func (a *Authenticator) countLookup(result string) {
	observability.SessionLookupsTotal.WithLabelValues(string(a.kind), result).Inc()
}
