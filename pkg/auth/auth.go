package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rhuss/warden/pkg/user"
)

// Identity represents an authenticated caller.
type Identity struct {
	// Subject is the user identifier (required, non-empty).
	Subject string

	// Email is the user's login email, when known.
	Email string

	// Metadata carries strategy-specific data.
	Metadata map[string]string
}

// IdentityFromUser builds the Identity for a resolved user record.
func IdentityFromUser(u *user.User) *Identity {
	if u == nil || u.ID == "" {
		return nil
	}
	return &Identity{
		Subject: u.ID,
		Email:   u.Email,
		Metadata: map[string]string{
			"first_name": u.FirstName,
			"last_name":  u.LastName,
		},
	}
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("Unauthorized")
	ErrForbidden       = errors.New("Forbidden")
	ErrNoSession       = errors.New("no session to destroy")
	ErrInvalidUserID   = errors.New("invalid user id")
	ErrTooManyRequests = errors.New("too many login attempts")
	ErrUnknownKind     = errors.New("unknown auth type")
)

// Kind names a strategy variant. Values match the AUTH_TYPE setting.
type Kind string

const (
	KindNone       Kind = "none"
	KindAuth       Kind = "auth"
	KindBasic      Kind = "basic_auth"
	KindSession    Kind = "session_auth"
	KindSessionExp Kind = "session_exp_auth"
	KindSessionDB  Kind = "session_db_auth"
)

// Kinds lists every valid kind.
var Kinds = []Kind{KindNone, KindAuth, KindBasic, KindSession, KindSessionExp, KindSessionDB}

// ParseKind validates an AUTH_TYPE value. Empty means KindNone.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return KindNone, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// IsSession reports whether the kind issues sessions.
func (k Kind) IsSession() bool {
	return k == KindSession || k == KindSessionExp || k == KindSessionDB
}

func (k Kind) String() string { return string(k) }

// Strategy is an authentication variant.
type Strategy interface {
	// Kind identifies the variant.
	Kind() Kind

	// RequireAuth reports whether path needs authentication.
	RequireAuth(path string, excluded []string) bool

	// AuthorizationHeader returns the raw Authorization header or "".
	AuthorizationHeader(r *http.Request) string

	// SessionCookie returns the configured session cookie value or "".
	SessionCookie(r *http.Request) string

	// CurrentUser resolves the caller, or nil when unidentified.
	// Never fails on untrusted input.
	CurrentUser(ctx context.Context, r *http.Request) *Identity
}

// SessionManager is implemented by session-issuing strategies.
type SessionManager interface {
	Strategy

	// CreateSession issues a new session for userID.
	// Returns ErrInvalidUserID when userID is empty.
	CreateSession(ctx context.Context, userID string) (string, error)

	// UserIDForSessionID resolves a session id. "" means no valid session.
	UserIDForSessionID(ctx context.Context, sessionID string) string

	// DestroySession removes the session named by the request's cookie.
	// Returns ErrNoSession when there is nothing to destroy.
	DestroySession(ctx context.Context, r *http.Request) error
}

// UserLookup is the user-record collaborator.
type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, error)
	SearchByEmail(ctx context.Context, email string) ([]*user.User, error)
}

// Base carries the behavior shared by every strategy. Variants embed it.
type Base struct {
	// SessionName is the cookie that carries the session id.
	SessionName string
}

// RequireAuth delegates to RequiresAuth.
func (b Base) RequireAuth(path string, excluded []string) bool {
	return RequiresAuth(path, excluded)
}

// AuthorizationHeader delegates to the package-level extractor.
func (b Base) AuthorizationHeader(r *http.Request) string {
	return AuthorizationHeader(r)
}

// SessionCookie reads the cookie named by SessionName.
func (b Base) SessionCookie(r *http.Request) string {
	return SessionCookie(r, b.SessionName)
}
