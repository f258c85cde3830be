// Package basic implements HTTP Basic authentication against the user
// repository. Each step of credential decoding is exported on its own.
package basic

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/debug"
	"github.com/rhuss/warden/pkg/user"
)

const prefix = "Basic "

// Authenticator resolves callers from an "Authorization: Basic" header.
type Authenticator struct {
	auth.Base
	users auth.UserLookup
}

var _ auth.Strategy = (*Authenticator)(nil)

// New creates a Basic strategy. users must not be nil.
func New(users auth.UserLookup, sessionName string) *Authenticator {
	return &Authenticator{
		Base:  auth.Base{SessionName: sessionName},
		users: users,
	}
}

// Kind returns auth.KindBasic.
func (a *Authenticator) Kind() auth.Kind { return auth.KindBasic }

// ExtractBase64 returns the encoded part of a Basic Authorization header,
// or "" if the header is not a Basic one.
func ExtractBase64(header string) string {
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return header[len(prefix):]
}

// DecodeBase64 decodes a standard base64 value that must hold valid UTF-8.
// Returns "" on any failure.
func DecodeBase64(value string) string {
	if value == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil || !utf8.Valid(raw) {
		return ""
	}
	return string(raw)
}

// ExtractCredentials splits "email:password" at the first colon, so the
// password may itself contain colons.
func ExtractCredentials(decoded string) (email, password string, ok bool) {
	email, password, ok = strings.Cut(decoded, ":")
	if !ok {
		return "", "", false
	}
	return email, password, true
}

// UserFromCredentials returns the user registered with email if password
// matches, or nil. Lookup failures count as no match.
func (a *Authenticator) UserFromCredentials(ctx context.Context, email, password string) *user.User {
	if a.users == nil || email == "" || password == "" {
		return nil
	}
	users, err := a.users.SearchByEmail(ctx, email)
	if err != nil {
		debug.Log("auth", "user search failed", "error", err)
		return nil
	}
	if len(users) == 0 {
		return nil
	}
	if !users[0].IsValidPassword(password) {
		return nil
	}
	return users[0]
}

// CurrentUser runs the full Basic pipeline for r.
func (a *Authenticator) CurrentUser(ctx context.Context, r *http.Request) *auth.Identity {
	encoded := ExtractBase64(a.AuthorizationHeader(r))
	decoded := DecodeBase64(encoded)
	email, password, ok := ExtractCredentials(decoded)
	if !ok {
		return nil
	}
	return auth.IdentityFromUser(a.UserFromCredentials(ctx, email, password))
}
