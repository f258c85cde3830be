// Package noop provides the null strategy: paths are classified and
// credentials extracted, but no caller is ever identified.
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/warden/pkg/auth"
)

// Authenticator never resolves a user.
type Authenticator struct {
	auth.Base
}

var _ auth.Strategy = (*Authenticator)(nil)

// New creates a null strategy reading the given session cookie name.
func New(sessionName string) *Authenticator {
	return &Authenticator{Base: auth.Base{SessionName: sessionName}}
}

// Kind returns auth.KindAuth.
func (a *Authenticator) Kind() auth.Kind { return auth.KindAuth }

// CurrentUser always returns nil.
func (a *Authenticator) CurrentUser(_ context.Context, _ *http.Request) *auth.Identity {
	return nil
}
