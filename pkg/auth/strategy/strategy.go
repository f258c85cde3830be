// Package strategy builds the configured auth.Strategy once at startup.
package strategy

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/auth/basic"
	"github.com/rhuss/warden/pkg/auth/noop"
	"github.com/rhuss/warden/pkg/auth/sessionauth"
	"github.com/rhuss/warden/pkg/session"
	"github.com/rhuss/warden/pkg/session/durable"
	"github.com/rhuss/warden/pkg/session/memory"
	"github.com/rhuss/warden/pkg/storage"
)

// Options carries the collaborators a strategy may need.
type Options struct {
	// SessionName is the session cookie name.
	SessionName string

	// SessionDuration is the session lifetime for session_exp_auth and
	// session_db_auth. Zero never expires.
	SessionDuration time.Duration

	// Users is required by basic_auth and used by session kinds.
	Users auth.UserLookup

	// SessionRecords backs session_db_auth. Required for that kind.
	SessionRecords storage.RecordStore

	// Clock overrides time.Now for session kinds.
	Clock func() time.Time
}

// New returns the strategy for kind. KindNone yields a nil strategy, which
// disables the gate.
func New(kind auth.Kind, opts Options) (auth.Strategy, error) {
	switch kind {
	case auth.KindNone:
		return nil, nil

	case auth.KindAuth:
		return noop.New(opts.SessionName), nil

	case auth.KindBasic:
		if opts.Users == nil {
			return nil, errors.New("basic_auth requires a user repository")
		}
		return basic.New(opts.Users, opts.SessionName), nil

	case auth.KindSession, auth.KindSessionExp, auth.KindSessionDB:
		return newSession(kind, opts)

	default:
		return nil, fmt.Errorf("%w: %q", auth.ErrUnknownKind, kind)
	}
}

func newSession(kind auth.Kind, opts Options) (auth.Strategy, error) {
	if opts.SessionName == "" {
		return nil, fmt.Errorf("%s requires a session cookie name", kind)
	}

	var store session.Store = memory.New()
	if kind == auth.KindSessionDB {
		if opts.SessionRecords == nil {
			return nil, errors.New("session_db_auth requires a session record store")
		}
		store = durable.New(opts.SessionRecords, durable.WithMirror(store))
	}

	var sopts []sessionauth.Option
	if opts.Clock != nil {
		sopts = append(sopts, sessionauth.WithClock(opts.Clock))
	}

	a, err := sessionauth.New(sessionauth.Config{
		Kind:        kind,
		SessionName: opts.SessionName,
		Store:       store,
		Users:       opts.Users,
		Policy:      session.Policy{Duration: opts.SessionDuration},
	}, sopts...)
	if err != nil {
		return nil, err
	}

	slog.Info("session strategy ready",
		"strategy", kind,
		"cookie", opts.SessionName,
		"duration", a.Policy().Duration,
	)
	return a, nil
}
