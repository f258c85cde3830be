// Package http serves warden's HTTP API: status and stats endpoints, the
// current-user endpoint and the session login/logout routes, all behind the
// authentication gate.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/observability"
	"github.com/rhuss/warden/pkg/transport"
	"github.com/rhuss/warden/pkg/user"
)

// UserStore is the user collaborator the routes need.
type UserStore interface {
	auth.UserLookup
	Count(ctx context.Context) (int, error)
}

// HealthChecker reports backing store health for /healthz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds the collaborators and settings for the API adapter.
type Config struct {
	// Strategy gates protected routes. Nil disables the gate.
	Strategy auth.Strategy

	// Users backs login, stats and /users/me. Required.
	Users UserStore

	// SessionName is the cookie set on login.
	SessionName string

	// ExcludedPaths are reachable without authentication.
	ExcludedPaths []string

	// LoginLimiter throttles login attempts. Nil disables throttling.
	LoginLimiter auth.LoginLimiter

	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string

	// Health is optional; when set /healthz reports its status.
	Health HealthChecker

	// MaxBodySize bounds request bodies. Default: 1 MB.
	MaxBodySize int64
}

// Adapter routes API requests.
type Adapter struct {
	cfg      Config
	sessions auth.SessionManager // nil unless the strategy issues sessions
	mux      *http.ServeMux
}

// NewAdapter builds the route table. Session routes are mounted only when
// the strategy implements auth.SessionManager.
func NewAdapter(cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	if cfg.ExcludedPaths == nil {
		cfg.ExcludedPaths = auth.DefaultExcludedPaths
	}

	a := &Adapter{cfg: cfg, mux: http.NewServeMux()}
	if sm, ok := cfg.Strategy.(auth.SessionManager); ok {
		a.sessions = sm
	}

	a.handle("GET /api/v1/status", a.handleStatus)
	a.handle("GET /api/v1/stats", a.handleStats)
	a.handle("GET /api/v1/unauthorized", a.handleUnauthorized)
	a.handle("GET /api/v1/forbidden", a.handleForbidden)
	a.handle("GET /api/v1/users/me", a.handleMe)

	if a.sessions != nil {
		a.handle("POST /api/v1/auth_session/login", a.handleLogin)
		a.handle("DELETE /api/v1/auth_session/logout", a.handleLogout)
	}

	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		transport.WriteError(w, http.StatusNotFound, "Not found")
	})

	return a
}

// handle registers pattern with and without a trailing slash.
func (a *Adapter) handle(pattern string, h http.HandlerFunc) {
	a.mux.HandleFunc(pattern, h)
	a.mux.HandleFunc(pattern+"/{$}", h)
}

// Handler returns the full middleware chain around the routes.
func (a *Adapter) Handler() http.Handler {
	return transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(nil),
		observability.MetricsMiddleware,
		auth.Middleware(a.cfg.Strategy, a.cfg.ExcludedPaths),
	)(a.mux)
}

func (a *Adapter) handleStatus(w http.ResponseWriter, _ *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (a *Adapter) handleStats(w http.ResponseWriter, r *http.Request) {
	n, err := a.cfg.Users.Count(r.Context())
	if err != nil {
		slog.Error("counting users failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]int{"users": n})
}

func (a *Adapter) handleUnauthorized(w http.ResponseWriter, _ *http.Request) {
	transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
}

func (a *Adapter) handleForbidden(w http.ResponseWriter, _ *http.Request) {
	transport.WriteError(w, http.StatusForbidden, "Forbidden")
}

func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		transport.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	u, err := a.cfg.Users.Get(r.Context(), id.Subject)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			slog.Error("loading current user failed", "subject", id.Subject, "error", err)
		}
		transport.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	transport.WriteJSON(w, http.StatusOK, u.ToJSON())
}

func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.cfg.Health != nil {
		if err := a.cfg.Health.HealthCheck(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			transport.WriteError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}
