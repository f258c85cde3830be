package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rhuss/warden/pkg/debug"
	"github.com/rhuss/warden/pkg/observability"
)

// Decision is the outcome of the gate for one request.
type Decision int

const (
	// Exempt means no authentication was required.
	Exempt Decision = iota

	// Challenged means no credential was offered (401).
	Challenged

	// Denied means a credential was offered but did not resolve (403).
	Denied

	// Attached means the caller was identified.
	Attached
)

func (d Decision) String() string {
	switch d {
	case Exempt:
		return observability.DecisionExempt
	case Challenged:
		return observability.DecisionChallenged
	case Denied:
		return observability.DecisionDenied
	case Attached:
		return observability.DecisionAttached
	default:
		return "unknown"
	}
}

// Err returns the sentinel for a rejecting decision, nil otherwise.
func (d Decision) Err() error {
	switch d {
	case Challenged:
		return ErrUnauthenticated
	case Denied:
		return ErrForbidden
	default:
		return nil
	}
}

// StatusCode returns the HTTP status for a rejecting decision, 0 otherwise.
func (d Decision) StatusCode() int {
	switch d {
	case Challenged:
		return http.StatusUnauthorized
	case Denied:
		return http.StatusForbidden
	default:
		return 0
	}
}

// DefaultExcludedPaths are reachable without authentication.
var DefaultExcludedPaths = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/api/v1/auth_session/login/",
	"/healthz",
	"/metrics",
}

// Evaluate runs the gate state machine once. The identity is non-nil only
// for Attached. A nil strategy disables the gate.
func Evaluate(s Strategy, r *http.Request, excluded []string) (Decision, *Identity) {
	if s == nil || !s.RequireAuth(r.URL.Path, excluded) {
		return Exempt, nil
	}
	if s.AuthorizationHeader(r) == "" && s.SessionCookie(r) == "" {
		return Challenged, nil
	}
	id := s.CurrentUser(r.Context(), r)
	if id == nil {
		return Denied, nil
	}
	return Attached, id
}

// Middleware gates requests with the given strategy and exemption list.
func Middleware(s Strategy, excluded []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, id := Evaluate(s, r, excluded)
			observability.AuthDecisionsTotal.WithLabelValues(decision.String()).Inc()

			switch decision {
			case Challenged:
				slog.Warn("authentication required",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeError(w, decision)
				return
			case Denied:
				slog.Warn("access denied",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"strategy", s.Kind(),
				)
				writeError(w, decision)
				return
			case Attached:
				debug.Log("auth", "identity attached",
					"subject", id.Subject,
					"path", r.URL.Path,
				)
				r = r.WithContext(SetIdentity(r.Context(), id))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError renders a rejecting decision as {"error": "<sentinel>"}.
func writeError(w http.ResponseWriter, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(d.StatusCode())
	json.NewEncoder(w).Encode(map[string]string{"error": d.Err().Error()})
}
