package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/observability"
	"github.com/rhuss/warden/pkg/transport"
)

// Login outcomes for warden_login_attempts_total.
const (
	loginOK            = "ok"
	loginMissingField  = "missing_field"
	loginUnknownEmail  = "unknown_email"
	loginWrongPassword = "wrong_password"
	loginThrottled     = "throttled"
	loginError         = "error"
)

// handleLogin authenticates form credentials and issues a session cookie.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxBodySize)

	email := r.PostFormValue("email")
	if email == "" {
		observability.LoginAttemptsTotal.WithLabelValues(loginMissingField).Inc()
		transport.WriteError(w, http.StatusBadRequest, "email missing")
		return
	}
	password := r.PostFormValue("password")
	if password == "" {
		observability.LoginAttemptsTotal.WithLabelValues(loginMissingField).Inc()
		transport.WriteError(w, http.StatusBadRequest, "password missing")
		return
	}

	if a.cfg.LoginLimiter != nil {
		if err := a.cfg.LoginLimiter.Allow(email); err != nil {
			observability.LoginAttemptsTotal.WithLabelValues(loginThrottled).Inc()
			transport.WriteError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}
	}

	users, err := a.cfg.Users.SearchByEmail(r.Context(), email)
	if err != nil {
		slog.Warn("user search failed", "error", err)
	}
	if err != nil || len(users) == 0 {
		observability.LoginAttemptsTotal.WithLabelValues(loginUnknownEmail).Inc()
		transport.WriteError(w, http.StatusNotFound, "no user found for this email")
		return
	}

	u := users[0]
	if !u.IsValidPassword(password) {
		observability.LoginAttemptsTotal.WithLabelValues(loginWrongPassword).Inc()
		transport.WriteError(w, http.StatusUnauthorized, "wrong password")
		return
	}

	sessionID, err := a.sessions.CreateSession(r.Context(), u.ID)
	if err != nil {
		observability.LoginAttemptsTotal.WithLabelValues(loginError).Inc()
		slog.Error("creating session failed", "user_id", u.ID, "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	observability.LoginAttemptsTotal.WithLabelValues(loginOK).Inc()
	slog.Info("user logged in", "user_id", u.ID, "name", u.DisplayName())
	transport.WriteJSON(w, http.StatusOK, u.ToJSON())
}

// handleLogout destroys the caller's session.
func (a *Adapter) handleLogout(w http.ResponseWriter, r *http.Request) {
	err := a.sessions.DestroySession(r.Context(), r)
	if errors.Is(err, auth.ErrNoSession) {
		transport.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		slog.Error("destroying session failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	transport.WriteJSON(w, http.StatusOK, struct{}{})
}
