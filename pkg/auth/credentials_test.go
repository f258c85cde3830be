package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthorizationHeader(t *testing.T) {
	if got := AuthorizationHeader(nil); got != "" {
		t.Errorf("nil request: got %q", got)
	}

	r := httptest.NewRequest("GET", "/", nil)
	if got := AuthorizationHeader(r); got != "" {
		t.Errorf("missing header: got %q", got)
	}

	r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	if got := AuthorizationHeader(r); got != "Basic Zm9vOmJhcg==" {
		t.Errorf("got %q", got)
	}
}

func TestSessionCookie(t *testing.T) {
	if got := SessionCookie(nil, "_my_session_id"); got != "" {
		t.Errorf("nil request: got %q", got)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "_my_session_id", Value: "abc"})

	if got := SessionCookie(r, ""); got != "" {
		t.Errorf("empty name: got %q", got)
	}
	if got := SessionCookie(r, "other"); got != "" {
		t.Errorf("absent cookie: got %q", got)
	}
	if got := SessionCookie(r, "_my_session_id"); got != "abc" {
		t.Errorf("got %q, want abc", got)
	}
}

func TestBase_DelegatesToExtractors(t *testing.T) {
	b := Base{SessionName: "sid"}
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer x")
	r.AddCookie(&http.Cookie{Name: "sid", Value: "v"})

	if b.AuthorizationHeader(r) != "Bearer x" {
		t.Error("AuthorizationHeader not delegated")
	}
	if b.SessionCookie(r) != "v" {
		t.Error("SessionCookie not delegated")
	}
	if b.RequireAuth("/api/v1/status", []string{"/api/v1/status/"}) {
		t.Error("RequireAuth not delegated")
	}
}
