package auth

import "testing"

func TestRequiresAuth(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excluded []string
		want     bool
	}{
		{"empty excluded", "/api/v1/status", nil, true},
		{"empty excluded slice", "/anything", []string{}, true},
		{"empty path", "", []string{"/api/v1/status/"}, true},
		{"exact with slash", "/api/v1/status/", []string{"/api/v1/status/"}, false},
		{"exact without slash", "/api/v1/status", []string{"/api/v1/status/"}, false},
		{"pattern without slash", "/api/v1/status/", []string{"/api/v1/status"}, false},
		{"wildcard does not match other path", "/api/v1/users", []string{"/api/v1/stat*"}, true},
		{"wildcard matches sub path", "/api/v1/stat/x", []string{"/api/v1/stat*"}, false},
		{"wildcard matches longer segment", "/api/v1/stats", []string{"/api/v1/stat*"}, false},
		{"wildcard is prefix not substring", "/x/api/v1/stat", []string{"/api/v1/stat*"}, true},
		{"exact does not match child", "/api/v1/status/deep", []string{"/api/v1/status/"}, true},
		{"later pattern matches", "/api/v1/forbidden", []string{"/api/v1/status/", "/api/v1/forbidden/"}, false},
		{"empty pattern ignored", "/api/v1/users", []string{""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiresAuth(tt.path, tt.excluded); got != tt.want {
				t.Errorf("RequiresAuth(%q, %q) = %v, want %v", tt.path, tt.excluded, got, tt.want)
			}
		})
	}
}

// Regression scenarios for prefix matching, pinned.
func TestRequiresAuth_Regression(t *testing.T) {
	if RequiresAuth("/api/v1/status/", []string{"/api/v1/status/"}) {
		t.Error(`"/api/v1/status/" should be exempt`)
	}
	if !RequiresAuth("/api/v1/users", []string{"/api/v1/stat*"}) {
		t.Error(`"/api/v1/users" should require auth`)
	}
	if RequiresAuth("/api/v1/stat/x", []string{"/api/v1/stat*"}) {
		t.Error(`"/api/v1/stat/x" should be exempt`)
	}
}

func TestRequiresAuth_EmptyExcludedAlwaysTrue(t *testing.T) {
	for _, p := range []string{"", "/", "/api/v1/status/", "/healthz", "relative"} {
		if !RequiresAuth(p, nil) {
			t.Errorf("RequiresAuth(%q, nil) = false", p)
		}
	}
}
