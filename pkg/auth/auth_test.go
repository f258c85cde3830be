package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/rhuss/warden/pkg/user"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindNone, false},
		{"none", KindNone, false},
		{"auth", KindAuth, false},
		{"basic_auth", KindBasic, false},
		{" session_auth ", KindSession, false},
		{"session_exp_auth", KindSessionExp, false},
		{"session_db_auth", KindSessionDB, false},
		{"jwt", "", true},
		{"Session_Auth", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownKind) {
				t.Errorf("err = %v, want ErrUnknownKind", err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKind_IsSession(t *testing.T) {
	for _, k := range []Kind{KindSession, KindSessionExp, KindSessionDB} {
		if !k.IsSession() {
			t.Errorf("%s should be a session kind", k)
		}
	}
	for _, k := range []Kind{KindNone, KindAuth, KindBasic} {
		if k.IsSession() {
			t.Errorf("%s should not be a session kind", k)
		}
	}
}

func TestIdentityFromUser(t *testing.T) {
	if IdentityFromUser(nil) != nil {
		t.Error("nil user should give nil identity")
	}
	if IdentityFromUser(&user.User{}) != nil {
		t.Error("user without id should give nil identity")
	}

	id := IdentityFromUser(&user.User{ID: "u1", Email: "a@b.c", FirstName: "Ada"})
	if id.Subject != "u1" || id.Email != "a@b.c" || id.Metadata["first_name"] != "Ada" {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil {
		t.Error("expected nil identity in empty context")
	}

	ctx = SetIdentity(ctx, &Identity{Subject: "alice"})
	if got := IdentityFromContext(ctx); got == nil || got.Subject != "alice" {
		t.Errorf("IdentityFromContext = %+v", got)
	}
}
