package sessionauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/session"
	"github.com/rhuss/warden/pkg/session/durable"
	"github.com/rhuss/warden/pkg/session/memory"
	"github.com/rhuss/warden/pkg/storage"
	"github.com/rhuss/warden/pkg/storage/file"
	storagemem "github.com/rhuss/warden/pkg/storage/memory"
	"github.com/rhuss/warden/pkg/user"
)

const cookieName = "_my_session_id"

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newAuth(t *testing.T, kind auth.Kind, d time.Duration, clock *fakeClock) *Authenticator {
	t.Helper()
	opts := []Option{}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	a, err := New(Config{
		Kind:        kind,
		SessionName: cookieName,
		Store:       memory.New(),
		Policy:      session.Policy{Duration: d},
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: cookieName, Value: value})
	}
	return r
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Kind: auth.KindBasic, Store: memory.New()}); !errors.Is(err, auth.ErrUnknownKind) {
		t.Errorf("non-session kind: err = %v", err)
	}
	if _, err := New(Config{Kind: auth.KindSession}); err == nil {
		t.Error("missing store should fail")
	}
}

func TestNew_SessionAuthIgnoresDuration(t *testing.T) {
	a := newAuth(t, auth.KindSession, time.Minute, nil)
	if a.Policy().Duration != 0 {
		t.Errorf("session_auth duration = %v, want 0", a.Policy().Duration)
	}
	b := newAuth(t, auth.KindSessionExp, time.Minute, nil)
	if b.Policy().Duration != time.Minute {
		t.Errorf("session_exp_auth duration = %v, want 1m", b.Policy().Duration)
	}
}

func TestCreateSession_InvalidUserID(t *testing.T) {
	a := newAuth(t, auth.KindSession, 0, nil)
	id, err := a.CreateSession(context.Background(), "")
	if !errors.Is(err, auth.ErrInvalidUserID) {
		t.Errorf("err = %v, want ErrInvalidUserID", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}

func TestCreateSession_Unique(t *testing.T) {
	a := newAuth(t, auth.KindSession, 0, nil)
	ctx := context.Background()

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id, err := a.CreateSession(ctx, "u1")
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}

func TestRoundTrip(t *testing.T) {
	for _, kind := range []auth.Kind{auth.KindSession, auth.KindSessionExp} {
		t.Run(string(kind), func(t *testing.T) {
			a := newAuth(t, kind, time.Minute, nil)
			ctx := context.Background()

			id, err := a.CreateSession(ctx, "u42")
			if err != nil {
				t.Fatalf("CreateSession: %v", err)
			}
			if got := a.UserIDForSessionID(ctx, id); got != "u42" {
				t.Errorf("UserIDForSessionID = %q, want u42", got)
			}
			if got := a.UserIDForSessionID(ctx, ""); got != "" {
				t.Errorf("empty id resolved to %q", got)
			}
			if got := a.UserIDForSessionID(ctx, "unknown"); got != "" {
				t.Errorf("unknown id resolved to %q", got)
			}
		})
	}
}

func TestExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	a := newAuth(t, auth.KindSessionExp, 60*time.Second, clock)
	ctx := context.Background()

	id, _ := a.CreateSession(ctx, "u1")

	clock.Advance(60*time.Second - time.Nanosecond)
	if got := a.UserIDForSessionID(ctx, id); got != "u1" {
		t.Errorf("just before expiry: got %q, want u1", got)
	}

	clock.Advance(time.Nanosecond)
	if got := a.UserIDForSessionID(ctx, id); got != "" {
		t.Errorf("at expiry: got %q, want empty", got)
	}

	clock.Advance(time.Hour)
	if got := a.UserIDForSessionID(ctx, id); got != "" {
		t.Errorf("after expiry: got %q, want empty", got)
	}
}

func TestZeroDurationNeverExpires(t *testing.T) {
	clock := newFakeClock()
	a := newAuth(t, auth.KindSessionExp, 0, clock)
	ctx := context.Background()

	id, _ := a.CreateSession(ctx, "u1")
	clock.Advance(10 * 365 * 24 * time.Hour)

	if got := a.UserIDForSessionID(ctx, id); got != "u1" {
		t.Errorf("got %q, want u1", got)
	}
}

func TestDestroySession_Twice(t *testing.T) {
	a := newAuth(t, auth.KindSession, 0, nil)
	ctx := context.Background()
	id, _ := a.CreateSession(ctx, "u1")

	if err := a.DestroySession(ctx, requestWithCookie(id)); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := a.DestroySession(ctx, requestWithCookie(id)); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("second destroy: err = %v, want ErrNoSession", err)
	}
	if got := a.UserIDForSessionID(ctx, id); got != "" {
		t.Errorf("destroyed session still resolves to %q", got)
	}
}

func TestDestroySession_NoCookie(t *testing.T) {
	a := newAuth(t, auth.KindSession, 0, nil)
	ctx := context.Background()

	if err := a.DestroySession(ctx, nil); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("nil request: err = %v", err)
	}
	if err := a.DestroySession(ctx, requestWithCookie("")); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("no cookie: err = %v", err)
	}
	if err := a.DestroySession(ctx, requestWithCookie("unknown")); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("unknown cookie: err = %v", err)
	}
}

func TestDestroySession_Expired(t *testing.T) {
	clock := newFakeClock()
	a := newAuth(t, auth.KindSessionExp, time.Minute, clock)
	ctx := context.Background()
	id, _ := a.CreateSession(ctx, "u1")

	clock.Advance(2 * time.Minute)
	if err := a.DestroySession(ctx, requestWithCookie(id)); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(storagemem.New(user.Kind))
	u, err := repo.Create(ctx, user.NewUser{Email: "bob@hbtn.io", Password: "pw"})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	a, err := New(Config{Kind: auth.KindSession, SessionName: cookieName, Store: memory.New(), Users: repo})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, _ := a.CreateSession(ctx, u.ID)
	got := a.CurrentUser(ctx, requestWithCookie(id))
	if got == nil || got.Subject != u.ID || got.Email != "bob@hbtn.io" {
		t.Errorf("CurrentUser = %+v", got)
	}

	// Session pointing at a deleted or unknown user.
	orphan, _ := a.CreateSession(ctx, "ghost")
	if got := a.CurrentUser(ctx, requestWithCookie(orphan)); got != nil {
		t.Errorf("orphan session resolved to %+v", got)
	}

	if got := a.CurrentUser(ctx, requestWithCookie("")); got != nil {
		t.Errorf("no cookie resolved to %+v", got)
	}
}

func TestCurrentUser_WithoutUserLookup(t *testing.T) {
	a := newAuth(t, auth.KindSession, 0, nil)
	ctx := context.Background()
	id, _ := a.CreateSession(ctx, "u1")

	got := a.CurrentUser(ctx, requestWithCookie(id))
	if got == nil || got.Subject != "u1" {
		t.Errorf("CurrentUser = %+v", got)
	}
}

func newDurableAuth(t *testing.T, dir string, d time.Duration, clock *fakeClock) *Authenticator {
	t.Helper()
	records, err := file.New(context.Background(), dir, durable.Kind)
	if err != nil {
		t.Fatalf("opening records: %v", err)
	}
	a, err := New(Config{
		Kind:        auth.KindSessionDB,
		SessionName: cookieName,
		Store:       durable.New(records, durable.WithMirror(memory.New())),
		Policy:      session.Policy{Duration: d},
	}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestDurable_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := newFakeClock()

	first := newDurableAuth(t, dir, time.Hour, clock)
	old, err := first.CreateSession(ctx, "u-old")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	clock.Advance(30 * time.Minute)
	fresh, err := first.CreateSession(ctx, "u-fresh")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// Restart: new store instance over the same medium, 45 minutes later.
	clock.Advance(45 * time.Minute)
	second := newDurableAuth(t, dir, time.Hour, clock)

	if got := second.UserIDForSessionID(ctx, fresh); got != "u-fresh" {
		t.Errorf("fresh session: got %q, want u-fresh", got)
	}
	if got := second.UserIDForSessionID(ctx, old); got != "" {
		t.Errorf("expired session: got %q, want empty", got)
	}
}

func TestDurable_DestroyTwice(t *testing.T) {
	ctx := context.Background()
	a := newDurableAuth(t, t.TempDir(), 0, newFakeClock())

	id, _ := a.CreateSession(ctx, "u1")
	if err := a.DestroySession(ctx, requestWithCookie(id)); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := a.DestroySession(ctx, requestWithCookie(id)); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("second destroy: err = %v, want ErrNoSession", err)
	}
}

func TestDurable_LookupFailureIsNoSession(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	records, err := file.New(ctx, dir, durable.Kind)
	if err != nil {
		t.Fatalf("opening records: %v", err)
	}
	a, err := New(Config{Kind: auth.KindSessionDB, SessionName: cookieName, Store: durable.New(records)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, _ := a.CreateSession(ctx, "u1")

	if err := os.WriteFile(records.Path(), []byte("corrupt"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := a.UserIDForSessionID(ctx, id); got != "" {
		t.Errorf("got %q, want empty on load failure", got)
	}
}

func TestDurable_FirstUnexpiredMatchWins(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	records := storagemem.New(durable.Kind)

	put := func(id, userID string, created time.Time) {
		t.Helper()
		err := records.Put(ctx, storage.Record{
			ID:        id,
			Fields:    map[string]string{"session_id": "sid", "user_id": userID},
			CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("seeding record: %v", err)
		}
	}
	put("r1", "stale", clock.Now().Add(-2*time.Hour))
	put("r2", "fresh", clock.Now().Add(-time.Minute))

	a, err := New(Config{
		Kind:        auth.KindSessionDB,
		SessionName: cookieName,
		Store:       durable.New(records),
		Policy:      session.Policy{Duration: time.Hour},
	}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := a.UserIDForSessionID(ctx, "sid"); got != "fresh" {
		t.Errorf("got %q, want the unexpired match %q", got, "fresh")
	}

	clock.Advance(time.Hour)
	if got := a.UserIDForSessionID(ctx, "sid"); got != "" {
		t.Errorf("got %q once every match expired, want empty", got)
	}
}

func TestConcurrentSessions(t *testing.T) {
	a := newAuth(t, auth.KindSessionExp, time.Hour, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.CreateSession(ctx, "u1")
			if err != nil {
				errs <- err
				return
			}
			if a.UserIDForSessionID(ctx, id) != "u1" {
				errs <- errors.New("lookup mismatch")
				return
			}
			if err := a.DestroySession(ctx, requestWithCookie(id)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
