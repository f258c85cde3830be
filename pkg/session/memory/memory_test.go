package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rhuss/warden/pkg/session"
)

func TestStore_PutGetRemove(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	if err := s.Put(ctx, session.Session{ID: "a", UserID: "u1", CreatedAt: now}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "u1" || !got.CreatedAt.Equal(now) {
		t.Errorf("Get = %+v", got)
	}

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get after remove: err = %v, want ErrNotFound", err)
	}
	if err := s.Remove(ctx, "a"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("second Remove: err = %v, want ErrNotFound", err)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Put(ctx, session.Session{ID: "a", UserID: "u1"})

	got, _ := s.Get(ctx, "a")
	got.UserID = "mutated"

	again, _ := s.Get(ctx, "a")
	if again.UserID != "u1" {
		t.Errorf("store was mutated through returned pointer: %q", again.UserID)
	}
}

func TestStore_AllOrdered(t *testing.T) {
	s := New()
	ctx := context.Background()
	t0 := time.Now()
	s.Put(ctx, session.Session{ID: "late", CreatedAt: t0.Add(time.Minute)})
	s.Put(ctx, session.Session{ID: "early", CreatedAt: t0})

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all[0].ID != "early" || all[1].ID != "late" {
		t.Errorf("All = %+v", all)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%d", i)
			s.Put(ctx, session.Session{ID: id, UserID: "u"})
			s.Get(ctx, id)
			s.All(ctx)
		}(i)
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}
