package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"times-table-circuit/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)

	session := domain.Session{Token: "tok-1", Username: "Ada", Mode: domain.ModeSchool}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("ttc:session:tok-1") {
		t.Fatalf("expected redis key to be set")
	}

	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "Ada" || got.Mode != domain.ModeSchool {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("ttc:session:tok-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, err := store.Get(ctx, "tok-1"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	if err := store.Create(ctx, domain.Session{Token: "tok-2", Username: "Bo", Mode: domain.ModeHome}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(30 * time.Second)
	if _, err := store.Get(ctx, "tok-2"); err != nil {
		t.Fatalf("expected session alive: %v", err)
	}
	// Get refreshed the TTL, so another 45s is still inside the window.
	mr.FastForward(45 * time.Second)
	if _, err := store.Get(ctx, "tok-2"); err != nil {
		t.Fatalf("expected refreshed session alive: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "tok-2"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
