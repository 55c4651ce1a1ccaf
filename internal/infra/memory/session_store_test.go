package memory

import (
	"context"
	"testing"

	"times-table-circuit/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if err := store.Create(ctx, domain.Session{Token: "t1", Username: "Ada", Mode: domain.ModeHome}); err != nil {
		t.Fatalf("create: %v", err)
	}
	session, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("expected session present: %v", err)
	}
	if session.Username != "Ada" {
		t.Fatalf("expected Ada, got %q", session.Username)
	}

	if err := store.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "t1"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session removed, got %v", err)
	}
}
