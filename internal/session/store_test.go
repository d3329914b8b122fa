package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewManager(rdb, time.Hour, 10*time.Minute), mr
}

func TestSessionLifecycle(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	sid, err := manager.Create(ctx, "account-1")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if sid == "" {
		t.Fatalf("empty session id")
	}

	accountID, err := manager.Get(ctx, sid)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if accountID != "account-1" {
		t.Fatalf("expected account-1, got %s", accountID)
	}

	if err := manager.Delete(ctx, sid); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := manager.Get(ctx, sid); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after delete, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	sid, err := manager.Create(ctx, "account-2")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := manager.Get(ctx, sid); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after expiry, got %v", err)
	}
}

func TestPendingMarker(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	sid, err := NewID()
	if err != nil {
		t.Fatalf("id error: %v", err)
	}

	if _, err := manager.Pending(ctx, sid); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no pending marker, got %v", err)
	}
	if err := manager.MarkPending(ctx, sid, "who@example.org"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	email, err := manager.Pending(ctx, sid)
	if err != nil {
		t.Fatalf("pending error: %v", err)
	}
	if email != "who@example.org" {
		t.Fatalf("expected who@example.org, got %s", email)
	}

	// A pending marker never resolves as an authenticated session.
	if _, err := manager.Get(ctx, sid); !errors.Is(err, ErrNoSession) {
		t.Fatalf("pending marker leaked into session namespace: %v", err)
	}

	if err := manager.ClearPending(ctx, sid); err != nil {
		t.Fatalf("clear error: %v", err)
	}
	if _, err := manager.Pending(ctx, sid); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected cleared marker, got %v", err)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sid, err := NewID()
		if err != nil {
			t.Fatalf("id error: %v", err)
		}
		if seen[sid] {
			t.Fatalf("duplicate session id")
		}
		seen[sid] = true
	}
}
