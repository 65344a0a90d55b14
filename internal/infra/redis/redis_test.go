//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
)

func TestStateRepo(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	repo := NewStateRepo(cli, 0)

	t.Run("missing key is not found, not an error", func(t *testing.T) {
		_, found, err := repo.GetState(ctx, 100)
		if err != nil || found {
			t.Fatalf("got found=%v err=%v", found, err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		if err := repo.SetState(ctx, 100, model.StateHandleCart); err != nil {
			t.Fatalf("SetState: %v", err)
		}
		got, found, err := repo.GetState(ctx, 100)
		if err != nil || !found || got != model.StateHandleCart {
			t.Fatalf("got %q found=%v err=%v", got, found, err)
		}
		if cli.data["conv_state:100"] != "HANDLE_CART" {
			t.Fatalf("state must be stored as a plain label, got %q", cli.data["conv_state:100"])
		}
		if cli.ttls["conv_state:100"] != 0 {
			t.Fatalf("zero ttl expected, got %v", cli.ttls["conv_state:100"])
		}
	})

	t.Run("unknown label is returned for the dispatcher to reject", func(t *testing.T) {
		cli.data["conv_state:200"] = "LEGACY"
		got, found, err := repo.GetState(ctx, 200)
		if err != nil || !found || got.Valid() {
			t.Fatalf("got %q found=%v err=%v", got, found, err)
		}
	})

	t.Run("backend error propagates", func(t *testing.T) {
		cli.failGet = errors.New("connection refused")
		defer func() { cli.failGet = nil }()
		if _, _, err := repo.GetState(ctx, 100); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	l := NewLocker(cli)
	l.tries, l.backoff = 2, time.Millisecond
	key := "session_lock:100"

	token, err := l.TryLock(ctx, key, time.Second)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if _, err := l.TryLock(ctx, key, time.Second); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("second lock: want ErrSessionBusy, got %v", err)
	}

	// a stale token must not release someone else's lock
	if err := l.Unlock(ctx, key, "stale"); err != nil {
		t.Fatalf("Unlock stale: %v", err)
	}
	if _, ok := cli.data[key]; !ok {
		t.Fatal("lock released by a foreign token")
	}

	if err := l.Unlock(ctx, key, token); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := l.TryLock(ctx, key, time.Second); err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
}

func TestLockerBackendError(t *testing.T) {
	cli := newMemClient()
	cli.failSet = errors.New("READONLY")
	l := NewLocker(cli)
	l.tries, l.backoff = 1, time.Millisecond

	_, err := l.TryLock(context.Background(), "k", time.Second)
	if err == nil || errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("backend failure must not look like contention, got %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	rl := NewRateLimiter(cli)
	key := UserEventKey(777)

	for i := 1; i <= 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key, 3, time.Minute); ok {
		t.Fatal("fourth call must be limited")
	}
	if cli.ttls[key] != time.Minute {
		t.Fatalf("window not set on first hit: %v", cli.ttls[key])
	}
	if ok, err := rl.Allow(ctx, "other", 0, time.Minute); err != nil || !ok {
		t.Fatalf("zero limit disables limiting: ok=%v err=%v", ok, err)
	}
}
