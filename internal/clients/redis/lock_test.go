package redis

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestTryLockRejectsBadInput(t *testing.T) {
	var nilLocker *Locker
	if _, ok, err := nilLocker.TryLock(context.Background(), "sweep", time.Second); err == nil || ok {
		t.Fatalf("nil locker: want error, got ok=%v err=%v", ok, err)
	}

	l := NewLocker(nil, nil)
	if _, _, err := l.TryLock(context.Background(), "sweep", time.Second); err == nil {
		t.Fatalf("locker without client: want error")
	}
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestTryLockExcludesSecondHolder(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, addr)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewLocker(rdb, nil)
	name := "test-" + time.Now().Format(time.RFC3339Nano)

	release, ok, err := l.TryLock(ctx, name, 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("first TryLock: ok=%v err=%v", ok, err)
	}
	if _, ok, err := l.TryLock(ctx, name, 5*time.Second); err != nil || ok {
		t.Fatalf("second TryLock: want ok=false got ok=%v err=%v", ok, err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	release2, ok, err := l.TryLock(ctx, name, 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("TryLock after release: ok=%v err=%v", ok, err)
	}
	_ = release2(ctx)
}
