package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClientForTest(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func TestRedisLimiterAllowsWithinLimit(t *testing.T) {
	_, client := newRedisClientForTest(t)
	l := NewRedisLimiter(client, "test")
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		res, err := l.Increment(ctx, "login", "10.0.0.1", 3, time.Minute)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if !res.Allowed || res.Count != i {
			t.Fatalf("attempt %d: %+v", i, res)
		}
	}

	res, err := l.Increment(ctx, "login", "10.0.0.1", 3, time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if res.Allowed {
		t.Fatal("fourth attempt should be denied")
	}
	if res.Count != 4 {
		t.Fatalf("denied attempt still counts: count = %d", res.Count)
	}
}

func TestRedisLimiterSetsExpiryOnce(t *testing.T) {
	server, client := newRedisClientForTest(t)
	l := NewRedisLimiter(client, "test")
	ctx := context.Background()

	if _, err := l.Increment(ctx, "login", "10.0.0.1", 5, time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}

	key := "test:ratelimit:login:10.0.0.1"
	first := server.TTL(key)
	if first <= 0 {
		t.Fatalf("counter must carry a ttl, got %v", first)
	}

	server.FastForward(30 * time.Second)
	if _, err := l.Increment(ctx, "login", "10.0.0.1", 5, time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got := server.TTL(key); got > first-30*time.Second {
		t.Fatalf("second increment must not extend the window: ttl = %v", got)
	}
}

func TestRedisLimiterWindowResets(t *testing.T) {
	server, client := newRedisClientForTest(t)
	l := NewRedisLimiter(client, "test")
	ctx := context.Background()

	if _, err := l.Increment(ctx, "login", "10.0.0.1", 1, time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}
	res, err := l.Increment(ctx, "login", "10.0.0.1", 1, time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if res.Allowed {
		t.Fatal("second attempt within window should be denied")
	}

	server.FastForward(61 * time.Second)

	res, err = l.Increment(ctx, "login", "10.0.0.1", 1, time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !res.Allowed || res.Count != 1 {
		t.Fatalf("expected a fresh window after expiry, got %+v", res)
	}
}

func TestRedisLimiterRepairsMissingExpiry(t *testing.T) {
	server, client := newRedisClientForTest(t)
	l := NewRedisLimiter(client, "test")
	ctx := context.Background()

	key := "test:ratelimit:login:10.0.0.1"
	if err := server.Set(key, "7"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := l.Increment(ctx, "login", "10.0.0.1", 5, time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if res.Allowed || res.Count != 8 {
		t.Fatalf("expected denied count 8, got %+v", res)
	}
	if server.TTL(key) <= 0 {
		t.Fatal("counter without a ttl must be given one")
	}
}
