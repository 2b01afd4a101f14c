package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the shared strategy for multi-instance deployments. The
// increment, the set-expiry-if-unset and the ttl read run as one TxPipeline
// so concurrent callers cannot lose updates or leave a counter without an
// expiry.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "jira-lite"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Increment(ctx context.Context, action, clientKey string, limit int64, window time.Duration) (Result, error) {
	key := l.prefix + ":" + counterKey(action, clientKey)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	count := incr.Val()
	ttl := pttl.Val()
	if ttl < 0 {
		// Counter existed without an expiry (e.g. written by an older
		// deployment); treat it as a fresh window.
		ttl = window
		_ = l.client.Expire(ctx, key, window).Err()
	}

	return Result{
		Allowed: count <= limit,
		Count:   count,
		ResetAt: time.Now().Add(ttl),
	}, nil
}
