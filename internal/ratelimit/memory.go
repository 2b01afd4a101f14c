package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the single-instance strategy: a mutex-guarded map of
// counters. It is not consistent across processes; multi-instance
// deployments must use the Redis strategy instead. That limitation is
// documented, not accidental.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	sweepAt  time.Time
}

type memoryCounter struct {
	count   int64
	resetAt time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryCounter),
		sweepAt:  time.Now().Add(time.Minute),
	}
}

func (l *MemoryLimiter) Increment(_ context.Context, action, clientKey string, limit int64, window time.Duration) (Result, error) {
	key := counterKey(action, clientKey)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweepAt) {
		for k, c := range l.counters {
			if now.After(c.resetAt) {
				delete(l.counters, k)
			}
		}
		l.sweepAt = now.Add(time.Minute)
	}

	c, ok := l.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &memoryCounter{count: 0, resetAt: now.Add(window)}
		l.counters[key] = c
	}
	c.count++

	return Result{
		Allowed: c.count <= limit,
		Count:   c.count,
		ResetAt: c.resetAt,
	}, nil
}
