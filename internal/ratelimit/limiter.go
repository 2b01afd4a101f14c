package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of a single fixed-window increment.
type Result struct {
	Allowed bool
	Count   int64
	ResetAt time.Time
}

// Limiter counts requests per (action, clientKey) pair in fixed windows.
// Increment always counts the attempt; Allowed reports whether the count is
// still within the limit for the current window.
type Limiter interface {
	Increment(ctx context.Context, action, clientKey string, limit int64, window time.Duration) (Result, error)
}

func counterKey(action, clientKey string) string {
	return "ratelimit:" + action + ":" + clientKey
}
