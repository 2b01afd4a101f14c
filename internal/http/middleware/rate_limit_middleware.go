package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/conny0506/jira-lite/internal/http/response"
	"github.com/conny0506/jira-lite/internal/observability"
	"github.com/conny0506/jira-lite/internal/ratelimit"
)

// RateLimit gates a route group on a fixed-window counter keyed by
// (action, client IP). failOpen decides what happens when the backing store
// errors: allow the request through, or reject with 429. Neither choice is a
// hidden default; it comes from configuration.
func RateLimit(limiter ratelimit.Limiter, action string, limit int64, window time.Duration, failOpen bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			result, err := limiter.Increment(r.Context(), action, key, limit, window)
			if err != nil {
				observability.RecordRateLimitDecision(r.Context(), action, "backend_error")
				if failOpen {
					slog.WarnContext(r.Context(), "rate limit store unavailable, allowing request", "action", action, "error", err)
					next.ServeHTTP(w, r)
					return
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}

			remaining := limit - result.Count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

			if !result.Allowed {
				observability.RecordRateLimitDecision(r.Context(), action, "deny")
				retryAfter := int(time.Until(result.ResetAt).Round(time.Second).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), action, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
