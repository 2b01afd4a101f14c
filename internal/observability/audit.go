package observability

import (
	"log/slog"
	"net/http"
)

// Audit emits a structured audit log line for a security-relevant request.
// Never include credentials or token material in attrs.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}
