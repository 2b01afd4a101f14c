package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/conny0506/jira-lite/internal/http/response"
	"github.com/conny0506/jira-lite/internal/observability"
	"github.com/conny0506/jira-lite/internal/security"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// AuthMiddleware resolves the per-request actor from the bearer access
// token. A missing header or wrong scheme is a 400; a token the codec
// rejects is a 401, with no further detail either way. The session store is
// never consulted here: access tokens are self-contained by design.
func AuthMiddleware(codec *security.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				observability.RecordAccessTokenValidation(r.Context(), "missing")
				response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing bearer token", nil)
				return
			}
			raw := strings.TrimSpace(auth[7:])
			claims, err := codec.Verify(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid")
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.AccessClaims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.AccessClaims)
	return c, ok
}
