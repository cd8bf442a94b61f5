package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/stayhub/stayhub-api/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

const bearerPrefix = "Bearer "

// ExtractToken parses a bearer-scheme authorization header. Returns "" when
// the header is absent or does not use the Bearer scheme.
func ExtractToken(headerValue string) string {
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(headerValue, bearerPrefix)
}

// Auth returns middleware that validates the Bearer JWT and injects claims
// into the request context. Requests are rejected before any business logic
// runs.
func Auth(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ExtractToken(r.Header.Get("Authorization"))
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}
