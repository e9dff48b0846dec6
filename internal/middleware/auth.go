package middleware

import (
	"context"
	"net/http"
	"strings"

	"bendadvisor/internal/auth"
	"bendadvisor/internal/metrics"
)

type tokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, bool)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// AuthMiddleware gates protected routes on a bearer token. Verification is
// purely in-process: claims are trusted verbatim until expiry, so role or
// deactivation changes do not take effect mid-token-lifetime. The account
// store is never consulted here.
type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects requests without a bearer token with 401 and requests
// whose token fails verification with 403. Verified claims are attached to
// the request context for downstream handlers.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			metrics.RecordTokenVerification("missing")
			writeFailure(w, http.StatusUnauthorized, "NO_TOKEN", "no token provided")
			return
		}

		token := strings.TrimSpace(header[7:])
		claims, ok := m.verifier.Verify(token)
		if !ok {
			metrics.RecordTokenVerification("invalid")
			writeFailure(w, http.StatusForbidden, "INVALID_TOKEN", "invalid or expired token")
			return
		}

		metrics.RecordTokenVerification("valid")
		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated requests whose claims carry a different
// role. The 403 here does not invalidate the session; clients stay logged in.
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	role = strings.ToLower(strings.TrimSpace(role))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeFailure(w, http.StatusUnauthorized, "NO_TOKEN", "no token provided")
				return
			}

			if strings.ToLower(claims.Role) != role {
				writeFailure(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*auth.Claims)
	return claims, ok
}
