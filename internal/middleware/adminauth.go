package middleware

import (
	"net/http"
	"strings"

	"github.com/vitalink/vitalink/internal/auth"
)

// TokenVerifier defines the interface for session token verification.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.SessionClaims, error)
}

// AdminAuth returns middleware that requires a valid Bearer session token.
// Verified claims are placed on the request context for downstream handlers.
func AdminAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeAuthError(w, "authorization header must be 'Bearer <token>'")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				writeAuthError(w, "invalid or expired session token")
				return
			}

			ctx := auth.ContextWithSession(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 Unauthorized response.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"UNAUTHORIZED"}`))
}
