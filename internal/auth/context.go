package auth

import "context"

// contextKey is a private type to avoid context key collisions.
type contextKey struct{}

var sessionKey contextKey

// ContextWithSession returns a context carrying the verified session claims.
func ContextWithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionKey, claims)
}

// SessionFromContext retrieves the session claims, or nil if unauthenticated.
func SessionFromContext(ctx context.Context) *SessionClaims {
	claims, _ := ctx.Value(sessionKey).(*SessionClaims)
	return claims
}
