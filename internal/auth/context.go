package auth

import (
	"context"
)

// ContextKey is a type-safe key for context values
type ContextKey string

const (
	// IdentityContextKey is the key used to store the identity in the context
	IdentityContextKey ContextKey = "auth:identity"

	// SessionTokenContextKey is the key used to store the presented session token
	SessionTokenContextKey ContextKey = "auth:session_token"
)

// IdentityFromContext extracts the identity from the request context.
// It returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*Identity); ok {
		return identity
	}
	return nil
}

// ContextWithIdentity adds an identity to a context
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// SessionTokenFromContext returns the session token the request presented, if any
func SessionTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenContextKey).(string); ok {
		return token
	}
	return ""
}

// ContextWithSessionToken records the session token the request presented
func ContextWithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenContextKey, token)
}
