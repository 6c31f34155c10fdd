package auth

import (
	"context"
)

// Identity is the result of a successful authentication: who the caller is and
// which roles they hold. An Identity never carries the password or its hash and
// is not modified after construction.
type Identity struct {
	// Username is the principal's unique login name
	Username string

	// Roles is the principal's role set at login time
	Roles RoleSet
}

// NewIdentity builds an Identity for username holding roles
func NewIdentity(username string, roles ...Role) *Identity {
	return &Identity{
		Username: username,
		Roles:    NewRoleSet(roles...),
	}
}

// Principal is a registered user as stored in the credential store.
type Principal struct {
	// Username is the unique, stable identifier
	Username string

	// Enabled is false for principals that must never authenticate
	Enabled bool

	// PasswordHash is the salted one-way hash of the password
	PasswordHash string

	// Roles are the principal's roles with any storage prefix removed
	Roles RoleSet
}

// CredentialStore looks up principals by username.
type CredentialStore interface {
	// Lookup returns the principal for username, or (nil, nil) when no such
	// principal exists. Errors are reserved for an unreachable store and
	// wrap ErrStoreUnavailable.
	Lookup(ctx context.Context, username string) (*Principal, error)
}

// SessionCarrier binds an Identity to an opaque token so later requests can
// present the token instead of credentials.
type SessionCarrier interface {
	// Create starts a new session for identity and returns its token
	Create(ctx context.Context, identity *Identity) (string, error)

	// Resolve returns the identity bound to token, or nil when the token is
	// empty, unknown or expired
	Resolve(ctx context.Context, token string) *Identity

	// Destroy ends the session for token. It reports whether a live session existed.
	Destroy(ctx context.Context, token string) bool
}
