package auth

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Role is a capability label a principal may hold
type Role string

// Roles used by the bank access matrix
const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
)

// AuthorityPrefix is the prefix role names carry in the authorities table
const AuthorityPrefix = "ROLE_"

// ParseAuthority converts a stored authority string such as "ROLE_MANAGER"
// into the Role "MANAGER". Blank input yields the empty Role.
func ParseAuthority(authority string) Role {
	authority = strings.TrimSpace(authority)
	return Role(strings.TrimPrefix(authority, AuthorityPrefix))
}

// Authority is the stored form of r
func (r Role) Authority() string {
	return AuthorityPrefix + string(r)
}

// RoleSet is an immutable set of roles. The zero value is the empty set.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet builds a set from roles, ignoring empty names
func NewRoleSet(roles ...Role) RoleSet {
	m := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		m[r] = struct{}{}
	}
	return RoleSet{roles: m}
}

// Has reports whether r is in the set
func (s RoleSet) Has(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// Len returns the number of roles in the set
func (s RoleSet) Len() int {
	return len(s.roles)
}

// Intersects reports whether s and other share at least one role
func (s RoleSet) Intersects(other RoleSet) bool {
	for r := range other.roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every role of other is in s
func (s RoleSet) ContainsAll(other RoleSet) bool {
	for r := range other.roles {
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// Slice returns the roles sorted by name
func (s RoleSet) Slice() []Role {
	roles := make([]Role, 0, len(s.roles))
	for r := range s.roles {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}

// Strings returns the sorted role names, mostly for logging
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
