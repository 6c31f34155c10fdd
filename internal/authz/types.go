package authz

import (
	"context"
	"fmt"
	"strings"

	"bankgate/internal/auth"
)

// Decision represents an authorization decision
type Decision int

const (
	// Allow indicates the request may reach its handler
	Allow Decision = iota
	// DenyUnauthenticated indicates the route needs an identity and the request has none
	DenyUnauthenticated
	// DenyForbidden indicates the caller is known but lacks the required roles
	DenyForbidden
)

// String returns the decision name used in logs and metrics
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// PolicyKind is the capability a route requires
type PolicyKind int

const (
	// Unset is the zero kind. A route with an unset policy is a configuration error.
	Unset PolicyKind = iota
	// PublicAccess needs no identity
	PublicAccess
	// AuthenticatedAccess needs any identity
	AuthenticatedAccess
	// AnyRoleAccess needs an identity holding at least one of the roles
	AnyRoleAccess
	// AllRolesAccess needs an identity holding every one of the roles
	AllRolesAccess
)

// Policy is the access requirement attached to a route
type Policy struct {
	Kind  PolicyKind
	Roles auth.RoleSet
}

// Public returns a policy that admits everyone
func Public() Policy {
	return Policy{Kind: PublicAccess}
}

// Authenticated returns a policy that admits any authenticated caller
func Authenticated() Policy {
	return Policy{Kind: AuthenticatedAccess}
}

// AnyOfRoles returns a policy admitting callers that hold at least one of roles
func AnyOfRoles(roles ...auth.Role) Policy {
	return Policy{Kind: AnyRoleAccess, Roles: auth.NewRoleSet(roles...)}
}

// AllRoles returns a policy admitting callers that hold every one of roles
func AllRoles(roles ...auth.Role) Policy {
	return Policy{Kind: AllRolesAccess, Roles: auth.NewRoleSet(roles...)}
}

// Validate reports why p cannot be enforced, or nil
func (p Policy) Validate() error {
	switch p.Kind {
	case PublicAccess, AuthenticatedAccess:
		return nil
	case AnyRoleAccess, AllRolesAccess:
		if p.Roles.Len() == 0 {
			return fmt.Errorf("%s policy needs at least one role", p)
		}
		return nil
	case Unset:
		return fmt.Errorf("no policy set")
	default:
		return fmt.Errorf("unknown policy kind %d", int(p.Kind))
	}
}

// String renders the policy, e.g. "anyOfRoles(MANAGER,USER)"
func (p Policy) String() string {
	switch p.Kind {
	case PublicAccess:
		return "public"
	case AuthenticatedAccess:
		return "authenticated"
	case AnyRoleAccess:
		return "anyOfRoles(" + strings.Join(p.Roles.Strings(), ",") + ")"
	case AllRolesAccess:
		return "allRoles(" + strings.Join(p.Roles.Strings(), ",") + ")"
	default:
		return "unset"
	}
}

// ConfigError reports a route table that cannot be enforced. It is raised at
// startup and never per request.
type ConfigError struct {
	Route  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("route policy configuration error for %q: %s", e.Route, e.Reason)
}

// Authorizer decides whether a caller may use a route
type Authorizer interface {
	// Decide returns the decision for identity (nil when anonymous) on route
	Decide(ctx context.Context, route string, identity *auth.Identity) Decision
}
