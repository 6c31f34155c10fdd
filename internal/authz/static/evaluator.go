package static

import (
	"context"

	"bankgate/internal/auth"
	"bankgate/internal/authz"
	"bankgate/internal/observability/logging"

	"golang.org/x/exp/slices"
)

// Table is an immutable route name → policy mapping built once at startup.
type Table struct {
	policies map[string]authz.Policy
}

// NewTable copies entries into a Table after validating every policy
func NewTable(entries map[string]authz.Policy) (*Table, error) {
	policies := make(map[string]authz.Policy, len(entries))
	for route, policy := range entries {
		if route == "" {
			return nil, &authz.ConfigError{Route: route, Reason: "empty route name"}
		}
		if err := policy.Validate(); err != nil {
			return nil, &authz.ConfigError{Route: route, Reason: err.Error()}
		}
		policies[route] = policy
	}
	return &Table{policies: policies}, nil
}

// Policy returns the policy for route
func (t *Table) Policy(route string) (authz.Policy, bool) {
	p, ok := t.policies[route]
	return p, ok
}

// Routes returns the route names in the table, sorted
func (t *Table) Routes() []string {
	routes := make([]string, 0, len(t.policies))
	for r := range t.policies {
		routes = append(routes, r)
	}
	slices.Sort(routes)
	return routes
}

// Evaluator decides access from a Table. It holds no mutable state, so the
// same (route, identity) always yields the same decision.
type Evaluator struct {
	table  *Table
	logger *logging.Logger
}

var _ authz.Authorizer = (*Evaluator)(nil)

// New creates an Evaluator over table
func New(table *Table, logger *logging.Logger) *Evaluator {
	return &Evaluator{
		table:  table,
		logger: logger.WithModule("authz.static"),
	}
}

// Require checks that every route has a policy entry. Called at startup so a
// missing entry stops the process instead of surfacing per request.
func (e *Evaluator) Require(routes ...string) error {
	for _, route := range routes {
		if _, ok := e.table.Policy(route); !ok {
			return &authz.ConfigError{Route: route, Reason: "route has no policy entry"}
		}
	}
	return nil
}

// Decide returns the access decision for identity on route.
// Authentication is checked before roles: an anonymous caller is always
// DenyUnauthenticated on a non-public route, never DenyForbidden.
func (e *Evaluator) Decide(ctx context.Context, route string, identity *auth.Identity) authz.Decision {
	policy, ok := e.table.Policy(route)
	if !ok {
		// Unreachable once Require has passed.
		logging.FromContext(ctx, e.logger).Error("No policy for route, denying", "route", route)
		return authz.DenyForbidden
	}

	if policy.Kind == authz.PublicAccess {
		return authz.Allow
	}
	if identity == nil {
		return authz.DenyUnauthenticated
	}

	switch policy.Kind {
	case authz.AuthenticatedAccess:
		return authz.Allow
	case authz.AnyRoleAccess:
		if identity.Roles.Intersects(policy.Roles) {
			return authz.Allow
		}
	case authz.AllRolesAccess:
		if identity.Roles.ContainsAll(policy.Roles) {
			return authz.Allow
		}
	}
	return authz.DenyForbidden
}
