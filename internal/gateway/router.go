package gateway

import (
	"context"
	"net/http"

	"bankgate/internal/auth"
	"bankgate/internal/auth/authn"
	"bankgate/internal/authz"
	"bankgate/internal/authz/static"
	"bankgate/internal/observability/logging"
	"bankgate/internal/observability/metrics"

	"github.com/gorilla/mux"
)

// UnmatchedRoute names requests that matched no registered route
const UnmatchedRoute = "unmatched"

// Authenticator checks a username/password pair
type Authenticator interface {
	Authenticate(ctx context.Context, username, plaintext string) (authn.Result, error)
}

// Router is the request pipeline. For every matched request it resolves the
// session identity, asks the policy evaluator for a decision on the route and
// either forwards to the route's handler or answers 401/403 itself.
// Unmatched paths and methods are answered before any policy is evaluated.
type Router struct {
	*mux.Router
	config        Config
	evaluator     *static.Evaluator
	authenticator Authenticator
	sessions      auth.SessionCarrier
	logger        *logging.Logger
	metrics       *metrics.Collector
}

// New builds the pipeline for routes plus the login and logout endpoints.
// The policy table is built from the route registrations, so every routable
// path has exactly one policy; a duplicate name or an unusable policy is
// returned as *authz.ConfigError.
func New(
	config Config,
	routes []Route,
	authenticator Authenticator,
	sessions auth.SessionCarrier,
	logger *logging.Logger,
	metricsCollector *metrics.Collector,
) (*Router, error) {
	config = config.withDefaults()

	rt := &Router{
		Router:        mux.NewRouter(),
		config:        config,
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger.WithModule("gateway"),
		metrics:       metricsCollector,
	}

	all := append([]Route{
		{Name: RouteLogin, Method: http.MethodPost, Path: config.LoginPath, Policy: authz.Public(), Handler: http.HandlerFunc(rt.login)},
		{Name: RouteLogout, Method: http.MethodPost, Path: config.LogoutPath, Policy: authz.Public(), Handler: http.HandlerFunc(rt.logout)},
	}, routes...)

	policies := make(map[string]authz.Policy, len(all))
	for _, route := range all {
		if err := validateRoute(route); err != nil {
			return nil, err
		}
		if _, dup := policies[route.Name]; dup {
			return nil, &authz.ConfigError{Route: route.Name, Reason: "route registered twice"}
		}
		policies[route.Name] = route.Policy
	}

	table, err := static.NewTable(policies)
	if err != nil {
		return nil, err
	}
	rt.evaluator = static.New(table, logger)

	names := make([]string, 0, len(all))
	for _, route := range all {
		names = append(names, route.Name)
	}
	if err := rt.evaluator.Require(names...); err != nil {
		return nil, err
	}

	rt.NotFoundHandler = http.HandlerFunc(rt.notFound)
	rt.MethodNotAllowedHandler = http.HandlerFunc(rt.methodNotAllowed)
	rt.Use(rt.sessionMiddleware)

	for _, route := range all {
		rt.logger.Debug("Setting up route",
			"name", route.Name,
			"method", route.Method,
			"path", route.Path,
			"policy", route.Policy.String(),
		)
		rt.Handle(route.Path, rt.guard(route)).
			Methods(route.Method).
			Name(route.Name)
	}

	return rt, nil
}

func validateRoute(route Route) error {
	switch {
	case route.Name == "":
		return &authz.ConfigError{Route: route.Path, Reason: "route has no name"}
	case route.Path == "":
		return &authz.ConfigError{Route: route.Name, Reason: "route has no path"}
	case route.Method == "":
		return &authz.ConfigError{Route: route.Name, Reason: "route has no method"}
	case route.Handler == nil:
		return &authz.ConfigError{Route: route.Name, Reason: "route has no handler"}
	}
	if err := route.Policy.Validate(); err != nil {
		return &authz.ConfigError{Route: route.Name, Reason: err.Error()}
	}
	return nil
}

// RouteName returns the name of the route r would be dispatched to,
// or UnmatchedRoute.
func (rt *Router) RouteName(r *http.Request) string {
	var match mux.RouteMatch
	if rt.Match(r, &match) && match.Route != nil {
		if name := match.Route.GetName(); name != "" {
			return name
		}
	}
	return UnmatchedRoute
}

// sessionMiddleware resolves the presented token into an identity. An
// unknown or expired token is treated exactly like no token at all.
func (rt *Router) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := rt.tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.ContextWithSessionToken(r.Context(), token)
		if identity := rt.sessions.Resolve(ctx, token); identity != nil {
			ctx = auth.ContextWithIdentity(ctx, identity)
			if logger := logging.LoggerFromContext(ctx); logger != nil {
				ctx = logging.ContextWithLogger(ctx, logger.With("username", logging.Username(identity.Username)))
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromRequest reads the session cookie, then the session header
func (rt *Router) tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(rt.config.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(rt.config.HeaderName)
}

// guard wraps a route's handler with its policy decision
func (rt *Router) guard(route Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.IdentityFromContext(ctx)

		decision := rt.evaluator.Decide(ctx, route.Name, identity)
		rt.metrics.RecordDecision(route.Name, decision.String())

		switch decision {
		case authz.Allow:
			route.Handler.ServeHTTP(w, r)
		case authz.DenyUnauthenticated:
			logging.FromContext(ctx, rt.logger).Debug("Request denied", "route", route.Name, "decision", decision.String())
			rt.unauthenticated(w, r)
		default:
			username := ""
			if identity != nil {
				username = identity.Username
			}
			logging.FromContext(ctx, rt.logger).Info("Request forbidden",
				"route", route.Name,
				"username", logging.Username(username),
			)
			rt.forbidden(w, r)
		}
	})
}
