package gateway

import (
	"net/http"
	"time"

	"bankgate/internal/authz"
)

// Route pairs a handler with the access policy that guards it
type Route struct {
	// Name identifies the route in the policy table, logs and metrics
	Name string

	// Method is the HTTP method the route answers to
	Method string

	// Path is the full request path, e.g. "/bank/home"
	Path string

	// Policy is the access requirement checked before Handler runs
	Policy authz.Policy

	// Handler serves allowed requests. It may read the caller's identity
	// with auth.IdentityFromContext.
	Handler http.Handler
}

// Route names for the session endpoints
const (
	RouteLogin  = "login"
	RouteLogout = "logout"
)

// Defaults for Config
const (
	DefaultCookieName = "BANKGATE_SESSION"
	DefaultHeaderName = "X-Session-Token"
	DefaultLoginPath  = "/login"
	DefaultLogoutPath = "/logout"
)

// Config holds the session transport settings of the gateway
type Config struct {
	// CookieName is the cookie carrying the session token
	CookieName string

	// HeaderName is the request and response header carrying the session
	// token for clients that do not keep cookies
	HeaderName string

	// CookieSecure marks the session cookie Secure
	CookieSecure bool

	// SessionTTL sets the cookie Max-Age. It should match the carrier's TTL.
	SessionTTL time.Duration

	// LoginPath and LogoutPath locate the session endpoints
	LoginPath  string
	LogoutPath string
}

func (c Config) withDefaults() Config {
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultHeaderName
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.LogoutPath == "" {
		c.LogoutPath = DefaultLogoutPath
	}
	return c
}
