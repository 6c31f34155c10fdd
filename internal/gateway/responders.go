package gateway

import (
	"net/http"

	"bankgate/internal/httputils"
	"bankgate/internal/observability/logging"
)

// Client-facing messages
const (
	MessageUnauthenticated  = "Authentication required! Please login to access this resource"
	MessageForbidden        = "Access Denied! You don't have permission to access this resource"
	MessageNotFound         = "Resource not found"
	MessageMethodNotAllowed = "Method not allowed"
	MessageUnavailable      = "Service temporarily unavailable, please try again later"
	MessageInternal         = "Internal server error"
	MessageBadRequest       = "Malformed login request"
	MessageLoginSuccess     = "Login successful"
	MessageLoginFailed      = "Login failed: "
	MessageLogoutSuccess    = "Logout successful"
)

// respond writes a JSON error body and logs a failed write
func (rt *Router) respond(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := httputils.WriteError(w, status, message); err != nil {
		logging.FromContext(r.Context(), rt.logger).Debug("Failed to write response", logging.Err(err))
	}
}

func (rt *Router) unauthenticated(w http.ResponseWriter, r *http.Request) {
	rt.respond(w, r, http.StatusUnauthorized, MessageUnauthenticated)
}

func (rt *Router) forbidden(w http.ResponseWriter, r *http.Request) {
	rt.respond(w, r, http.StatusForbidden, MessageForbidden)
}

func (rt *Router) notFound(w http.ResponseWriter, r *http.Request) {
	rt.respond(w, r, http.StatusNotFound, MessageNotFound)
}

func (rt *Router) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	rt.respond(w, r, http.StatusMethodNotAllowed, MessageMethodNotAllowed)
}
