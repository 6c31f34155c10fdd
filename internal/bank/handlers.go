// Package bank holds the business endpoints behind the gateway. Handlers here
// never check access themselves; each one is registered together with its
// policy in Routes.
package bank

import (
	"net/http"

	"bankgate/internal/auth"
	"bankgate/internal/authz"
	"bankgate/internal/gateway"
	"bankgate/internal/httputils"
	"bankgate/internal/observability/logging"
)

// DefaultBasePath prefixes every bank route
const DefaultBasePath = "/bank"

// Route names
const (
	RouteHome         = "home"
	RouteOffers       = "offers"
	RouteCheckBalance = "checkBalance"
	RouteApproveLoan  = "approveloan"
	RouteDenied       = "denied"
)

// Balance is the body of the balance endpoint
type Balance struct {
	Message       string  `json:"message"`
	Balance       float64 `json:"balance"`
	AccountNumber string  `json:"accountNumber"`
	Status        string  `json:"status"`
}

// Handlers serves the bank endpoints
type Handlers struct {
	logger *logging.Logger
}

// NewHandlers creates the bank handlers
func NewHandlers(logger *logging.Logger) *Handlers {
	return &Handlers{logger: logger.WithModule("bank")}
}

// Routes returns every bank endpoint under basePath paired with its policy.
// An empty basePath mounts the endpoints at the root.
func (h *Handlers) Routes(basePath string) []gateway.Route {
	return []gateway.Route{
		{Name: RouteHome, Method: http.MethodGet, Path: basePath + "/home", Policy: authz.Public(), Handler: http.HandlerFunc(h.Home)},
		{Name: RouteOffers, Method: http.MethodGet, Path: basePath + "/offers", Policy: authz.Authenticated(), Handler: http.HandlerFunc(h.Offers)},
		{Name: RouteCheckBalance, Method: http.MethodGet, Path: basePath + "/checkBalance", Policy: authz.AnyOfRoles(auth.RoleUser, auth.RoleManager), Handler: http.HandlerFunc(h.CheckBalance)},
		{Name: RouteApproveLoan, Method: http.MethodGet, Path: basePath + "/approveloan", Policy: authz.AnyOfRoles(auth.RoleManager), Handler: http.HandlerFunc(h.ApproveLoan)},
		{Name: RouteDenied, Method: http.MethodGet, Path: basePath + "/denied", Policy: authz.Public(), Handler: http.HandlerFunc(h.Denied)},
	}
}

// Home is the public landing endpoint
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, httputils.Message{Message: "Welcome to the Bank!", Status: httputils.StatusSuccess})
}

// Offers is visible to any authenticated caller
func (h *Handlers) Offers(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, httputils.Message{Message: "Current offers available for authenticated users", Status: httputils.StatusSuccess})
}

// CheckBalance returns a sample balance
func (h *Handlers) CheckBalance(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, Balance{
		Message:       "Your balance information",
		Balance:       50000.00,
		AccountNumber: "XXXX1234",
		Status:        httputils.StatusSuccess,
	})
}

// ApproveLoan is the manager-only endpoint
func (h *Handlers) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		logging.FromContext(r.Context(), h.logger).Info("Loan approval page served", "username", logging.Username(identity.Username))
	}
	h.write(w, r, http.StatusOK, httputils.Message{Message: "Loan approval page - Manager access only", Status: httputils.StatusSuccess})
}

// Denied always answers 403
func (h *Handlers) Denied(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusForbidden, httputils.Message{Message: gateway.MessageForbidden, Status: httputils.StatusError})
}

func (h *Handlers) write(w http.ResponseWriter, r *http.Request, status int, body any) {
	if err := httputils.WriteJSON(w, status, body); err != nil {
		logging.FromContext(r.Context(), h.logger).Debug("Failed to write response", logging.Err(err))
	}
}
