package gateway

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"bankgate/internal/auth"
	"bankgate/internal/httputils"
	"bankgate/internal/observability/logging"
)

// maxLoginBody bounds the login request body
const maxLoginBody = 64 << 10

// Credentials is the login request body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login
type LoginResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	User    string `json:"user"`
}

// readCredentials accepts a JSON body or form fields named username and password
func readCredentials(w http.ResponseWriter, r *http.Request) (Credentials, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return Credentials{}, err
		}
		return creds, nil
	}

	if err := r.ParseForm(); err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, nil
}

// login authenticates the submitted credentials and on success starts a new
// session. A session the request already carried is destroyed first, so a
// token is never rebound to a different identity.
func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx, rt.logger)

	creds, err := readCredentials(w, r)
	if err != nil {
		logger.Debug("Unreadable login request", logging.Err(err))
		rt.respond(w, r, http.StatusBadRequest, MessageBadRequest)
		return
	}

	result, err := rt.authenticator.Authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) {
			rt.respond(w, r, http.StatusServiceUnavailable, MessageUnavailable)
			return
		}
		logger.Error("Authentication error", logging.Err(err))
		rt.respond(w, r, http.StatusInternalServerError, MessageInternal)
		return
	}

	if !result.OK() {
		rt.respond(w, r, http.StatusUnauthorized, MessageLoginFailed+result.Failure)
		return
	}

	if old := auth.SessionTokenFromContext(ctx); old != "" {
		rt.sessions.Destroy(ctx, old)
	}

	token, err := rt.sessions.Create(ctx, result.Identity)
	if err != nil {
		logger.Error("Failed to create session", logging.Err(err))
		rt.respond(w, r, http.StatusInternalServerError, MessageInternal)
		return
	}

	http.SetCookie(w, rt.sessionCookie(token))
	w.Header().Set(rt.config.HeaderName, token)

	if err := httputils.WriteJSON(w, http.StatusOK, LoginResponse{
		Message: MessageLoginSuccess,
		Status:  httputils.StatusSuccess,
		User:    result.Identity.Username,
	}); err != nil {
		logger.Debug("Failed to write response", logging.Err(err))
	}
}

// logout destroys the carried session, if any, and clears the cookie.
// It succeeds for anonymous callers too.
func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token := auth.SessionTokenFromContext(ctx); token != "" {
		if rt.sessions.Destroy(ctx, token) {
			logging.FromContext(ctx, rt.logger).Info("Logged out")
		}
	}

	http.SetCookie(w, rt.expiredCookie())

	if err := httputils.WriteSuccess(w, MessageLogoutSuccess); err != nil {
		logging.FromContext(ctx, rt.logger).Debug("Failed to write response", logging.Err(err))
	}
}

func (rt *Router) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     rt.config.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(rt.config.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   rt.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (rt *Router) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     rt.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rt.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
