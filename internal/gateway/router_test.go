package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bankgate/internal/auth"
	"bankgate/internal/auth/authn"
	"bankgate/internal/auth/session"
	"bankgate/internal/authz"
	"bankgate/internal/httputils"
	"bankgate/internal/observability/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthenticator accepts fixed username/password pairs
type stubAuthenticator struct {
	passwords  map[string]string
	identities map[string]*auth.Identity
	err        error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, username, plaintext string) (authn.Result, error) {
	if s.err != nil {
		return authn.Result{}, s.err
	}
	if pw, ok := s.passwords[username]; ok && pw == plaintext && plaintext != "" {
		return authn.Result{Identity: s.identities[username]}, nil
	}
	return authn.Result{Failure: auth.FailureMessage}, nil
}

func newStubAuthenticator() *stubAuthenticator {
	return &stubAuthenticator{
		passwords: map[string]string{"som": "gupta", "akash": "kumar"},
		identities: map[string]*auth.Identity{
			"som":   auth.NewIdentity("som", auth.RoleUser),
			"akash": auth.NewIdentity("akash", auth.RoleManager),
		},
	}
}

// whoami echoes the caller's username
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	name := "anonymous"
	if id := auth.IdentityFromContext(r.Context()); id != nil {
		name = id.Username
	}
	_ = httputils.WriteSuccess(w, name)
})

func testRoutes() []Route {
	return []Route{
		{Name: "open", Method: http.MethodGet, Path: "/t/open", Policy: authz.Public(), Handler: whoami},
		{Name: "members", Method: http.MethodGet, Path: "/t/members", Policy: authz.Authenticated(), Handler: whoami},
		{Name: "managers", Method: http.MethodGet, Path: "/t/managers", Policy: authz.AnyOfRoles(auth.RoleManager), Handler: whoami},
	}
}

type fixture struct {
	router   *Router
	sessions *session.Memory
	authn    *stubAuthenticator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := session.NewMemory(session.Config{TTL: time.Minute}, logging.Discard(), nil)
	stub := newStubAuthenticator()
	rt, err := New(Config{SessionTTL: time.Minute}, testRoutes(), stub, sessions, logging.Discard(), nil)
	require.NoError(t, err)
	return &fixture{router: rt, sessions: sessions, authn: stub}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) loginJSON(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(Credentials{Username: username, Password: password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func getWithToken(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(DefaultHeaderName, token)
	}
	return req
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) httputils.Message {
	t.Helper()
	var msg httputils.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	return msg
}

func TestLogin_JSON(t *testing.T) {
	f := newFixture(t)

	rec := f.loginJSON(t, "som", "gupta")
	require.Equal(t, http.StatusOK, rec.Code)

	var body LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, LoginResponse{Message: "Login successful", Status: "success", User: "som"}, body)

	token := rec.Header().Get(DefaultHeaderName)
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 60, cookies[0].MaxAge)

	assert.Equal(t, "som", f.sessions.Resolve(context.Background(), token).Username)
}

func TestLogin_Form(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"username": {"akash"}, "password": {"kumar"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(DefaultHeaderName)

	rec = f.do(getWithToken("/t/managers", token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "akash", decodeMessage(t, rec).Message)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)

	wrongPassword := f.loginJSON(t, "som", "nope")
	unknownUser := f.loginJSON(t, "ghost", "gupta")
	empty := f.loginJSON(t, "", "")

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownUser, empty} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, httputils.Message{Message: "Login failed: Bad credentials", Status: "error"}, decodeMessage(t, rec))
		assert.Empty(t, rec.Header().Get(DefaultHeaderName))
		assert.Empty(t, rec.Result().Cookies())
	}
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestLogin_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.authn.err = fmt.Errorf("%w: connection refused", auth.ErrStoreUnavailable)

	rec := f.loginJSON(t, "som", "gupta")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, httputils.Message{Message: MessageUnavailable, Status: "error"}, decodeMessage(t, rec))
}

func TestLogin_UnexpectedError(t *testing.T) {
	f := newFixture(t)
	f.authn.err = errors.New("boom")

	rec := f.loginJSON(t, "som", "gupta")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogin_MalformedJSON(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MessageBadRequest, decodeMessage(t, rec).Message)
}

func TestLogin_ReplacesCarriedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.loginJSON(t, "som", "gupta").Header().Get(DefaultHeaderName)
	require.NotEmpty(t, first)

	body := `{"username":"akash","password":"kumar"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DefaultHeaderName, first)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	second := rec.Header().Get(DefaultHeaderName)
	assert.NotEqual(t, first, second)
	assert.Nil(t, f.sessions.Resolve(ctx, first), "old session destroyed")
	assert.Equal(t, "akash", f.sessions.Resolve(ctx, second).Username)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	token := f.loginJSON(t, "som", "gupta").Header().Get(DefaultHeaderName)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, httputils.Message{Message: "Logout successful", Status: "success"}, decodeMessage(t, rec))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)

	rec = f.do(getWithToken("/t/members", token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_Anonymous(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_Decisions(t *testing.T) {
	f := newFixture(t)
	user := f.loginJSON(t, "som", "gupta").Header().Get(DefaultHeaderName)
	manager := f.loginJSON(t, "akash", "kumar").Header().Get(DefaultHeaderName)

	tests := []struct {
		name    string
		path    string
		token   string
		status  int
		message string
	}{
		{"public anonymous", "/t/open", "", http.StatusOK, "anonymous"},
		{"public with session", "/t/open", user, http.StatusOK, "som"},
		{"authenticated anonymous", "/t/members", "", http.StatusUnauthorized, MessageUnauthenticated},
		{"authenticated user", "/t/members", user, http.StatusOK, "som"},
		{"role anonymous", "/t/managers", "", http.StatusUnauthorized, MessageUnauthenticated},
		{"role missing", "/t/managers", user, http.StatusForbidden, MessageForbidden},
		{"role held", "/t/managers", manager, http.StatusOK, "akash"},
		{"unknown token is anonymous", "/t/members", "forged", http.StatusUnauthorized, MessageUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(getWithToken(tt.path, tt.token))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.message, decodeMessage(t, rec).Message)
		})
	}
}

func TestCookieTakesPrecedenceOverHeader(t *testing.T) {
	f := newFixture(t)
	user := f.loginJSON(t, "som", "gupta").Header().Get(DefaultHeaderName)
	manager := f.loginJSON(t, "akash", "kumar").Header().Get(DefaultHeaderName)

	req := getWithToken("/t/members", user)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: manager})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "akash", decodeMessage(t, rec).Message)
}

func TestUnmatchedRoutesResolveBeforePolicy(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/t/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httputils.Message{Message: MessageNotFound, Status: "error"}, decodeMessage(t, rec))

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/t/managers", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouteName(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "managers", f.router.RouteName(httptest.NewRequest(http.MethodGet, "/t/managers", nil)))
	assert.Equal(t, RouteLogin, f.router.RouteName(httptest.NewRequest(http.MethodPost, "/login", nil)))
	assert.Equal(t, UnmatchedRoute, f.router.RouteName(httptest.NewRequest(http.MethodGet, "/t/nowhere", nil)))
	assert.Equal(t, UnmatchedRoute, f.router.RouteName(httptest.NewRequest(http.MethodPut, "/t/open", nil)))
}

func TestNew_ConfigErrors(t *testing.T) {
	sessions := session.NewMemory(session.Config{}, logging.Discard(), nil)

	tests := map[string][]Route{
		"duplicate name": {
			{Name: "a", Method: http.MethodGet, Path: "/a", Policy: authz.Public(), Handler: whoami},
			{Name: "a", Method: http.MethodGet, Path: "/b", Policy: authz.Public(), Handler: whoami},
		},
		"clashes with login": {
			{Name: RouteLogin, Method: http.MethodGet, Path: "/x", Policy: authz.Public(), Handler: whoami},
		},
		"unset policy": {
			{Name: "a", Method: http.MethodGet, Path: "/a", Handler: whoami},
		},
		"role policy without roles": {
			{Name: "a", Method: http.MethodGet, Path: "/a", Policy: authz.AnyOfRoles(), Handler: whoami},
		},
		"no handler": {
			{Name: "a", Method: http.MethodGet, Path: "/a", Policy: authz.Public()},
		},
		"no name": {
			{Method: http.MethodGet, Path: "/a", Policy: authz.Public(), Handler: whoami},
		},
	}

	for name, routes := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(Config{}, routes, newStubAuthenticator(), sessions, logging.Discard(), nil)
			var cfgErr *authz.ConfigError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}
