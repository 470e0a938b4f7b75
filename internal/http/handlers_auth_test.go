package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/competency-console/internal/adapters/backend"
	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/service"
)

func TestLogin_SetsSessionCookieAndRedirects(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})

	form := url.Values{"email": {"hr@example.com"}, "password": {"pw"}, "redirect_uri": {"/employee-crud"}}
	rec := c.postForm("/login", form, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/employee-crud", rec.Header().Get("Location"))

	cookie := findCookie(rec.Result().Cookies(), SessionCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.InDelta(t, 3600, cookie.MaxAge, 5, "cookie follows the token expiry")

	authz, ok := c.backend.authFor("/login/")
	require.True(t, ok)
	assert.Empty(t, authz, "no bearer credential without a session")
}

func TestLogin_RejectsOffsiteRedirect(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})

	for _, target := range []string{
		"https://evil.example",
		"//evil.example/x",
		"relative",
		`/\evil.example`,
		`/\\evil.example`,
		"/%5C%5Cevil.example",
		"/%5Cevil.example",
		"/%2F%2Fevil.example",
	} {
		form := url.Values{"email": {"hr@example.com"}, "password": {"pw"}, "redirect_uri": {target}}
		rec := c.postForm("/login", form, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/", rec.Header().Get("Location"), target)
	}
}

func TestLogin_BackendRejectionShowsDetail(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})
	c.backend.failLogin(http.StatusUnauthorized, "Invalid credentials")

	rec := c.postForm("/login", url.Values{"email": {"hr@example.com"}, "password": {"bad"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login Failed! Invalid credentials")
	assert.Contains(t, rec.Body.String(), `value="hr@example.com"`)
	assert.Nil(t, findCookie(rec.Result().Cookies(), SessionCookieName))
	assert.Zero(t, c.store.Len())
}

func TestLogin_ValidationSkipsBackend(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})

	rec := c.postForm("/login", url.Values{"email": {""}, "password": {"pw"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is required")
	_, hit := c.backend.authFor("/login/")
	assert.False(t, hit)
}

func TestLogin_UnknownRoleRefused(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})
	c.backend.setRole("Contractor")

	rec := c.postForm("/login", url.Values{"email": {"x@example.com"}, "password": {"pw"}}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, c.store.Len())
}

func TestLogin_JSONClients(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=hr%40example.com&password=pw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","redirect_to":"/"}`, rec.Body.String())
}

func TestLoginPage_SignedInGoesHome(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})
	cookie := c.login(t, "HR")

	rec := c.get("/login", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = c.get("/login?redirect_uri=%2Frole-crud", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="redirect_uri" value="/role-crud"`)
}

func TestRegister_RedirectsToLoginWithFlash(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})

	rec := c.postForm("/register", url.Values{"username": {"neo"}, "email": {"neo@example.com"}, "password": {"pw"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, domainauth.PathLogin, locationPath(t, rec))
	assert.Zero(t, c.store.Len(), "registration does not sign in")

	c.backend.mu.Lock()
	require.Len(t, c.backend.registered, 1)
	assert.Equal(t, "neo", c.backend.registered[0]["username"])
	c.backend.mu.Unlock()

	page := c.get(rec.Header().Get("Location"), nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Registration successful!")
}

func TestRegister_ValidationError(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})

	rec := c.postForm("/register", url.Values{"username": {""}, "email": {"neo@example.com"}, "password": {"pw"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is required")
	_, hit := c.backend.authFor("/register/")
	assert.False(t, hit)
}

func TestLogout_IsIdempotent(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})
	cookie := c.login(t, "HR")
	require.Equal(t, 1, c.store.Len())

	for range 2 {
		rec := c.postForm("/logout", url.Values{}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		cleared := findCookie(rec.Result().Cookies(), SessionCookieName)
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
		assert.Zero(t, c.store.Len())
	}

	rec := c.postForm("/logout", url.Values{}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestStatus(t *testing.T) {
	c := newTestConsole(t, consoleOptions{})

	rec := c.getJSON("/auth/status", nil)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	cookie := c.login(t, "HOD")
	rec = c.getJSON("/auth/status", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Authenticated bool              `json:"authenticated"`
		User          map[string]string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Authenticated)
	assert.Equal(t, map[string]string{"username": "E1001", "role": "HOD", "department_code": "HRD"}, got.User)

	rec = c.getJSON("/auth/status", &http.Cookie{Name: SessionCookieName, Value: "gone"})
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
	assert.NotNil(t, findCookie(rec.Result().Cookies(), SessionCookieName))
}

func TestCSRF_EnforcedOnForms(t *testing.T) {
	c := newTestConsole(t, consoleOptions{csrf: true})

	rec := c.postForm("/login", url.Values{"email": {"hr@example.com"}, "password": {"pw"}}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	page := c.get("/login", nil)
	require.Equal(t, http.StatusOK, page.Code)
	token := findCookie(page.Result().Cookies(), DefaultCSRFCookieName)
	require.NotNil(t, token)
	assert.Contains(t, page.Body.String(), fmt.Sprintf(`name="csrf_token" value="%s"`, token.Value))

	form := url.Values{"email": {"hr@example.com"}, "password": {"pw"}, "csrf_token": {token.Value}}
	rec = c.postForm("/login", form, token)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestClassifyAuthError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{&service.ValidationError{Field: "email", Message: "email is required"}, http.StatusBadRequest, "email is required"},
		{fmt.Errorf("wrapped: %w", &backend.APIError{Status: 400, Detail: "Email already registered"}), http.StatusBadRequest, "Email already registered"},
		{&backend.APIError{Status: 503, Detail: "down"}, http.StatusBadGateway, "down"},
		{fmt.Errorf("save: %w", service.ErrSessionExpired), http.StatusUnauthorized, "session expired, please sign in again"},
		{domainauth.InvalidRoleError{Value: "Intern"}, http.StatusForbidden, "account role Intern is not supported"},
		{errors.New("dial tcp: refused"), http.StatusBadGateway, "the backend could not be reached"},
	}
	for _, tc := range cases {
		got := classifyAuthError(tc.err)
		assert.Equal(t, tc.status, got.status, tc.err.Error())
		assert.Equal(t, tc.msg, got.message, tc.err.Error())
	}
}
