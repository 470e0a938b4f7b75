package httpx

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/competency-console/internal/adapters/backend"
	"github.com/target/competency-console/internal/adapters/memory"
	domainauth "github.com/target/competency-console/internal/domain/auth"
	mockauth "github.com/target/competency-console/internal/mocks/auth"
	"github.com/target/competency-console/internal/service"
)

type fakeResponse struct {
	status int
	body   string
}

// fakeBackend is an httptest stand-in for the competency REST backend.
type fakeBackend struct {
	srv *httptest.Server

	mu          sync.Mutex
	user        string
	role        string
	department  string
	loginStatus int
	loginDetail string
	resources   map[string]fakeResponse
	auth        map[string]string // path -> Authorization header of the last request
	registered  []map[string]string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		user:       "E1001",
		role:       "HR",
		department: "HRD",
		resources:  map[string]fakeResponse{},
		auth:       map[string]string{},
	}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.auth[r.URL.EscapedPath()] = r.Header.Get("Authorization")
	fb.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == backend.LoginPath:
		fb.serveLogin(w, r)
	case r.Method == http.MethodPost && r.URL.Path == backend.RegisterPath:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		fb.registered = append(fb.registered, body)
		fb.mu.Unlock()
		writeBackendJSON(w, http.StatusOK, `{"message":"created"}`)
	case r.Method == http.MethodGet:
		fb.mu.Lock()
		resp, ok := fb.resources[r.URL.EscapedPath()]
		fb.mu.Unlock()
		if !ok {
			resp = fakeResponse{status: http.StatusOK, body: `[]`}
		}
		writeBackendJSON(w, resp.status, resp.body)
	default:
		writeBackendJSON(w, http.StatusMethodNotAllowed, `{"detail":"Method Not Allowed"}`)
	}
}

func (fb *fakeBackend) serveLogin(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	user, role, dept := fb.user, fb.role, fb.department
	status, detail := fb.loginStatus, fb.loginDetail
	fb.mu.Unlock()

	if status != 0 {
		b, _ := json.Marshal(map[string]string{"detail": detail})
		writeBackendJSON(w, status, string(b))
		return
	}
	token, err := mockauth.SignedToken(user, time.Now().Add(time.Hour))
	if err != nil {
		writeBackendJSON(w, http.StatusInternalServerError, `{"detail":"sign"}`)
		return
	}
	b, _ := json.Marshal(map[string]string{
		"access_token":    token,
		"refresh_token":   "refresh",
		"user":            user,
		"role":            role,
		"department_code": dept,
	})
	writeBackendJSON(w, http.StatusOK, string(b))
}

func writeBackendJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (fb *fakeBackend) setRole(role string) {
	fb.mu.Lock()
	fb.role = role
	fb.mu.Unlock()
}

func (fb *fakeBackend) setResource(path string, status int, body string) {
	fb.mu.Lock()
	fb.resources[path] = fakeResponse{status: status, body: body}
	fb.mu.Unlock()
}

func (fb *fakeBackend) failLogin(status int, detail string) {
	fb.mu.Lock()
	fb.loginStatus, fb.loginDetail = status, detail
	fb.mu.Unlock()
}

func (fb *fakeBackend) authFor(path string) (string, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	v, ok := fb.auth[path]
	return v, ok
}

// testConsole wires the real services, backend client and router against a fakeBackend.
type testConsole struct {
	handler  http.Handler
	backend  *fakeBackend
	store    *memory.SessionStore
	sessions *service.SessionService
}

type consoleOptions struct {
	csrf       bool
	templateFS fs.FS
}

func newTestConsole(t *testing.T, opts consoleOptions) *testConsole {
	t.Helper()
	fb := newFakeBackend(t)

	store := memory.NewSessionStore()
	sessions := service.NewSessionService(service.SessionServiceOptions{Store: store, TTL: 8 * time.Hour})

	client, err := backend.New(backend.Config{BaseURL: fb.srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	client.Configure(sessions.LogoutFromContext)

	handler, err := NewRouter(RouterServices{
		Auth:        service.NewAuthService(service.AuthServiceOptions{Backend: client, Sessions: sessions}),
		Reports:     service.NewReportService(service.ReportServiceOptions{Fetcher: client}),
		CSRFEnabled: opts.csrf,
		TemplateFS:  opts.templateFS,
	})
	require.NoError(t, err)

	return &testConsole{handler: handler, backend: fb, store: store, sessions: sessions}
}

// login signs in through the router as role and returns the session cookie.
func (c *testConsole) login(t *testing.T, role string) *http.Cookie {
	t.Helper()
	c.backend.setRole(role)
	rec := c.postForm("/login", url.Values{"email": {"user@example.com"}, "password": {"pw"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	cookie := findCookie(rec.Result().Cookies(), SessionCookieName)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	return cookie
}

func (c *testConsole) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *testConsole) getJSON(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *testConsole) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

//nolint:gochecknoglobals // test-only pattern
var wildcardPattern = regexp.MustCompile(`\{[^}]+\}`)

// concretePath fills every path wildcard of rt with a sample value.
func concretePath(rt domainauth.Route) string {
	return wildcardPattern.ReplaceAllString(rt.Path, "X1")
}

func locationPath(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return u.Path
}
