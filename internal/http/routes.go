package httpx

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	console "github.com/target/competency-console"
	domainauth "github.com/target/competency-console/internal/domain/auth"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth    AuthServiceInterface
	Reports ReportLoader

	CookieDomain string
	CSRFEnabled  bool
	IsDev        bool // read templates and static files from disk

	// TemplateFS overrides the template source (tests).
	TemplateFS fs.FS
	Logger     *slog.Logger
}

// NewRouter builds the console handler: public auth pages, one guarded
// screen per route-table entry, health checks and static assets.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, err := templateSource(services)
	if err != nil {
		return nil, err
	}
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("template renderer: %w", err)
	}

	guard := GuardOptions{Sessions: services.Auth, CookieDomain: services.CookieDomain, Logger: logger}
	authHandlers := &AuthHandlers{Svc: services.Auth, Renderer: renderer, CookieDomain: services.CookieDomain, Logger: logger}
	screenHandlers := &ScreenHandlers{Reports: services.Reports, Renderer: renderer, CookieDomain: services.CookieDomain, Logger: logger}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	static, err := staticHandler(services.IsDev)
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /static/", static)

	registerAuthRoutes(mux, authHandlers, guard)
	mux.Handle("GET /{$}", OptionalSession(guard)(http.HandlerFunc(screenHandlers.Home)))
	registerScreenRoutes(mux, screenHandlers, guard)

	// Anything else goes home.
	mux.Handle("/", http.RedirectHandler(domainauth.PathHome, http.StatusSeeOther))

	var handler http.Handler = mux
	if services.CSRFEnabled {
		handler = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(handler)
	}
	handler = BrowserDetection()(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler), nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, guard GuardOptions) {
	withSession := OptionalSession(guard)
	mux.Handle("GET "+domainauth.PathLogin, withSession(http.HandlerFunc(h.LoginPage)))
	mux.Handle("POST "+domainauth.PathLogin, withSession(http.HandlerFunc(h.Login)))
	mux.Handle("GET "+domainauth.PathRegister, withSession(http.HandlerFunc(h.RegisterPage)))
	mux.Handle("POST "+domainauth.PathRegister, withSession(http.HandlerFunc(h.Register)))
	mux.Handle("POST /logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(h.Status))
}

// registerScreenRoutes mounts every protected route behind the guard for its
// permission group.
func registerScreenRoutes(mux *http.ServeMux, h *ScreenHandlers, guard GuardOptions) {
	for _, rt := range domainauth.Routes() {
		gate := RequireRoles(guard, rt.Group.AllowedRoles())
		mux.Handle("GET "+rt.Path, gate(h.Screen(rt)))
	}
}

func templateSource(services RouterServices) (fs.FS, error) {
	switch {
	case services.TemplateFS != nil:
		return services.TemplateFS, nil
	case services.IsDev:
		return os.DirFS(TemplatePathFromRoot), nil
	default:
		sub, err := fs.Sub(console.TemplateFS, TemplatePathFromRoot)
		if err != nil {
			return nil, fmt.Errorf("embedded templates: %w", err)
		}
		return sub, nil
	}
}

// staticHandler serves /static/* from disk in dev mode and from the embedded
// files otherwise.
func staticHandler(isDev bool) (http.Handler, error) {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static")))), nil
	}
	sub, err := fs.Sub(console.StaticFS, "frontend/static")
	if err != nil {
		return nil, fmt.Errorf("embedded static assets: %w", err)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(sub)))), nil
}

func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		handler.ServeHTTP(w, r)
	})
}
