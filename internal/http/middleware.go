package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionResolver looks up and removes console sessions.
type SessionResolver interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// GuardOptions configures the session middlewares.
type GuardOptions struct {
	Sessions     SessionResolver
	CookieDomain string
	Logger       *slog.Logger
}

func (o GuardOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// RequireRoles gates next behind the allowed roles.
//
// Without a session the stale cookie and any server-side record are cleaned
// up and browsers are sent to the login page. A session whose role is not
// allowed is sent home. API requests get 401/403 JSON instead of redirects.
func RequireRoles(opts GuardOptions, allowed domainauth.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			session := resolveSession(r, opts, sessionID)

			switch domainauth.Authorize(session, allowed) {
			case domainauth.DecisionRender:
				next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
			case domainauth.DecisionHome:
				if IsBrowserRequest(r) {
					http.Redirect(w, r, domainauth.PathHome, http.StatusSeeOther)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
			default:
				logoutCleanup(w, r, opts, sessionID)
				if IsBrowserRequest(r) {
					redirectToLogin(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
			}
		})
	}
}

// OptionalSession adds the session to the request context when one exists.
// A stale cookie is cleared.
func OptionalSession(opts GuardOptions) func(http.Handler) http.Handler {
	cookies := sessionCookies{domain: opts.CookieDomain}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			if session := resolveSession(r, opts, sessionID); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			} else if sessionID != "" {
				cookies.clear(w, r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveSession returns nil for a missing, expired or unreadable session.
func resolveSession(r *http.Request, opts GuardOptions, sessionID string) *domainauth.Session {
	if sessionID == "" {
		return nil
	}
	session, err := opts.Sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, service.ErrNoSession) {
			opts.logger().WarnContext(r.Context(), "session lookup failed", "error", err)
		}
		return nil
	}
	return session
}

// logoutCleanup drops the server-side record and the cookie. Both steps are
// no-ops when nothing is there.
func logoutCleanup(w http.ResponseWriter, r *http.Request, opts GuardOptions, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := opts.Sessions.Logout(r.Context(), sessionID); err != nil {
		opts.logger().WarnContext(r.Context(), "logout cleanup failed", "error", err)
	}
	sessionCookies{domain: opts.CookieDomain}.clear(w, r)
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection records whether the request came from a browser so that
// downstream handlers choose between HTML/redirects and JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest: /api/ and /static/ are never browser requests; otherwise
// an empty Accept header or one naming text/html is.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// wantsJSON reports whether an AJAX caller asked for a JSON reply.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// redirectToLogin sends the browser to the login page, remembering where it was going.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, loginURL(safeRedirectPath(r.URL.RequestURI())), http.StatusSeeOther)
}

// loginURL drops redirect targets that are themselves public pages.
func loginURL(redirectPath string) string {
	if redirectPath == "" {
		return domainauth.PathLogin
	}
	if u, err := url.Parse(redirectPath); err != nil || domainauth.IsPublicPath(u.Path) {
		return domainauth.PathLogin
	}
	q := url.Values{}
	q.Set("redirect_uri", redirectPath)
	return domainauth.PathLogin + "?" + q.Encode()
}

// safeRedirectPath ensures the redirect is a same-origin relative path
// starting with "/". Returns "/" when invalid. Backslashes are refused in
// raw or decoded form since browsers treat them as "/".
func safeRedirectPath(candidate string) string {
	if candidate == "" || strings.Contains(candidate, `\`) {
		return domainauth.PathHome
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(candidate, "//") || strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, `\`) {
		return domainauth.PathHome
	}
	return candidate
}
