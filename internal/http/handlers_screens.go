package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/competency-console/internal/adapters/backend"
	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/service"
)

// ReportLoader fetches the backend data behind a console screen.
type ReportLoader interface {
	Load(ctx context.Context, rt domainauth.Route, vars map[string]string) (service.Report, error)
}

// ScreenHandlers serves the home page and the route-table screens.
type ScreenHandlers struct {
	Reports      ReportLoader
	Renderer     *TemplateRenderer
	CookieDomain string
	Logger       *slog.Logger
}

func (h *ScreenHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Home renders the landing page; signed-in users see the menu for their role.
// GET /.
func (h *ScreenHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, newPageData(r, PageHome, "Competency Console"))
}

// Screen returns the handler for one protected route. It runs behind
// RequireRoles, so a session is always in the request context.
func (h *ScreenHandlers) Screen(rt domainauth.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars, ok := screenVars(r, rt)
		if !ok {
			http.Redirect(w, r, domainauth.PathHome, http.StatusSeeOther)
			return
		}

		report, err := h.Reports.Load(r.Context(), rt, vars)
		if err != nil {
			h.loadFailed(w, r, rt, err)
			return
		}

		if !IsBrowserRequest(r) {
			WriteJSON(w, http.StatusOK, map[string]any{"title": rt.Title, "datasets": report.Datasets})
			return
		}
		data := newPageData(r, PageScreen, rt.Title)
		data.Datasets = report.Datasets
		h.render(w, r, http.StatusOK, data)
	}
}

// screenVars collects the route's path values and the session placeholders.
// It reports false when a path value is empty.
func screenVars(r *http.Request, rt domainauth.Route) (map[string]string, bool) {
	vars := map[string]string{}
	for _, name := range rt.Wildcards() {
		v := r.PathValue(name)
		if v == "" {
			return nil, false
		}
		vars[name] = v
	}
	if session := GetSessionFromContext(r.Context()); session != nil {
		vars[domainauth.VarUsername] = session.Username
		vars[domainauth.VarDepartmentCode] = session.DepartmentCode
	}
	return vars, true
}

func (h *ScreenHandlers) loadFailed(w http.ResponseWriter, r *http.Request, rt domainauth.Route, err error) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		// The client hook already removed the server-side session.
		sessionCookies{domain: h.CookieDomain}.clear(w, r)
		if IsBrowserRequest(r) {
			redirectToLogin(w, r)
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "session_expired", Err: err})
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// Client went away; the late response is discarded.
		return
	default:
		message := "The backend request failed."
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			message = apiErr.Detail
		}
		if !IsBrowserRequest(r) {
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "backend_error", Err: errors.New(message)})
			return
		}
		h.render(w, r, http.StatusBadGateway, newPageData(r, PageError, rt.Title).withError(message))
	}
}

func (h *ScreenHandlers) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	if err := h.Renderer.Render(w, status, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render failed", "page", data.CurrentPage, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
