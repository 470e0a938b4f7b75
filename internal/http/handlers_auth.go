package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/target/competency-console/internal/adapters/backend"
	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/service"
)

// AuthServiceInterface defines the auth operations used by the handlers.
type AuthServiceInterface interface {
	SessionResolver
	Login(ctx context.Context, in service.LoginInput) (domainauth.Session, error)
	Register(ctx context.Context, in service.RegisterInput) error
}

// AuthHandlers provides HTTP handlers for sign-in, registration and sign-out.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Renderer     *TemplateRenderer
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookies() sessionCookies { return sessionCookies{domain: h.CookieDomain} }

// LoginPage renders the sign-in form.
// GET /login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if GetSessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, domainauth.PathHome, http.StatusSeeOther)
		return
	}

	data := newPageData(r, PageLogin, "Login")
	data.RedirectURI = safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if r.URL.Query().Get("registered") != "" {
		data.Flash = "Registration successful!"
	}
	h.render(w, r, http.StatusOK, data)
}

// Login signs in with the backend and starts a console session.
// POST /login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}
	in := service.LoginInput{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	redirectURI := safeRedirectPath(r.PostFormValue("redirect_uri"))

	session, err := h.Svc.Login(r.Context(), in)
	if err != nil {
		f := classifyAuthError(err)
		h.logger().InfoContext(r.Context(), "login failed", "status", f.status, "error", err)
		if wantsJSON(r) {
			WriteError(w, ErrorParams{Code: f.status, ErrCode: "login_failed", Err: errors.New(f.message)})
			return
		}
		data := newPageData(r, PageLogin, "Login").withError("Login Failed! " + f.message).withFieldErrors(f.fields)
		data.RedirectURI = redirectURI
		data.Form = map[string]string{"email": in.Email}
		h.render(w, r, f.status, data)
		return
	}

	h.cookies().set(w, r, session)
	h.logger().InfoContext(r.Context(), "login succeeded", "username", session.Username, "role", session.Role.String())

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": redirectURI})
		return
	}
	http.Redirect(w, r, redirectURI, http.StatusSeeOther)
}

// RegisterPage renders the registration form.
// GET /register.
func (h *AuthHandlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, newPageData(r, PageRegister, "Register"))
}

// Register creates a backend account and sends the user to sign in.
// POST /register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}
	in := service.RegisterInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if err := h.Svc.Register(r.Context(), in); err != nil {
		f := classifyAuthError(err)
		h.logger().InfoContext(r.Context(), "registration failed", "status", f.status, "error", err)
		if wantsJSON(r) {
			WriteError(w, ErrorParams{Code: f.status, ErrCode: "registration_failed", Err: errors.New(f.message)})
			return
		}
		data := newPageData(r, PageRegister, "Register").withError("Registration failed! " + f.message).withFieldErrors(f.fields)
		data.Form = map[string]string{"username": in.Username, "email": in.Email}
		h.render(w, r, f.status, data)
		return
	}

	if wantsJSON(r) {
		WriteJSON(w, http.StatusCreated, map[string]string{"status": "success", "redirect_to": domainauth.PathLogin})
		return
	}
	q := url.Values{}
	q.Set("registered", "1")
	http.Redirect(w, r, domainauth.PathLogin+"?"+q.Encode(), http.StatusSeeOther)
}

// Logout ends the console session.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionIDFromRequest(r); sessionID != "" {
		if err := h.Svc.Logout(r.Context(), sessionID); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.cookies().clear(w, r)

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": domainauth.PathHome})
		return
	}
	http.Redirect(w, r, domainauth.PathHome, http.StatusSeeOther)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, service.ErrNoSession) {
			h.logger().WarnContext(r.Context(), "session lookup failed", "error", err)
		}
		h.cookies().clear(w, r)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]string{
			"username":        session.Username,
			"role":            session.Role.String(),
			"department_code": session.DepartmentCode,
		},
		"expires_at": session.ExpiresAt,
	})
}

func (h *AuthHandlers) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	if err := h.Renderer.Render(w, status, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render failed", "page", data.CurrentPage, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// authFailure is the user-facing outcome of a failed login or registration.
type authFailure struct {
	status  int
	message string
	fields  map[string]string
}

// classifyAuthError maps service errors to a status and a message. Backend
// rejections keep the backend's detail verbatim.
func classifyAuthError(err error) authFailure {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return authFailure{
			status:  http.StatusBadRequest,
			message: vErr.Message,
			fields:  map[string]string{vErr.Field: vErr.Message},
		}
	}

	if errors.Is(err, service.ErrSessionExpired) {
		return authFailure{status: http.StatusUnauthorized, message: "session expired, please sign in again"}
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		return authFailure{status: status, message: apiErr.Detail}
	}

	var roleErr domainauth.InvalidRoleError
	if errors.As(err, &roleErr) {
		return authFailure{status: http.StatusForbidden, message: "account role " + roleErr.Value + " is not supported"}
	}

	return authFailure{status: http.StatusBadGateway, message: "the backend could not be reached"}
}
