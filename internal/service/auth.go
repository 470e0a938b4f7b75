package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backend  ports.Backend
	Sessions *SessionService
}

// AuthService orchestrates sign-in and registration against the backend and
// session persistence.
type AuthService struct {
	backend  ports.Backend
	sessions *SessionService
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		backend:  opts.Backend,
		sessions: opts.Sessions,
	}
}

// ValidationError reports a form field rejected before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// LoginInput holds the login form values.
type LoginInput struct {
	Email    string
	Password string
}

// Validate checks the form locally.
func (in LoginInput) Validate() error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}

// RegisterInput holds the registration form values.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Validate checks the form locally.
func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "email is not valid"}
	}
	return nil
}

// Login signs in against the backend and persists the resulting session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (domainauth.Session, error) {
	if err := in.Validate(); err != nil {
		return domainauth.Session{}, err
	}

	resp, err := s.backend.Login(ctx, ports.LoginRequest{
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	})
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("backend login: %w", err)
	}

	role, err := domainauth.ParseRole(resp.Role)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("backend login: %w", err)
	}
	if resp.AccessToken == "" {
		return domainauth.Session{}, errors.New("backend login: no access token issued")
	}

	sess := domainauth.Session{
		Username:       resp.User,
		Role:           role,
		DepartmentCode: resp.DepartmentCode,
		AccessToken:    resp.AccessToken,
		RefreshToken:   resp.RefreshToken,
	}
	if exp, ok := tokenExpiry(resp.AccessToken); ok {
		sess.ExpiresAt = exp
	}

	return s.sessions.Login(ctx, sess)
}

// Register creates an account on the backend. It does not sign the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	err := s.backend.Register(ctx, ports.RegisterRequest{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	})
	if err != nil {
		return fmt.Errorf("backend register: %w", err)
	}
	return nil
}

// GetSession returns the active session for sessionID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	return s.sessions.Current(ctx, sessionID)
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Logout(ctx, sessionID)
}

// tokenExpiry reads the exp claim of a backend JWT. The signature is not
// checked here; the backend verifies its own tokens on every request.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
