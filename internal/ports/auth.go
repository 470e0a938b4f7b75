package ports

// Package ports defines interfaces (hexagonal ports) for session and backend behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"encoding/json"
	"errors"

	domainauth "github.com/target/competency-console/internal/domain/auth"
)

// ErrSessionNotFound is returned by SessionStore.Get for unknown or expired IDs.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// LoginRequest is the credential payload accepted by the backend login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the backend login response.
type LoginResponse struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	User           string `json:"user"`
	Role           string `json:"role"`
	DepartmentCode string `json:"department_code"`
}

// RegisterRequest is the payload accepted by the backend register endpoint.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Backend exposes the session endpoints of the competency backend.
type Backend interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) error
}

// ResourceFetcher reads a backend resource on behalf of the session carried by ctx.
type ResourceFetcher interface {
	Fetch(ctx context.Context, path string) (json.RawMessage, error)
}
