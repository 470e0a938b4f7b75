package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/target/competency-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Backend         = (*StubBackend)(nil)
	_ ports.ResourceFetcher = (*StubBackend)(nil)
)

// StubBackend simulates the competency backend with deterministic responses.
// Func fields override the defaults.
type StubBackend struct {
	LoginFunc    func(ctx context.Context, in ports.LoginRequest) (ports.LoginResponse, error)
	RegisterFunc func(ctx context.Context, in ports.RegisterRequest) error
	FetchFunc    func(ctx context.Context, path string) (json.RawMessage, error)

	// Defaults used when LoginFunc is nil.
	User           string
	Role           string
	DepartmentCode string
	TokenTTL       time.Duration

	mu      sync.Mutex
	logins  []ports.LoginRequest
	fetches []string
}

// NewStubBackend returns a backend that signs everyone in as an HR user.
func NewStubBackend() *StubBackend {
	return &StubBackend{
		User:           "E1001",
		Role:           "HR",
		DepartmentCode: "HRD",
		TokenTTL:       time.Hour,
	}
}

func (m *StubBackend) Login(ctx context.Context, in ports.LoginRequest) (ports.LoginResponse, error) {
	m.mu.Lock()
	m.logins = append(m.logins, in)
	n := len(m.logins)
	m.mu.Unlock()

	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, in)
	}

	access, err := SignedToken(m.User, time.Now().Add(m.TokenTTL))
	if err != nil {
		return ports.LoginResponse{}, err
	}
	return ports.LoginResponse{
		AccessToken:    access,
		RefreshToken:   fmt.Sprintf("refresh-%d", n),
		User:           m.User,
		Role:           m.Role,
		DepartmentCode: m.DepartmentCode,
	}, nil
}

func (m *StubBackend) Register(ctx context.Context, in ports.RegisterRequest) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return nil
}

func (m *StubBackend) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	m.mu.Lock()
	m.fetches = append(m.fetches, path)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, path)
	}
	return json.RawMessage(`[]`), nil
}

// LoginCalls returns the number of Login calls observed.
func (m *StubBackend) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logins)
}

// Fetched returns the fetched paths in call order.
func (m *StubBackend) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.fetches))
	copy(out, m.fetches)
	return out
}

// SignedToken builds an HS256 JWT with sub and exp claims, the shape the
// backend issues as access tokens.
func SignedToken(subject string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("stub-backend-signing-key"))
}
