package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/ports"
)

// DefaultSessionTTL bounds a session when neither config nor token supply an expiry.
const DefaultSessionTTL = 8 * time.Hour

var (
	// ErrNoSession is returned by Current when no active session exists for the ID.
	ErrNoSession = errors.New("no active session")
	// ErrSessionExpired is returned by Login for a session whose expiry has already passed.
	ErrSessionExpired = errors.New("session expired")
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store  ports.SessionStore
	TTL    time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

// SessionService holds the authenticated user's session. It is the only
// component that writes session records; it never calls the backend.
type SessionService struct {
	store  ports.SessionStore
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{store: opts.Store, ttl: ttl, now: now, logger: logger}
}

// Login persists sess as the active session and returns the stored record.
// An empty ID is replaced with a fresh one; ExpiresAt is capped at the TTL.
func (s *SessionService) Login(ctx context.Context, sess domainauth.Session) (domainauth.Session, error) {
	if strings.TrimSpace(sess.Username) == "" {
		return domainauth.Session{}, errors.New("session username is required")
	}
	if !sess.Role.Valid() {
		return domainauth.Session{}, errors.New("session role is invalid")
	}
	if sess.AccessToken == "" {
		return domainauth.Session{}, errors.New("session access token is required")
	}

	now := s.now()
	if sess.ID == "" {
		sess.ID = generateSessionID()
	}
	sess.CreatedAt = now
	if limit := now.Add(s.ttl); sess.ExpiresAt.IsZero() || sess.ExpiresAt.After(limit) {
		sess.ExpiresAt = limit
	}
	if sess.Expired(now) {
		return domainauth.Session{}, ErrSessionExpired
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Logout removes the session. It is idempotent: an empty or unknown ID is a no-op.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Current returns the active session for sessionID or ErrNoSession.
func (s *SessionService) Current(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(s.now()) {
		if deleteErr := s.store.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrNoSession, fmt.Errorf("delete expired session: %w", deleteErr))
		}
		return nil, ErrNoSession
	}
	return &sess, nil
}

// LogoutFromContext ends the session carried by ctx, if any. Its signature
// matches the backend client's unauthorized hook.
func (s *SessionService) LogoutFromContext(ctx context.Context) {
	sess, ok := domainauth.SessionFromContext(ctx)
	if !ok {
		return
	}
	if err := s.Logout(ctx, sess.ID); err != nil {
		s.logger.WarnContext(ctx, "forced logout failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "session ended after backend rejected credentials", "username", sess.Username)
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.New().String()
}
