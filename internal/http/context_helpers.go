package httpx

import (
	"context"

	domainauth "github.com/target/competency-console/internal/domain/auth"
)

// SetSessionInContext returns a child context that carries the given session.
// The backend client reads the same key to attach the bearer token.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	return domainauth.WithSession(ctx, session)
}

// GetSessionFromContext retrieves the session from the request context, or nil.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := domainauth.SessionFromContext(ctx); ok {
		return s
	}
	return nil
}
