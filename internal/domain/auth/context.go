package auth

import "context"

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// WithSession returns a child context that carries the given session.
// If sess is nil, the original ctx is returned unchanged.
func WithSession(ctx context.Context, sess *Session) context.Context {
	if sess == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session carried by ctx and whether one was present.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	if sess, ok := ctx.Value(sessionKey{}).(*Session); ok && sess != nil {
		return sess, true
	}
	return nil, false
}
