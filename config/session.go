package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionStoreKind selects where console sessions live.
type SessionStoreKind string

const (
	// SessionStoreRedis keeps sessions in Redis (survives restarts, shared across replicas).
	SessionStoreRedis SessionStoreKind = "redis"
	// SessionStoreMemory keeps sessions in process memory (development only).
	SessionStoreMemory SessionStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch SessionStoreKind(v) {
	case SessionStoreRedis, SessionStoreMemory:
		*k = SessionStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreKind: %q (valid options: redis, memory)", v)
	}
}

// SessionConfig controls session persistence and lifetime.
type SessionConfig struct {
	Store SessionStoreKind `env:"STORE" envDefault:"redis"`

	// TTL caps the session lifetime; the backend token expiry may end it sooner.
	TTL time.Duration `env:"TTL" envDefault:"8h"`
}

// Sanitize keeps the TTL within a sensible range.
func (s *SessionConfig) Sanitize() {
	if s.Store == "" {
		s.Store = SessionStoreRedis
	}
	if s.TTL < time.Minute {
		s.TTL = time.Minute
	}
	if s.TTL > 7*24*time.Hour {
		s.TTL = 7 * 24 * time.Hour
	}
}
