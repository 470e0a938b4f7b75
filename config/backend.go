package config

import (
	"strings"
	"time"
)

// BackendConfig points the console at the competency REST backend.
type BackendConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://127.0.0.1:8000"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"15s"`
}

// Sanitize trims the base URL and clamps the timeout.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.Timeout <= 0 {
		b.Timeout = 15 * time.Second
	}
	if b.Timeout > 2*time.Minute {
		b.Timeout = 2 * time.Minute
	}
}
