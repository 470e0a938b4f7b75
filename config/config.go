package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// AppConfig is the main application configuration, composed of the
// per-area structs in this package. Values come from environment variables
// parsed with github.com/caarlos0/env:
//   - http.go: HTTP server and cookies
//   - backend.go: competency REST backend
//   - session.go: session store selection and lifetime
//   - redis.go: Redis connection
type AppConfig struct {
	// IsDev reads templates and static files from disk.
	// Set DEV=true or NODE_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	HTTP    HTTPConfig
	Backend BackendConfig `envPrefix:"BACKEND_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
}

// Sanitize applies guardrails to values loaded from env.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Backend.Sanitize()
	c.Session.Sanitize()
	c.detectDevMode()
}

// detectDevMode falls back to NODE_ENV when DEV is unset.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// Validate reports configuration that cannot start the console.
func (c *AppConfig) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_BASE_URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL))
	}

	if c.Session.Store == SessionStoreRedis {
		if err := c.Redis.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
