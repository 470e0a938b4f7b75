package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, vars map[string]string) (AppConfig, error) {
	t.Helper()
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: vars})
	return cfg, err
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t, map[string]string{})
	require.NoError(t, err)
	cfg.Sanitize()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.CSRFEnabled)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.URI)
	assert.Empty(t, cfg.Redis.ClusterNodes)
	require.NoError(t, cfg.Validate())
}

func TestOverrides(t *testing.T) {
	cfg, err := parse(t, map[string]string{
		"DEV":                  "true",
		"HTTP_ADDR":            ":9000",
		"APP_COOKIE_DOMAIN":    "console.example.com",
		"HTTP_CSRF_ENABLED":    "false",
		"BACKEND_BASE_URL":     " https://api.example.com/ ",
		"BACKEND_TIMEOUT":      "5s",
		"SESSION_STORE":        "Memory",
		"SESSION_TTL":          "30m",
		"REDIS_USE_CLUSTER":    "true",
		"REDIS_CLUSTER_NODES":  "r1:6379,r2:6379",
		"REDIS_SENTINEL_NODES": "s1:26379",
	})
	require.NoError(t, err)
	cfg.Sanitize()

	assert.True(t, cfg.IsDev)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "console.example.com", cfg.HTTP.CookieDomain)
	assert.False(t, cfg.HTTP.CSRFEnabled)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, cfg.Redis.ClusterNodes)
	require.NoError(t, cfg.Validate())
}

func TestInvalidSessionStore(t *testing.T) {
	_, err := parse(t, map[string]string{"SESSION_STORE": "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid options: redis, memory")
}

func TestSanitizeClamps(t *testing.T) {
	cfg := AppConfig{
		Backend: BackendConfig{Timeout: time.Hour},
		Session: SessionConfig{TTL: time.Second},
	}
	cfg.Sanitize()
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, time.Minute, cfg.Session.TTL)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	cfg.Session.TTL = 30 * 24 * time.Hour
	cfg.Session.Sanitize()
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
}

func TestDetectDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{}
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}

func TestValidate(t *testing.T) {
	base := func() AppConfig {
		return AppConfig{
			Backend: BackendConfig{BaseURL: "http://127.0.0.1:8000"},
			Session: SessionConfig{Store: SessionStoreRedis},
			Redis:   RedisConfig{URI: "localhost:6379"},
		}
	}

	cfg := base()
	cfg.Backend.BaseURL = "127.0.0.1:8000"
	assert.ErrorContains(t, cfg.Validate(), "BACKEND_BASE_URL")

	cfg = base()
	cfg.Redis = RedisConfig{UseCluster: true}
	assert.ErrorContains(t, cfg.Validate(), "REDIS_CLUSTER_NODES")

	cfg = base()
	cfg.Redis = RedisConfig{UseCluster: true, UseSentinel: true, ClusterNodes: []string{"a"}}
	assert.ErrorContains(t, cfg.Validate(), "mutually exclusive")

	cfg = base()
	cfg.Redis = RedisConfig{UseSentinel: true, SentinelNodes: []string{"s:26379"}}
	assert.ErrorContains(t, cfg.Validate(), "SENTINEL_MASTER_NAME")

	// Redis settings are ignored for the memory store.
	cfg = base()
	cfg.Session.Store = SessionStoreMemory
	cfg.Redis = RedisConfig{}
	assert.NoError(t, cfg.Validate())
}
