package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/competency-console/config"
	"github.com/target/competency-console/internal/adapters/backend"
	"github.com/target/competency-console/internal/adapters/memory"
	redisstore "github.com/target/competency-console/internal/adapters/redis"
	"github.com/target/competency-console/internal/ports"
	"github.com/target/competency-console/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions *service.SessionService
	Auth     *service.AuthService
	Reports  *service.ReportService
	Backend  *backend.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient // required when the session store is redis
	Logger      *slog.Logger
}

// NewServices builds the session store, the backend client and the services
// on top of them. The client's unauthorized hook is wired to the session
// service before anything can issue a request.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := newSessionStore(deps.Config.Session.Store, deps.RedisClient)
	if err != nil {
		return ServiceContainer{}, err
	}
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Store:  store,
		TTL:    deps.Config.Session.TTL,
		Logger: logger,
	})

	client, err := backend.New(backend.Config{
		BaseURL: deps.Config.Backend.BaseURL,
		Timeout: deps.Config.Backend.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("backend client: %w", err)
	}
	client.Configure(sessions.LogoutFromContext)

	return ServiceContainer{
		Sessions: sessions,
		Auth:     service.NewAuthService(service.AuthServiceOptions{Backend: client, Sessions: sessions}),
		Reports:  service.NewReportService(service.ReportServiceOptions{Fetcher: client, Logger: logger}),
		Backend:  client,
	}, nil
}

//nolint:ireturn // the store kind is chosen at runtime.
func newSessionStore(kind config.SessionStoreKind, client redis.UniversalClient) (ports.SessionStore, error) {
	switch kind {
	case config.SessionStoreMemory:
		return memory.NewSessionStore(), nil
	case config.SessionStoreRedis, "":
		if client == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		return redisstore.NewSessionStore(client), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}

// ConnectInfrastructure opens the Redis connection when the session store
// needs one. The returned client is nil for the memory store.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func ConnectInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Session.Store != config.SessionStoreRedis {
		logger.WarnContext(ctx, "using in-memory session store; sessions are lost on restart")
		return nil, nil
	}
	client, err := ConnectRedis(ctx, RedisConnectConfig{RedisConfig: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
