// Package di wires the application graph.
package di

import (
	"fmt"
	"os"
	"time"

	"github.com/martin13396/secure-media-library/internal/handler"
	"github.com/martin13396/secure-media-library/internal/ipfilter"
	"github.com/martin13396/secure-media-library/internal/middleware"
	"github.com/martin13396/secure-media-library/internal/repository"
	"github.com/martin13396/secure-media-library/internal/service"
	"github.com/martin13396/secure-media-library/internal/vault"
	"github.com/martin13396/secure-media-library/internal/worker"
	"github.com/martin13396/secure-media-library/pkg/config"
	"github.com/martin13396/secure-media-library/pkg/database"
	"github.com/martin13396/secure-media-library/pkg/logger"
	"github.com/martin13396/secure-media-library/pkg/redis"
)

// Container holds all dependencies for the media service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Cache *redis.Client

	// Repositories
	UserRepo      repository.UserRepository
	SessionRepo   repository.SessionRepository
	SessionCache  repository.SessionCache
	MediaRepo     repository.MediaRepository
	KeyRepo       repository.EncryptionKeyRepository
	AccessLogRepo repository.AccessLogRepository

	// Services
	TokenManager   *service.TokenManager
	SessionService service.SessionService
	AuthService    service.AuthService
	MediaService   service.MediaService

	// Gate building blocks
	Filter       *ipfilter.Filter
	AccessLogger *middleware.AccessLogger

	// Workers
	SessionSweeper *worker.SessionSweeper

	// Handlers
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler
	SessionHandler *handler.SessionHandler
	MediaHandler   *handler.MediaHandler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, db *database.PostgresDB, cache *redis.Client, log *logger.Logger) (*Container, error) {
	c := &Container{
		DB:    db,
		Cache: cache,
	}

	pool := db.Pool()
	c.UserRepo = repository.NewPostgresUserRepository(pool)
	c.SessionRepo = repository.NewPostgresSessionRepository(pool)
	c.SessionCache = repository.NewRedisSessionCache(cache, cfg.Auth.SessionCacheTTL)
	c.MediaRepo = repository.NewPostgresMediaRepository(pool)
	c.KeyRepo = repository.NewPostgresEncryptionKeyRepository(pool)
	c.AccessLogRepo = repository.NewPostgresAccessLogRepository(pool)

	c.TokenManager = service.NewTokenManager(&service.TokenManagerConfig{
		AccessSecret:    cfg.Auth.AccessSecret,
		RefreshSecret:   cfg.Auth.RefreshSecret,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		Issuer:          cfg.Auth.Issuer,
	})

	c.SessionService = service.NewSessionService(c.SessionRepo, c.SessionCache, cfg.Auth.RefreshTokenTTL, log)

	authService, err := service.NewAuthService(c.UserRepo, c.SessionService, c.TokenManager,
		&service.AuthServiceConfig{BcryptCost: cfg.Auth.BcryptCost}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth service: %w", err)
	}
	c.AuthService = authService

	masterKey, err := os.ReadFile(cfg.Media.HLSKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load HLS key: %w", err)
	}

	c.MediaService = service.NewMediaService(c.MediaRepo, c.KeyRepo, vault.NewReader(log),
		&service.MediaServiceConfig{
			Root:          cfg.Media.Root,
			PublicBaseURL: cfg.Media.PublicBaseURL,
			MasterHLSKey:  masterKey,
		})

	c.Filter, err = ipfilter.New(cfg.Security.AllowedRanges)
	if err != nil {
		return nil, fmt.Errorf("failed to build admission filter: %w", err)
	}

	c.AccessLogger, err = middleware.NewAccessLogger(c.AccessLogRepo, cfg.Security.VPNSubnet, cfg.Security.VPNSentinel, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build access logger: %w", err)
	}

	c.SessionSweeper = worker.NewSessionSweeper(c.SessionRepo, time.Hour, log)

	c.HealthHandler = handler.NewHealthHandler(db, cache)
	c.AuthHandler = handler.NewAuthHandler(c.AuthService)
	c.SessionHandler = handler.NewSessionHandler(c.SessionService)
	c.MediaHandler = handler.NewMediaHandler(c.MediaService)

	return c, nil
}
