package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/martin13396/secure-media-library/internal/di"
	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/middleware"
	"github.com/martin13396/secure-media-library/pkg/config"
	"github.com/martin13396/secure-media-library/pkg/database"
	"github.com/martin13396/secure-media-library/pkg/logger"
	"github.com/martin13396/secure-media-library/pkg/redis"
	"github.com/martin13396/secure-media-library/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.App.Environment, cfg.App.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.IsDevelopment() {
		log.Warn("running with development token secrets; do not expose this instance")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Stores
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	cache, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		MaxRetries:   3,
	})
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer cache.Close()

	container, err := di.NewContainer(cfg, db, cache, log)
	if err != nil {
		log.Fatal("failed to build container", zap.Error(err))
	}

	go container.SessionSweeper.Start(ctx)

	router := setupRouter(cfg, container, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// setupRouter builds the HTTP surface. Admission runs before every route;
// the access gate and audit logging wrap the protected groups.
func setupRouter(cfg *config.Config, c *di.Container, log *logger.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		telemetry.TracingMiddleware(cfg.OTel.ServiceName),
		middleware.Logger(log),
		middleware.Admission(c.Filter),
	)

	router.GET("/health", c.HealthHandler.Health)
	router.GET("/ready", c.HealthHandler.Ready)

	gate := middleware.Gate(c.TokenManager, c.SessionService)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", c.AuthHandler.Login)
			auth.POST("/refresh", c.AuthHandler.Refresh)
			auth.POST("/logout", c.AuthHandler.Logout)

			sessions := auth.Group("/sessions", gate)
			{
				sessions.GET("", c.SessionHandler.List)
				sessions.DELETE("/:id", c.SessionHandler.Revoke)
			}
		}

		media := api.Group("/media", gate)
		{
			media.GET("", c.MediaHandler.List)
			media.GET("/:id", c.MediaHandler.Get)
			media.POST("/:id/favorite", c.MediaHandler.ToggleFavorite)
			media.GET("/:id/stream", c.AccessLogger.Record(domain.ActionStream), c.MediaHandler.Stream)
			media.GET("/:id/view", c.AccessLogger.Record(domain.ActionView), c.MediaHandler.View)
			media.GET("/:id/thumbnail", c.AccessLogger.Record(domain.ActionThumbnail), c.MediaHandler.Thumbnail)
			media.GET("/:id/preview", c.AccessLogger.Record(domain.ActionPreview), c.MediaHandler.Preview)
		}
	}

	// Delivery routes live at the top level so they match the URLs the
	// manifest rewriter hands to players: {base}/media/segment/... and
	// {base}/media/keys/...
	delivery := router.Group("/media", gate)
	{
		delivery.GET("/segment/:id/:n", c.AccessLogger.Record(domain.ActionSegment), c.MediaHandler.Segment)
		delivery.GET("/keys/:id", c.AccessLogger.Record(domain.ActionKey), c.MediaHandler.Key)
	}

	return router
}
