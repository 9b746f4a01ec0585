// Package main runs the event registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/ledger"
	"github.com/aura-events/backend/internal/registrations"
	"github.com/aura-events/backend/internal/seed"
	"github.com/aura-events/backend/pkg/cache"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
)

const cachePrefix = "catalog:"

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	if cfg.Database.Driver == database.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			logger.Fatal("create sqlite dir", zap.Error(err))
		}
	}
	db, err := database.Open(ctx, database.Config{
		Driver:        cfg.Database.Driver,
		DSN:           cfg.Database.DSN(),
		TxMaxAttempts: cfg.Database.TxMaxAttempts,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Without Redis the facet cache always misses and activity is not published.
	facets := cache.New(nil, cachePrefix)
	var publisher ledger.ActivityPublisher
	if rdb != nil {
		facets = cache.New(rdb.Client, cachePrefix)
		publisher = queue.NewQueue(rdb.Client, logger)
	}

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authService := auth.NewService(auth.NewRepository(db), jwtService, 0, logger)
	authHandler := auth.NewHandler(authService, logger)

	// Catalog and ledger
	eventService := events.NewService(events.NewRepository(db), facets, cfg.Catalog.CacheTTL, logger)
	registrationLedger := ledger.New(db, publisher, logger)
	eventHandler := events.NewHandler(eventService, registrationLedger, logger)
	registrationHandler := registrations.NewHandler(registrationLedger, logger)

	if cfg.Server.SeedOnStart {
		if _, err := seed.Run(ctx, eventService, logger); err != nil {
			logger.Fatal("seed", zap.Error(err))
		}
	}

	router := newRouter(handlers{
		auth:          authHandler,
		authn:         authService,
		events:        eventHandler,
		registrations: registrationHandler,
		stats:         eventService,
	}, cfg.Server.AllowedOrigins(), logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
