// Package main runs the background worker: activity recording and scheduled seat reconciliation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/internal/activity"
	"github.com/aura-events/backend/internal/ledger"
	"github.com/aura-events/backend/internal/worker"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
	"github.com/aura-events/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, logger)
	stop()
	if err != nil {
		logger.Error("worker", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("worker stopped")
	_ = logger.Sync()
}

// run serves until ctx ends. Every resource it opens is closed before it returns.
func run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(ctx, database.Config{
		Driver:        cfg.Database.Driver,
		DSN:           cfg.Database.DSN(),
		TxMaxAttempts: cfg.Database.TxMaxAttempts,
	}, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	var reports worker.ReportSink
	if cfg.AWS.ReportsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ReportsBucket:        cfg.AWS.ReportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			reports = s3Client
		}
	}

	var source worker.JobSource
	if rdb != nil {
		source = queue.NewQueue(rdb.Client, logger)
	}

	processor := worker.NewProcessor(activity.NewRepository(db), ledger.New(db, nil, logger), reports, source, logger)

	scheduler, err := worker.NewReconcileScheduler(ctx, processor, cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileRepair)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if source != nil {
		g.Go(func() error { return processor.Run(gctx) })
		logger.Info("activity worker started")
	} else {
		logger.Warn("activity worker disabled: REDIS_ADDR not set")
	}
	g.Go(func() error {
		scheduler.Start()
		logger.Info("reconcile scheduler started", zap.Duration("interval", cfg.Worker.ReconcileInterval), zap.Bool("repair", cfg.Worker.ReconcileRepair))
		<-gctx.Done()
		return scheduler.Shutdown()
	})

	return g.Wait()
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
