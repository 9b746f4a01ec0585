// Package main is the operator CLI: schema migrations, catalog seeding, seat reconciliation and activity inspection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/pkg/database"
)

// app holds state shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var verbose bool
	root := &cobra.Command{
		Use:           "eventctl",
		Short:         "Operate the event registration backend",
		Long:          `Administrative commands for the event registration backend: migrate the schema, seed the catalog, reconcile seat counters and inspect registration activity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = newLogger(verbose)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newReconcileCmd(a),
		newActivityCmd(a),
	)
	return root
}

func (a *app) openDB(ctx context.Context) (*database.DB, error) {
	if a.cfg.Database.Driver == database.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(a.cfg.Database.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := database.Open(ctx, database.Config{
		Driver:        a.cfg.Database.Driver,
		DSN:           a.cfg.Database.DSN(),
		TxMaxAttempts: a.cfg.Database.TxMaxAttempts,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, _ := config.Build()
	return logger
}
