package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/backend/pkg/database"
)

func TestRunStopsWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("AWS_S3_REPORTS_BUCKET", "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, run(ctx, zaptest.NewLogger(t)))

	db, err := database.Open(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		DSN:    database.SQLiteDSN(path),
	}, nil)
	require.NoError(t, err)
	defer db.Close()
	var applied int
	require.NoError(t, db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	require.Equal(t, 2, applied)
}

func TestRunReportsConfigErrors(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	err := run(context.Background(), zaptest.NewLogger(t))
	require.ErrorContains(t, err, "load config")
}
