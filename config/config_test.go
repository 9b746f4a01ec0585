package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 3, cfg.Database.TxMaxAttempts)
	require.Equal(t, 168, cfg.JWT.ExpireHours)
	require.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	require.Equal(t, 15*time.Minute, cfg.Worker.ReconcileInterval)
	require.Empty(t, cfg.Redis.Addr)
	require.Contains(t, cfg.Database.DSN(), "file:data/events.db?")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/events?sslmode=disable")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("RECONCILE_REPAIR", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "postgres://u:p@db:5432/events?sslmode=disable", cfg.Database.DSN())
	require.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
	require.True(t, cfg.Worker.ReconcileRepair)
}

func TestDSNFromComponents(t *testing.T) {
	c := DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "h", Port: "5433", DBName: "d", SSLMode: "require"}
	require.Equal(t, "postgres://u:p@h:5433/d?sslmode=require", c.DSN())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.ErrorContains(t, err, "DB_DRIVER")
}

func TestAllowedOrigins(t *testing.T) {
	s := ServerConfig{CORSAllowedOrigins: " http://a.test , ,http://b.test"}
	require.Equal(t, []string{"http://a.test", "http://b.test"}, s.AllowedOrigins())
}
