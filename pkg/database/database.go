package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	// DriverPostgres selects PostgreSQL through pgx.
	DriverPostgres = "postgres"
	// DriverSQLite selects the embedded SQLite engine.
	DriverSQLite = "sqlite"

	// DefaultTxMaxAttempts bounds how often a transaction is retried on transient failures.
	DefaultTxMaxAttempts = 3
	// TxRetryBackoff is multiplied by the attempt number between retries.
	TxRetryBackoff = 20 * time.Millisecond
)

// Config holds connection settings for Open.
type Config struct {
	Driver        string
	DSN           string
	TxMaxAttempts int
}

// Querier is satisfied by both *DB and *Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps *sql.DB with the dialect it speaks. Queries are written with
// PostgreSQL-style $n placeholders and rebound for the active dialect.
type DB struct {
	*sql.DB
	Dialect       Dialect
	txMaxAttempts int
	logger        *zap.Logger
}

// Open connects to the configured database and verifies connectivity.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		sqlDB   *sql.DB
		dialect Dialect
		err     error
	)
	switch cfg.Driver {
	case DriverPostgres:
		dialect = postgresDialect{}
		sqlDB, err = openPostgres(cfg.DSN)
	case DriverSQLite:
		dialect = sqliteDialect{}
		sqlDB, err = sql.Open("sqlite", cfg.DSN)
		if err == nil {
			// SQLite allows a single writer; one connection keeps transactions queued in-process.
			sqlDB.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	attempts := cfg.TxMaxAttempts
	if attempts <= 0 {
		attempts = DefaultTxMaxAttempts
	}
	logger.Info("database connection established", zap.String("driver", cfg.Driver))
	return &DB{DB: sqlDB, Dialect: dialect, txMaxAttempts: attempts, logger: logger}, nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN with foreign keys, WAL and a busy timeout.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// ExecContext rebinds the query for the active dialect.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.Rebind(query), args...)
}

// QueryContext rebinds the query for the active dialect.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.Rebind(query), args...)
}

// QueryRowContext rebinds the query for the active dialect.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.Rebind(query), args...)
}

// Tx is a transaction that rebinds queries like DB.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// ExecContext rebinds the query for the active dialect.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

// QueryContext rebinds the query for the active dialect.
func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
}

// QueryRowContext rebinds the query for the active dialect.
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}

// LockClause returns the row-lock suffix for SELECTs inside this transaction.
func (t *Tx) LockClause() string {
	return t.dialect.LockClause()
}
