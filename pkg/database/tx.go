package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RunInTx runs fn in a transaction. Transient storage failures roll back and
// retry up to the configured attempt count; any other error from fn is
// returned as-is after rollback.
func (db *DB) RunInTx(ctx context.Context, fn func(tx *Tx) error) error {
	var err error
	for attempt := 1; attempt <= db.txMaxAttempts; attempt++ {
		err = db.runOnce(ctx, fn)
		if err == nil || !db.Dialect.IsTransient(err) {
			return err
		}
		db.logger.Warn("transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", db.txMaxAttempts),
			zap.Error(err),
		)
		if attempt == db.txMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * TxRetryBackoff):
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", db.txMaxAttempts, err)
}

func (db *DB) runOnce(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Tx{tx: sqlTx, dialect: db.Dialect}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
