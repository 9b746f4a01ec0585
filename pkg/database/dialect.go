package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect covers the differences between the supported SQL engines.
type Dialect interface {
	Name() string
	// Rebind converts $n placeholders to the engine's syntax.
	Rebind(query string) string
	// LockClause is appended to SELECTs that must lock the rows they read.
	LockClause() string
	IsUniqueViolation(err error) bool
	// IsTransient reports lock contention, deadlocks and serialization failures.
	IsTransient(err error) bool
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) Rebind(query string) string { return query }

func (postgresDialect) LockClause() string { return " FOR UPDATE" }

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (postgresDialect) IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return DriverSQLite }

// Rebind turns $1 into ?1; SQLite numbered parameters keep argument reuse intact.
func (sqliteDialect) Rebind(query string) string {
	if !strings.Contains(query, "$") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (sqliteDialect) LockClause() string { return "" }

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// primary result code only; extended codes disabled on this connection
		return strings.Contains(sqErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

func (sqliteDialect) IsTransient(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
