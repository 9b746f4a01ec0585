// Package testutil opens throwaway SQLite databases and inserts fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/backend/pkg/database"
)

// OpenSQLite returns a migrated database in the test's temp dir.
func OpenSQLite(t testing.TB) *database.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := database.Open(ctx, database.Config{
		Driver: database.DriverSQLite,
		DSN:    database.SQLiteDSN(path),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

// OpenSQLitePair returns two handles on one migrated database file. The second
// handle has no busy timeout, so a write that meets the first handle's open
// write transaction fails at once with SQLITE_BUSY.
func OpenSQLitePair(t testing.TB) (primary, contender *database.DB) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")
	primary, err := database.Open(ctx, database.Config{
		Driver: database.DriverSQLite,
		DSN:    database.SQLiteDSN(path),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = primary.Close() })
	require.NoError(t, database.Migrate(ctx, primary))

	contender, err = database.Open(ctx, database.Config{
		Driver:        database.DriverSQLite,
		DSN:           "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(0)&_pragma=journal_mode(WAL)&_time_format=sqlite",
		TxMaxAttempts: 3,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = contender.Close() })
	return primary, contender
}

// HoldWriteLock opens a transaction on db that has written to events and
// keeps it open until the test ends or the returned func is called.
func HoldWriteLock(t testing.TB, db *database.DB) (release func()) {
	t.Helper()
	tx, err := db.DB.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = tx.Exec(`UPDATE events SET name = name`)
	require.NoError(t, err)
	var once sync.Once
	release = func() { once.Do(func() { _ = tx.Rollback() }) }
	t.Cleanup(release)
	return release
}

// EventFixture describes an event row to insert.
type EventFixture struct {
	Name           string
	Location       string
	Category       string
	Description    string
	Date           time.Time
	Capacity       int
	AvailableSeats int
	Tags           []string
}

// InsertEvent inserts an event and returns its id. Zero AvailableSeats means "equal to Capacity";
// use SetAvailableSeats to force an exhausted event.
func InsertEvent(t testing.TB, db *database.DB, f EventFixture) uuid.UUID {
	t.Helper()
	if f.Name == "" {
		f.Name = "Fixture Event"
	}
	if f.Location == "" {
		f.Location = "Austin, TX"
	}
	if f.Capacity == 0 {
		f.Capacity = 10
	}
	if f.AvailableSeats == 0 {
		f.AvailableSeats = f.Capacity
	}
	if f.Date.IsZero() {
		f.Date = time.Now().Add(72 * time.Hour)
	}
	tags := "[]"
	if len(f.Tags) > 0 {
		tags = `["` + strings.Join(f.Tags, `","`) + `"]`
	}
	id := uuid.New()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO events (id, name, organizer, location, starts_at, description, capacity, available_seats, category, tags, created_at)
		 VALUES ($1, $2, 'Fixture Org', $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, f.Name, f.Location, f.Date.UTC(), f.Description, f.Capacity, f.AvailableSeats, f.Category, tags, time.Now().UTC())
	require.NoError(t, err)
	return id
}

// SetAvailableSeats overwrites an event's seat counter.
func SetAvailableSeats(t testing.TB, db *database.DB, eventID uuid.UUID, seats int) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `UPDATE events SET available_seats = $1 WHERE id = $2`, seats, eventID)
	require.NoError(t, err)
}

// AvailableSeats reads an event's seat counter.
func AvailableSeats(t testing.TB, db *database.DB, eventID uuid.UUID) int {
	t.Helper()
	var seats int
	require.NoError(t, db.QueryRowContext(context.Background(),
		`SELECT available_seats FROM events WHERE id = $1`, eventID).Scan(&seats))
	return seats
}

// CountRegistrations counts registration rows for an event, optionally filtered by status.
func CountRegistrations(t testing.TB, db *database.DB, eventID uuid.UUID, status string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND ($2 = '' OR status = $2)`, eventID, status).Scan(&n))
	return n
}

// InsertUser inserts a user with an unusable password hash and returns its id.
func InsertUser(t testing.TB, db *database.DB, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, 'x', $4)`,
		id, "User "+email, email, time.Now().UTC())
	require.NoError(t, err)
	return id
}
