package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// repository holds the ledger's SQL. Mutating methods take the open transaction.
type repository struct {
	db *database.DB
}

// lockEvent reads an event, taking its row lock where the engine supports one.
// Returns sql.ErrNoRows when the event does not exist.
func (r *repository) lockEvent(ctx context.Context, tx *database.Tx, id uuid.UUID) (*models.Event, error) {
	q := `SELECT ` + events.Columns + ` FROM events e WHERE e.id = $1` + tx.LockClause()
	return events.ScanEvent(tx.QueryRowContext(ctx, q, id))
}

// findRegistration returns the pair's row, or nil when none was ever created.
func (r *repository) findRegistration(ctx context.Context, tx *database.Tx, userID, eventID uuid.UUID) (*models.Registration, error) {
	q := `SELECT id, user_id, event_id, status, registered_at FROM registrations
		WHERE user_id = $1 AND event_id = $2` + tx.LockClause()
	var reg models.Registration
	err := tx.QueryRowContext(ctx, q, userID, eventID).
		Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	reg.RegisteredAt = reg.RegisteredAt.UTC()
	return &reg, nil
}

func (r *repository) insertRegistration(ctx context.Context, tx *database.Tx, reg *models.Registration) error {
	const q = `INSERT INTO registrations (id, user_id, event_id, status, registered_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.ExecContext(ctx, q, reg.ID, reg.UserID, reg.EventID, reg.Status, reg.RegisteredAt)
	return err
}

// updateStatus writes reg's status and timestamp only if the row still holds from.
func (r *repository) updateStatus(ctx context.Context, tx *database.Tx, reg *models.Registration, from models.RegistrationStatus) (bool, error) {
	const q = `UPDATE registrations SET status = $1, registered_at = $2 WHERE id = $3 AND status = $4`
	res, err := tx.ExecContext(ctx, q, reg.Status, reg.RegisteredAt, reg.ID, from)
	return affectedOne(res, err)
}

// takeSeat decrements the counter only while seats remain.
func (r *repository) takeSeat(ctx context.Context, tx *database.Tx, eventID uuid.UUID) (bool, error) {
	const q = `UPDATE events SET available_seats = available_seats - 1 WHERE id = $1 AND available_seats > 0`
	res, err := tx.ExecContext(ctx, q, eventID)
	return affectedOne(res, err)
}

// releaseSeat increments the counter only while it is below capacity.
func (r *repository) releaseSeat(ctx context.Context, tx *database.Tx, eventID uuid.UUID) (bool, error) {
	const q = `UPDATE events SET available_seats = available_seats + 1 WHERE id = $1 AND available_seats < capacity`
	res, err := tx.ExecContext(ctx, q, eventID)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// listActive returns the user's active registrations joined with their events, by event date.
func (r *repository) listActive(ctx context.Context, userID uuid.UUID) ([]models.RegisteredEvent, error) {
	q := `SELECT ` + events.Columns + `, r.id, r.registered_at
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1 AND r.status = 'active'
		ORDER BY e.starts_at ASC, e.id ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.RegisteredEvent
	for rows.Next() {
		var (
			regID uuid.UUID
			regAt time.Time
		)
		e, err := events.ScanEvent(rows, &regID, &regAt)
		if err != nil {
			return nil, err
		}
		list = append(list, models.RegisteredEvent{RegistrationID: regID, RegisteredAt: regAt.UTC(), Event: *e})
	}
	return list, rows.Err()
}

func (r *repository) isActive(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE user_id = $1 AND event_id = $2 AND status = 'active'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID, eventID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// seatCount is an event's counter next to its actual active registrations.
type seatCount struct {
	eventID        uuid.UUID
	name           string
	capacity       int
	availableSeats int
	active         int
}

func (c seatCount) expected() int { return c.capacity - c.active }

const seatCountSelect = `SELECT e.id, e.name, e.capacity, e.available_seats,
		(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id AND r.status = 'active')
	FROM events e`

func (r *repository) seatCounts(ctx context.Context) ([]seatCount, error) {
	rows, err := r.db.QueryContext(ctx, seatCountSelect+` ORDER BY e.starts_at ASC, e.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []seatCount
	for rows.Next() {
		var c seatCount
		if err := rows.Scan(&c.eventID, &c.name, &c.capacity, &c.availableSeats, &c.active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) seatCountTx(ctx context.Context, tx *database.Tx, eventID uuid.UUID) (seatCount, error) {
	var c seatCount
	err := tx.QueryRowContext(ctx, seatCountSelect+` WHERE e.id = $1`, eventID).
		Scan(&c.eventID, &c.name, &c.capacity, &c.availableSeats, &c.active)
	return c, err
}

func (r *repository) setSeats(ctx context.Context, tx *database.Tx, eventID uuid.UUID, seats int) error {
	_, err := tx.ExecContext(ctx, `UPDATE events SET available_seats = $1 WHERE id = $2`, seats, eventID)
	return err
}
