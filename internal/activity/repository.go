// Package activity persists the registration audit trail written by the worker.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// Repository handles registration activity persistence.
type Repository struct {
	db *database.DB
}

// NewRepository creates an activity repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Record stores an activity. Redelivered activities with a known id are ignored.
func (r *Repository) Record(ctx context.Context, a *models.Activity) error {
	if a.RecordedAt.IsZero() {
		a.RecordedAt = time.Now().UTC()
	}
	const q = `INSERT INTO registration_activity (id, registration_id, user_id, event_id, action, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.RegistrationID, a.UserID, a.EventID, a.Action, a.OccurredAt.UTC(), a.RecordedAt)
	return err
}

// ListByEvent returns the most recent activity for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]models.Activity, error) {
	const q = `SELECT id, registration_id, user_id, event_id, action, occurred_at, recorded_at
		FROM registration_activity WHERE event_id = $1
		ORDER BY occurred_at DESC, recorded_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.RegistrationID, &a.UserID, &a.EventID, &a.Action, &a.OccurredAt, &a.RecordedAt); err != nil {
			return nil, err
		}
		a.OccurredAt = a.OccurredAt.UTC()
		a.RecordedAt = a.RecordedAt.UTC()
		list = append(list, a)
	}
	return list, rows.Err()
}
