package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

var (
	errUserNotFound = errors.New("user not found")
	errEmailExists  = errors.New("email exists")
)

// Repository handles user and session persistence.
type Repository struct {
	db *database.DB
}

// NewRepository creates an auth repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`
	var u models.User
	err := r.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	u := models.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}
	const q = `INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.Password, u.CreatedAt); err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, errEmailExists
		}
		return nil, err
	}
	return &u, nil
}

// ReplaceSession makes tokenID the user's only valid session.
func (r *Repository) ReplaceSession(ctx context.Context, userID uuid.UUID, tokenID string) error {
	const q = `INSERT INTO sessions (user_id, token_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET token_id = excluded.token_id, created_at = excluded.created_at`
	_, err := r.db.ExecContext(ctx, q, userID, tokenID, time.Now().UTC())
	return err
}

// SessionTokenID returns the user's current token id, or "" when logged out.
func (r *Repository) SessionTokenID(ctx context.Context, userID uuid.UUID) (string, error) {
	var tokenID string
	err := r.db.QueryRowContext(ctx, `SELECT token_id FROM sessions WHERE user_id = $1`, userID).Scan(&tokenID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return tokenID, err
}

// DeleteSession removes the user's session if it still holds tokenID.
func (r *Repository) DeleteSession(ctx context.Context, userID uuid.UUID, tokenID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1 AND token_id = $2`, userID, tokenID)
	return err
}
