package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// ErrNotFound is returned by repository lookups that match no row.
var ErrNotFound = errors.New("event not found")

// Repository handles event persistence for catalog reads and operator writes.
type Repository struct {
	db *database.DB
}

// NewRepository creates an event repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new event. ID and CreatedAt are assigned when zero.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	tags, err := EncodeTags(e.Tags)
	if err != nil {
		return err
	}
	const q = `INSERT INTO events (id, name, organizer, location, starts_at, description, capacity, available_seats, category, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, q, e.ID, e.Name, e.Organizer, e.Location, e.Date.UTC(), e.Description, e.Capacity, e.AvailableSeats, e.Category, tags, e.CreatedAt.UTC())
	return err
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	q := `SELECT ` + Columns + ` FROM events e WHERE e.id = $1`
	e, err := ScanEvent(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// whereClause builds the filter predicate and its arguments, numbering placeholders from 1.
func whereClause(f models.EventFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := next("%" + strings.ToLower(s) + "%")
		conds = append(conds, "(LOWER(e.name) LIKE "+p+" OR LOWER(e.description) LIKE "+p+")")
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		conds = append(conds, "e.category = "+next(c))
	}
	if l := strings.TrimSpace(f.Location); l != "" {
		conds = append(conds, "LOWER(e.location) LIKE "+next("%"+strings.ToLower(l)+"%"))
	}
	if f.DateFrom != nil {
		conds = append(conds, "e.starts_at >= "+next(f.DateFrom.UTC()))
	}
	if f.DateTo != nil {
		conds = append(conds, "e.starts_at <= "+next(f.DateTo.UTC()))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Count returns how many events match the filter.
func (r *Repository) Count(ctx context.Context, f models.EventFilter) (int, error) {
	where, args := whereClause(f)
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e`+where, args...).Scan(&total)
	return total, err
}

// List returns one page of matching events ordered by date ascending.
func (r *Repository) List(ctx context.Context, f models.EventFilter, limit, offset int) ([]models.Event, error) {
	where, args := whereClause(f)
	q := fmt.Sprintf(`SELECT %s FROM events e%s ORDER BY e.starts_at ASC, e.id ASC LIMIT $%d OFFSET $%d`,
		Columns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Event{}
	for rows.Next() {
		e, err := ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// Categories returns distinct non-empty categories in order.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT category FROM events WHERE category <> '' ORDER BY category`)
}

// Locations returns distinct locations in order.
func (r *Repository) Locations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT location FROM events ORDER BY location`)
}

func (r *Repository) distinct(ctx context.Context, q string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats returns event and user counts.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM events), (SELECT COUNT(*) FROM users)`).Scan(&s.Events, &s.Users)
	return s, err
}

// Stats are catalog-wide counts reported by the health endpoint.
type Stats struct {
	Events int `json:"events"`
	Users  int `json:"users"`
}
