package events

import (
	"encoding/json"
	"fmt"

	"github.com/aura-events/backend/internal/models"
)

// Columns lists event columns in ScanEvent order, qualified with alias "e".
const Columns = `e.id, e.name, e.organizer, e.location, e.starts_at, e.description, e.capacity, e.available_seats, e.category, e.tags, e.created_at`

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanEvent scans Columns followed by any extra destinations.
func ScanEvent(s Scanner, extra ...any) (*models.Event, error) {
	var (
		e    models.Event
		tags string
	)
	dest := []any{&e.ID, &e.Name, &e.Organizer, &e.Location, &e.Date, &e.Description, &e.Capacity, &e.AvailableSeats, &e.Category, &tags, &e.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	tagList, err := DecodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", e.ID, err)
	}
	e.Tags = tagList
	e.Date = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// EncodeTags stores a tag set as a JSON array.
func EncodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// DecodeTags parses a stored JSON tag array; empty input yields an empty set.
func DecodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}
