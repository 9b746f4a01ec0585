package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled event with a fixed seat capacity.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Organizer      string    `json:"organizer"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	Capacity       int       `json:"capacity"`
	AvailableSeats int       `json:"available_seats"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsFull reports whether no seats remain.
func (e *Event) IsFull() bool {
	return e.AvailableSeats <= 0
}

// Summary returns the fields shown on a registration confirmation.
func (e *Event) Summary() EventSummary {
	return EventSummary{ID: e.ID, Name: e.Name, Date: e.Date, Location: e.Location}
}

// EventSummary is the denormalized event shown alongside a registration.
type EventSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
}

// EventFilter narrows a catalog listing. Empty fields match everything.
type EventFilter struct {
	Search   string
	Category string
	Location string
	DateFrom *time.Time
	DateTo   *time.Time
}
