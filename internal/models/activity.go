package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction is the ledger mutation an activity records.
type ActivityAction string

const (
	ActivityRegistered ActivityAction = "registered"
	ActivityCancelled  ActivityAction = "cancelled"
)

// Activity is an audit record of a committed registration change.
type Activity struct {
	ID             uuid.UUID      `json:"id"`
	RegistrationID uuid.UUID      `json:"registration_id"`
	UserID         uuid.UUID      `json:"user_id"`
	EventID        uuid.UUID      `json:"event_id"`
	Action         ActivityAction `json:"action"`
	OccurredAt     time.Time      `json:"occurred_at"`
	RecordedAt     time.Time      `json:"recorded_at,omitempty"`
}

// SeatDrift describes an event whose counter disagrees with its active registrations.
type SeatDrift struct {
	EventID        uuid.UUID `json:"event_id"`
	EventName      string    `json:"event_name"`
	Capacity       int       `json:"capacity"`
	AvailableSeats int       `json:"available_seats"`
	ActiveCount    int       `json:"active_count"`
	Expected       int       `json:"expected"`
	Repaired       bool      `json:"repaired"`
}

// ReconcileReport is the outcome of a seat-counter reconciliation pass.
type ReconcileReport struct {
	CheckedAt     time.Time   `json:"checked_at"`
	EventsChecked int         `json:"events_checked"`
	Drift         []SeatDrift `json:"drift"`
}
