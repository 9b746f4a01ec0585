package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/pkg/apperror"
)

// RegistrationStatus is the state of a (user, event) registration.
type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "active"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// ErrInvalidTransition is returned when a registration is moved to the state it already holds.
var ErrInvalidTransition = apperror.New(apperror.KindInternal, "invalid registration transition")

// Registration is the single row kept per (user, event) pair. It is never deleted;
// cancelling and registering again flip its status.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	EventID      uuid.UUID          `json:"event_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
}

// NewRegistration creates the first, active row for a pair.
func NewRegistration(userID, eventID uuid.UUID, at time.Time) *Registration {
	return &Registration{
		ID:           uuid.New(),
		UserID:       userID,
		EventID:      eventID,
		Status:       RegistrationActive,
		RegisteredAt: at.UTC(),
	}
}

// IsActive reports whether the registration currently holds a seat.
func (r *Registration) IsActive() bool {
	return r.Status == RegistrationActive
}

// Activate moves a cancelled registration back to active.
func (r *Registration) Activate(at time.Time) error {
	if r.Status != RegistrationCancelled {
		return ErrInvalidTransition
	}
	r.Status = RegistrationActive
	r.RegisteredAt = at.UTC()
	return nil
}

// Cancel releases the seat held by an active registration.
func (r *Registration) Cancel(at time.Time) error {
	if r.Status != RegistrationActive {
		return ErrInvalidTransition
	}
	r.Status = RegistrationCancelled
	r.RegisteredAt = at.UTC()
	return nil
}

// Confirmation is returned by a successful registration.
type Confirmation struct {
	Registration Registration `json:"registration"`
	Event        EventSummary `json:"event"`
}

// RegisteredEvent is an active registration joined with its event.
type RegisteredEvent struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	RegisteredAt   time.Time `json:"registration_date"`
	Event
}

// Schedule is a user's active registrations split around a point in time.
type Schedule struct {
	Upcoming []RegisteredEvent `json:"upcoming"`
	Past     []RegisteredEvent `json:"past"`
	Total    int               `json:"total"`
}
