// Package ledger owns registration state and event seat counters. It is the
// only code that changes available_seats.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/apperror"
	"github.com/aura-events/backend/pkg/database"
)

var (
	ErrEventNotFound        = apperror.NotFound("Event not found")
	ErrEventFull            = apperror.Conflict("Event is full. No seats available.")
	ErrAlreadyRegistered    = apperror.Conflict("You are already registered for this event")
	ErrRegistrationNotFound = apperror.NotFound("Registration not found or already cancelled")
	// ErrSeatInvariant means a cancel found the counter already at capacity.
	ErrSeatInvariant = apperror.New(apperror.KindInternal, "seat counter out of range")
)

// ActivityPublisher receives committed registration changes.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, a models.Activity) error
}

// Ledger serializes Register and Cancel per event and commits each status
// change together with its seat adjustment.
type Ledger struct {
	db        *database.DB
	repo      *repository
	locks     *eventLocks
	publisher ActivityPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a ledger. publisher may be nil.
func New(db *database.DB, publisher ActivityPublisher, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		db:        db,
		repo:      &repository{db: db},
		locks:     newEventLocks(),
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Register gives the user a seat at the event, reactivating a cancelled
// registration when one exists.
func (l *Ledger) Register(ctx context.Context, userID, eventID uuid.UUID) (*models.Confirmation, error) {
	unlock, err := l.locks.lock(ctx, eventID)
	if err != nil {
		return nil, apperror.Internal("register aborted", err)
	}
	defer unlock()

	var conf models.Confirmation
	err = l.db.RunInTx(ctx, func(tx *database.Tx) error {
		now := l.now().UTC()
		event, err := l.repo.lockEvent(ctx, tx, eventID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if event.IsFull() {
			return ErrEventFull
		}

		reg, err := l.repo.findRegistration(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		switch {
		case reg == nil:
			reg = models.NewRegistration(userID, eventID, now)
			if err := l.repo.insertRegistration(ctx, tx, reg); err != nil {
				if l.db.Dialect.IsUniqueViolation(err) {
					l.logger.Debug("registration insert lost race", zap.String("event_id", eventID.String()), zap.String("user_id", userID.String()))
					return ErrAlreadyRegistered
				}
				return err
			}
		case reg.IsActive():
			return ErrAlreadyRegistered
		default:
			if err := reg.Activate(now); err != nil {
				return err
			}
			ok, err := l.repo.updateStatus(ctx, tx, reg, models.RegistrationCancelled)
			if err != nil {
				return err
			}
			if !ok {
				l.logger.Debug("reactivation lost race", zap.String("registration_id", reg.ID.String()))
				return ErrAlreadyRegistered
			}
		}

		ok, err := l.repo.takeSeat(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			l.logger.Debug("seat decrement lost race", zap.String("event_id", eventID.String()))
			return ErrEventFull
		}
		conf = models.Confirmation{Registration: *reg, Event: event.Summary()}
		return nil
	})
	if err != nil {
		return nil, l.classify("register", err, userID, eventID)
	}

	l.logger.Info("registration confirmed",
		zap.String("registration_id", conf.Registration.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
	)
	l.publish(ctx, conf.Registration, models.ActivityRegistered)
	return &conf, nil
}

// Cancel releases the user's active registration for the event.
func (l *Ledger) Cancel(ctx context.Context, userID, eventID uuid.UUID) error {
	unlock, err := l.locks.lock(ctx, eventID)
	if err != nil {
		return apperror.Internal("cancel aborted", err)
	}
	defer unlock()

	var cancelled models.Registration
	err = l.db.RunInTx(ctx, func(tx *database.Tx) error {
		now := l.now().UTC()
		if _, err := l.repo.lockEvent(ctx, tx, eventID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRegistrationNotFound
			}
			return err
		}
		reg, err := l.repo.findRegistration(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		if reg == nil || !reg.IsActive() {
			return ErrRegistrationNotFound
		}
		if err := reg.Cancel(now); err != nil {
			return err
		}
		ok, err := l.repo.updateStatus(ctx, tx, reg, models.RegistrationActive)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRegistrationNotFound
		}

		ok, err = l.repo.releaseSeat(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			l.logger.Error("seat counter already at capacity on cancel",
				zap.String("event_id", eventID.String()),
				zap.String("registration_id", reg.ID.String()),
			)
			return ErrSeatInvariant
		}
		cancelled = *reg
		return nil
	})
	if err != nil {
		return l.classify("cancel", err, userID, eventID)
	}

	l.logger.Info("registration cancelled",
		zap.String("registration_id", cancelled.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
	)
	l.publish(ctx, cancelled, models.ActivityCancelled)
	return nil
}

// ListForUser returns the user's active registrations split into upcoming
// (event date at or after now) and past, each ordered by event date.
func (l *Ledger) ListForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Schedule, error) {
	list, err := l.repo.listActive(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to fetch registered events", err)
	}
	s := &models.Schedule{
		Upcoming: []models.RegisteredEvent{},
		Past:     []models.RegisteredEvent{},
		Total:    len(list),
	}
	for _, re := range list {
		if re.Date.Before(now) {
			s.Past = append(s.Past, re)
		} else {
			s.Upcoming = append(s.Upcoming, re)
		}
	}
	return s, nil
}

// IsRegistered reports whether the user holds an active registration for the event.
func (l *Ledger) IsRegistered(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	ok, err := l.repo.isActive(ctx, userID, eventID)
	if err != nil {
		return false, apperror.Internal("failed to check registration", err)
	}
	return ok, nil
}

// classify passes business errors through and wraps everything else as internal.
func (l *Ledger) classify(op string, err error, userID, eventID uuid.UUID) error {
	if _, ok := apperror.As(err); ok && apperror.KindOf(err) != apperror.KindInternal {
		return err
	}
	l.logger.Error(op+" failed",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
		zap.Error(err),
	)
	if errors.Is(err, ErrSeatInvariant) {
		return err
	}
	return apperror.Internal(op+" failed", err)
}

func (l *Ledger) publish(ctx context.Context, reg models.Registration, action models.ActivityAction) {
	if l.publisher == nil {
		return
	}
	a := models.Activity{
		ID:             uuid.New(),
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		EventID:        reg.EventID,
		Action:         action,
		OccurredAt:     reg.RegisteredAt,
	}
	if err := l.publisher.PublishActivity(ctx, a); err != nil {
		l.logger.Warn("publish registration activity",
			zap.String("registration_id", reg.ID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
