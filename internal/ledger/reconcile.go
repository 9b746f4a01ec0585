package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// Reconcile compares every event's seat counter with capacity minus its active
// registrations. With repair set, drifted counters are rewritten under the
// event lock; a drift whose expected value falls outside [0, capacity] is
// reported but left alone.
func (l *Ledger) Reconcile(ctx context.Context, repair bool) (*models.ReconcileReport, error) {
	counts, err := l.repo.seatCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("read seat counts: %w", err)
	}
	report := &models.ReconcileReport{
		CheckedAt:     l.now().UTC(),
		EventsChecked: len(counts),
		Drift:         []models.SeatDrift{},
	}
	for _, c := range counts {
		if c.availableSeats == c.expected() {
			continue
		}
		d := models.SeatDrift{
			EventID:        c.eventID,
			EventName:      c.name,
			Capacity:       c.capacity,
			AvailableSeats: c.availableSeats,
			ActiveCount:    c.active,
			Expected:       c.expected(),
		}
		if repair {
			repaired, err := l.repairEvent(ctx, c)
			if err != nil {
				return nil, err
			}
			d.Repaired = repaired
		}
		l.logger.Warn("seat counter drift",
			zap.String("event_id", d.EventID.String()),
			zap.Int("available_seats", d.AvailableSeats),
			zap.Int("expected", d.Expected),
			zap.Bool("repaired", d.Repaired),
		)
		report.Drift = append(report.Drift, d)
	}
	return report, nil
}

func (l *Ledger) repairEvent(ctx context.Context, c seatCount) (bool, error) {
	unlock, err := l.locks.lock(ctx, c.eventID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var repaired bool
	err = l.db.RunInTx(ctx, func(tx *database.Tx) error {
		if _, err := l.repo.lockEvent(ctx, tx, c.eventID); err != nil {
			return err
		}
		cur, err := l.repo.seatCountTx(ctx, tx, c.eventID)
		if err != nil {
			return err
		}
		want := cur.expected()
		if want < 0 || want > cur.capacity || cur.availableSeats == want {
			return nil
		}
		if err := l.repo.setSeats(ctx, tx, c.eventID, want); err != nil {
			return err
		}
		repaired = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("repair event %s: %w", c.eventID, err)
	}
	return repaired, nil
}
