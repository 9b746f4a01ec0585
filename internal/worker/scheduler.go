package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// NewReconcileScheduler schedules RunReconcile every interval. The caller starts
// and shuts down the returned scheduler.
func NewReconcileScheduler(ctx context.Context, p *Processor, interval time.Duration, repair bool) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := p.RunReconcile(ctx, repair); err != nil {
				p.logger.Error("scheduled reconcile failed", zap.Error(err))
			}
		}),
		gocron.WithName("seat-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule reconcile: %w", err)
	}
	return scheduler, nil
}
