package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/activity"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/queue"
)

// Reconciler runs a seat-counter reconciliation pass.
type Reconciler interface {
	Reconcile(ctx context.Context, repair bool) (*models.ReconcileReport, error)
}

// ReportSink archives reconcile reports.
type ReportSink interface {
	UploadReport(ctx context.Context, report *models.ReconcileReport) (string, error)
}

// JobSource is the queue the processor drains.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Processor records registration activity and runs reconcile passes.
type Processor struct {
	activity   *activity.Repository
	reconciler Reconciler
	reports    ReportSink
	queue      JobSource
	logger     *zap.Logger
}

// NewProcessor creates a processor. reports and q may be nil.
func NewProcessor(activityRepo *activity.Repository, reconciler Reconciler, reports ReportSink, q JobSource, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{activity: activityRepo, reconciler: reconciler, reports: reports, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeActivity:
		var a models.Activity
		if err := json.Unmarshal(job.Payload, &a); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		if err := p.activity.Record(ctx, &a); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		p.logger.Debug("activity recorded", zap.String("registration_id", a.RegistrationID.String()), zap.String("action", string(a.Action)))
		return nil
	case queue.JobTypeReconcile:
		var payload queue.ReconcilePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		_, err := p.RunReconcile(ctx, payload.Repair)
		return err
	}
	return fmt.Errorf("unknown job type: %s", job.Type)
}

// RunReconcile runs a reconcile pass and archives the report when drift was found.
func (p *Processor) RunReconcile(ctx context.Context, repair bool) (*models.ReconcileReport, error) {
	report, err := p.reconciler.Reconcile(ctx, repair)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	p.logger.Info("reconcile finished",
		zap.Int("events_checked", report.EventsChecked),
		zap.Int("drift", len(report.Drift)),
		zap.Bool("repair", repair),
	)
	if p.reports != nil && len(report.Drift) > 0 {
		if _, err := p.reports.UploadReport(ctx, report); err != nil {
			return report, fmt.Errorf("upload report: %w", err)
		}
	}
	return report, nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("activity worker stopping")
			return nil
		default:
		}

		job, _, err := p.queue.Dequeue(ctx, queue.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleep(ctx, queue.RetryBackoff)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
