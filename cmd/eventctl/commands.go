package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aura-events/backend/internal/activity"
	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/ledger"
	"github.com/aura-events/backend/internal/seed"
	"github.com/aura-events/backend/internal/worker"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
	"github.com/aura-events/backend/pkg/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", db.Dialect.Name())
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter event catalog into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := events.NewService(events.NewRepository(db), nil, 0, a.logger)
			res, err := seed.Run(cmd.Context(), svc, a.logger)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "database already contains %d events, skipping seed\n", res.Count)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d events\n", res.Count)
			return nil
		},
	}
}

func newReconcileCmd(a *app) *cobra.Command {
	var (
		repair  bool
		enqueue bool
		upload  bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare seat counters with active registrations",
		Long:  `Checks every event for available_seats = capacity - active registrations. With --repair, drifted counters are rewritten. With --enqueue, the pass is queued for the worker instead of run here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if enqueue {
				rdb, err := redis.NewClient(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB, a.logger)
				if err != nil {
					return err
				}
				if rdb == nil {
					return fmt.Errorf("--enqueue requires REDIS_ADDR")
				}
				defer rdb.Close()
				q := queue.NewQueue(rdb.Client, a.logger)
				if err := q.EnqueueReconcile(ctx, queue.ReconcilePayload{Repair: repair, RequestedBy: "eventctl"}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "reconcile job queued")
				return nil
			}

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			var (
				reports worker.ReportSink
				s3      *storage.S3
			)
			if upload {
				if a.cfg.AWS.ReportsBucket == "" {
					return fmt.Errorf("--upload requires AWS_S3_REPORTS_BUCKET")
				}
				s3, err = storage.NewS3(ctx, storage.S3Config{
					Region:               a.cfg.AWS.Region,
					AccessKeyID:          a.cfg.AWS.AccessKeyID,
					SecretAccessKey:      a.cfg.AWS.SecretAccessKey,
					ReportsBucket:        a.cfg.AWS.ReportsBucket,
					PresignExpireMinutes: a.cfg.AWS.PresignExpireMinutes,
				}, a.logger)
				if err != nil {
					return err
				}
				reports = s3
			}

			p := worker.NewProcessor(activity.NewRepository(db), ledger.New(db, nil, a.logger), reports, nil, a.logger)
			report, err := p.RunReconcile(ctx, repair)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if s3 != nil && len(report.Drift) > 0 {
				url, err := s3.ReportDownloadURL(ctx, storage.ReportKey(report.CheckedAt))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report: %s\n", url)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "rewrite drifted seat counters")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "queue the pass for the worker")
	cmd.Flags().BoolVar(&upload, "upload", false, "archive a drift report to S3")
	return cmd
}

func newActivityCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity <event-id>",
		Short: "Show recent registration activity for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid event id %q: %w", args[0], err)
			}
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := activity.NewRepository(db).ListByEvent(cmd.Context(), eventID, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}
