package task

import (
	"log/slog"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/probelab/probelab-app/pkg/service/probe"
	"github.com/probelab/probelab-app/pkg/service/snapshot"
)

// Scheduler owns the cron instance and the services the jobs depend on.
type Scheduler struct {
	cron        *cron.Cron
	logger      *slog.Logger
	probeSvc    *probe.Service
	snapshotSvc *snapshot.Service
}

// NewScheduler wires the cron instance with panic recovery, structured
// per-run logging, and skid protection for slow jobs.
func NewScheduler(probeSvc *probe.Service, snapshotSvc *snapshot.Service) *Scheduler {
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "cron")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.DelayIfStillRunning(cron.DefaultLogger),
		),
	)

	return &Scheduler{
		cron:        c,
		logger:      logger,
		probeSvc:    probeSvc,
		snapshotSvc: snapshotSvc,
	}
}

// RegisterJobs registers every periodic job.
func (s *Scheduler) RegisterJobs() {
	s.logger.Info("Registering all periodic jobs...")

	if _, err := s.cron.AddJob("0 0 3 * * *", NewRecalculateJob(s.probeSvc, s.logger)); err != nil {
		s.logger.Error("Failed to add 'RecalculateJob'", slog.Any("error", err))
		os.Exit(1)
	}
	s.logger.Info("-> Successfully registered 'RecalculateJob'", "schedule", "every day at 3:00:00 AM")

	if _, err := s.cron.AddJob("0 30 3 * * *", NewSnapshotPruneJob(s.snapshotSvc, s.logger)); err != nil {
		s.logger.Error("Failed to add 'SnapshotPruneJob'", slog.Any("error", err))
		os.Exit(1)
	}
	s.logger.Info("-> Successfully registered 'SnapshotPruneJob'", "schedule", "every day at 3:30:00 AM")

	s.logger.Info("All periodic jobs registered.")
}

// Start launches the cron scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Cron scheduler started.")
	s.cron.Start()
}

// Stop waits for running jobs before shutting the scheduler down.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler gracefully stopped.")
}
