package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/probelab/probelab-app/pkg/service/snapshot"
)

// SnapshotPruneJob enforces the snapshot retention limit nightly, in case
// pruning after individual snapshots was skipped by a crash.
type SnapshotPruneJob struct {
	snapshotSvc *snapshot.Service
	logger      *slog.Logger
}

func NewSnapshotPruneJob(snapshotSvc *snapshot.Service, logger *slog.Logger) *SnapshotPruneJob {
	return &SnapshotPruneJob{snapshotSvc: snapshotSvc, logger: logger}
}

func (j *SnapshotPruneJob) Name() string { return "SnapshotPruneJob" }

func (j *SnapshotPruneJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.snapshotSvc.Prune(ctx); err != nil {
		j.logger.Error("snapshot pruning failed", slog.Any("error", err))
		return
	}
	j.logger.Info("snapshot pruning done")
}
