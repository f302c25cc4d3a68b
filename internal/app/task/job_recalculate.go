package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/probelab/probelab-app/pkg/service/probe"
)

// RecalculateJob refreshes the derived fields of every probe nightly so
// manual edits never leave stale solid mass or density values.
type RecalculateJob struct {
	probeSvc *probe.Service
	logger   *slog.Logger
}

func NewRecalculateJob(probeSvc *probe.Service, logger *slog.Logger) *RecalculateJob {
	return &RecalculateJob{probeSvc: probeSvc, logger: logger}
}

func (j *RecalculateJob) Name() string { return "RecalculateJob" }

func (j *RecalculateJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stats, err := j.probeSvc.Recalculate(ctx)
	if err != nil {
		j.logger.Error("recalculation failed", slog.Any("error", err))
		return
	}
	j.logger.Info("recalculation done",
		slog.Int("total", stats.TotalProbes),
		slog.Int("updated_mass", stats.UpdatedMass),
		slog.Int("updated_density", stats.UpdatedDensity),
		slog.Int("skipped_density", stats.SkippedDensity),
	)
}
