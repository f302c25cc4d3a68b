package repository

import (
	"context"

	"github.com/probelab/probelab-app/pkg/domain/model"
)

// SnapshotRepository stores snapshot metadata. Payload files are managed
// by the snapshot service, not by the repository.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *model.Snapshot) (*model.Snapshot, error)
	FindByID(ctx context.Context, id uint) (*model.Snapshot, error)
	Latest(ctx context.Context) (*model.Snapshot, error)
	List(ctx context.Context) ([]*model.Snapshot, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int, error)
	// Oldest returns up to n snapshots ordered oldest first, for retention
	// pruning.
	Oldest(ctx context.Context, n int) ([]*model.Snapshot, error)
}
