package repository

import (
	"context"

	"github.com/probelab/probelab-app/pkg/domain/model"
)

// StatusRepository stores workflow statuses.
type StatusRepository interface {
	Create(ctx context.Context, status *model.Status) (*model.Status, error)
	FindByID(ctx context.Context, id uint) (*model.Status, error)
	List(ctx context.Context) ([]*model.Status, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// PriorityRepository stores priority levels.
type PriorityRepository interface {
	Create(ctx context.Context, priority *model.Priority) (*model.Priority, error)
	List(ctx context.Context) ([]*model.Priority, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}
