package repository

import (
	"context"
	"errors"

	"github.com/probelab/probelab-app/pkg/domain/model"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("record not found")

// ProbeRepository is the persistence boundary of the probe catalog.
type ProbeRepository interface {
	Create(ctx context.Context, probe *model.Probe) (*model.Probe, error)
	// CreateMany inserts all probes atomically; either every probe of a
	// series is committed or none.
	CreateMany(ctx context.Context, probes []*model.Probe) ([]*model.Probe, error)
	Update(ctx context.Context, probe *model.Probe) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Probe, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*model.Probe, error)
	FindByName(ctx context.Context, name string) (*model.Probe, error)
	List(ctx context.Context) ([]*model.Probe, error)
	ListNames(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	// ReplaceAll swaps the whole catalog for the given set atomically.
	// Used by snapshot restore and CSV import.
	ReplaceAll(ctx context.Context, probes []*model.Probe) error
	NextGroupID(ctx context.Context) (uint, error)
}
