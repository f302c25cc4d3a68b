package status

import (
	"context"
	"fmt"

	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
)

// Service exposes the workflow status and priority catalogs.
type Service struct {
	statusRepo   repository.StatusRepository
	priorityRepo repository.PriorityRepository
}

func NewService(statusRepo repository.StatusRepository, priorityRepo repository.PriorityRepository) *Service {
	return &Service{statusRepo: statusRepo, priorityRepo: priorityRepo}
}

// ListStatuses returns every workflow status ordered by ID.
func (s *Service) ListStatuses(ctx context.Context) ([]*model.Status, error) {
	return s.statusRepo.List(ctx)
}

// CreateStatus adds a new workflow status. Names must be unique.
func (s *Service) CreateStatus(ctx context.Context, req *model.CreateStatusRequest) (*model.Status, error) {
	exists, err := s.statusRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("статус '%s' уже существует", req.Name)
	}
	status := &model.Status{Name: req.Name, Color: req.Color}
	return s.statusRepo.Create(ctx, status)
}

// ListPriorities returns every priority level ordered by level.
func (s *Service) ListPriorities(ctx context.Context) ([]*model.Priority, error) {
	return s.priorityRepo.List(ctx)
}

// CreatePriority adds a new priority level. Names must be unique.
func (s *Service) CreatePriority(ctx context.Context, req *model.CreatePriorityRequest) (*model.Priority, error) {
	exists, err := s.priorityRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("приоритет '%s' уже существует", req.Name)
	}
	priority := &model.Priority{Name: req.Name, Level: req.Level}
	return s.priorityRepo.Create(ctx, priority)
}
