package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/probelab/probelab-app/internal/infra/persistence/database"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
)

type statusRepository struct {
	db     *sql.DB
	driver string
}

// NewStatusRepository builds the SQL-backed status repository.
func NewStatusRepository(db *sql.DB, driver string) repository.StatusRepository {
	return &statusRepository{db: db, driver: driver}
}

func (r *statusRepository) Create(ctx context.Context, status *model.Status) (*model.Status, error) {
	id, err := database.InsertID(ctx, r.db, r.driver,
		`INSERT INTO statuses (name, color) VALUES (?, ?)`, status.Name, status.Color)
	if err != nil {
		return nil, fmt.Errorf("inserting status: %w", err)
	}
	status.ID = id
	return status, nil
}

func (r *statusRepository) FindByID(ctx context.Context, id uint) (*model.Status, error) {
	var s model.Status
	err := r.db.QueryRowContext(ctx,
		database.Rebind(r.driver, `SELECT id, name, color FROM statuses WHERE id = ?`), id).
		Scan(&s.ID, &s.Name, &s.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *statusRepository) List(ctx context.Context) ([]*model.Status, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*model.Status
	for rows.Next() {
		var s model.Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Color); err != nil {
			return nil, err
		}
		statuses = append(statuses, &s)
	}
	return statuses, rows.Err()
}

func (r *statusRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		database.Rebind(r.driver, `SELECT COUNT(*) FROM statuses WHERE name = ?`), name).Scan(&n)
	return n > 0, err
}

type priorityRepository struct {
	db     *sql.DB
	driver string
}

// NewPriorityRepository builds the SQL-backed priority repository.
func NewPriorityRepository(db *sql.DB, driver string) repository.PriorityRepository {
	return &priorityRepository{db: db, driver: driver}
}

func (r *priorityRepository) Create(ctx context.Context, priority *model.Priority) (*model.Priority, error) {
	id, err := database.InsertID(ctx, r.db, r.driver,
		`INSERT INTO priorities (name, level) VALUES (?, ?)`, priority.Name, priority.Level)
	if err != nil {
		return nil, fmt.Errorf("inserting priority: %w", err)
	}
	priority.ID = id
	return priority, nil
}

func (r *priorityRepository) List(ctx context.Context) ([]*model.Priority, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, level FROM priorities ORDER BY level, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var priorities []*model.Priority
	for rows.Next() {
		var p model.Priority
		if err := rows.Scan(&p.ID, &p.Name, &p.Level); err != nil {
			return nil, err
		}
		priorities = append(priorities, &p)
	}
	return priorities, rows.Err()
}

func (r *priorityRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		database.Rebind(r.driver, `SELECT COUNT(*) FROM priorities WHERE name = ?`), name).Scan(&n)
	return n > 0, err
}
