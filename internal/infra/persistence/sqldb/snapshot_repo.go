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

const snapshotColumns = `id, description, author, change_type, hash, filename, probe_count, size_bytes, created_at`

type snapshotRepository struct {
	db     *sql.DB
	driver string
}

// NewSnapshotRepository builds the SQL-backed snapshot metadata repository.
func NewSnapshotRepository(db *sql.DB, driver string) repository.SnapshotRepository {
	return &snapshotRepository{db: db, driver: driver}
}

func scanSnapshot(row interface{ Scan(...any) error }) (*model.Snapshot, error) {
	var s model.Snapshot
	err := row.Scan(&s.ID, &s.Description, &s.Author, &s.ChangeType, &s.Hash,
		&s.Filename, &s.ProbeCount, &s.SizeBytes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *snapshotRepository) Create(ctx context.Context, snapshot *model.Snapshot) (*model.Snapshot, error) {
	const query = `INSERT INTO snapshots
		(description, author, change_type, hash, filename, probe_count, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := database.InsertID(ctx, r.db, r.driver, query,
		snapshot.Description, snapshot.Author, snapshot.ChangeType, snapshot.Hash,
		snapshot.Filename, snapshot.ProbeCount, snapshot.SizeBytes, snapshot.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting snapshot: %w", err)
	}
	snapshot.ID = id
	return snapshot, nil
}

func (r *snapshotRepository) FindByID(ctx context.Context, id uint) (*model.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		database.Rebind(r.driver, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`), id)
	return scanSnapshot(row)
}

func (r *snapshotRepository) Latest(ctx context.Context) (*model.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanSnapshot(row)
}

func (r *snapshotRepository) List(ctx context.Context) ([]*model.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

func (r *snapshotRepository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx,
		database.Rebind(r.driver, `DELETE FROM snapshots WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *snapshotRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func (r *snapshotRepository) Oldest(ctx context.Context, n int) ([]*model.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		database.Rebind(r.driver, `SELECT `+snapshotColumns+` FROM snapshots ORDER BY created_at ASC, id ASC LIMIT ?`), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

func collectSnapshots(rows *sql.Rows) ([]*model.Snapshot, error) {
	var snapshots []*model.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
