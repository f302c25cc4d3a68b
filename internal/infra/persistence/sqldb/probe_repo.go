package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/probelab/probelab-app/internal/infra/persistence/database"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
)

const probeColumns = `id, name, sample_mass, volume_ml, fe, ni, cu, solid_mass_g, density,
	status_id, priority, tags, method_number, repeat_number, is_series, series_base,
	group_id, created_at, updated_at`

// probeRepository is the database/sql implementation of
// repository.ProbeRepository.
type probeRepository struct {
	db     *sql.DB
	driver string
}

// NewProbeRepository builds the SQL-backed probe repository.
func NewProbeRepository(db *sql.DB, driver string) repository.ProbeRepository {
	return &probeRepository{db: db, driver: driver}
}

func (r *probeRepository) rebind(query string) string {
	return database.Rebind(r.driver, query)
}

func scanProbe(row interface{ Scan(...any) error }) (*model.Probe, error) {
	var (
		p       model.Probe
		groupID sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.SampleMass, &p.VolumeMl, &p.Fe, &p.Ni, &p.Cu,
		&p.SolidMassG, &p.Density, &p.StatusID, &p.Priority, &p.Tags,
		&p.MethodNumber, &p.RepeatNumber, &p.IsSeries, &p.SeriesBase,
		&groupID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if groupID.Valid {
		gid := uint(groupID.Int64)
		p.GroupID = &gid
	}
	return &p, nil
}

func probeArgs(p *model.Probe) []any {
	var groupID any
	if p.GroupID != nil {
		groupID = int64(*p.GroupID)
	}
	return []any{
		p.Name, p.SampleMass, p.VolumeMl, p.Fe, p.Ni, p.Cu, p.SolidMassG, p.Density,
		p.StatusID, p.Priority, p.Tags, p.MethodNumber, p.RepeatNumber,
		p.IsSeries, p.SeriesBase, groupID, p.CreatedAt, p.UpdatedAt,
	}
}

const insertProbeSQL = `INSERT INTO probes
	(name, sample_mass, volume_ml, fe, ni, cu, solid_mass_g, density,
	 status_id, priority, tags, method_number, repeat_number, is_series, series_base,
	 group_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *probeRepository) Create(ctx context.Context, probe *model.Probe) (*model.Probe, error) {
	id, err := database.InsertID(ctx, r.db, r.driver, insertProbeSQL, probeArgs(probe)...)
	if err != nil {
		return nil, fmt.Errorf("inserting probe: %w", err)
	}
	probe.ID = id
	return probe, nil
}

func (r *probeRepository) CreateMany(ctx context.Context, probes []*model.Probe) ([]*model.Probe, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.rebind(insertProbeSQL))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, p := range probes {
		if _, err := stmt.ExecContext(ctx, probeArgs(p)...); err != nil {
			return nil, fmt.Errorf("inserting probe %q: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// Re-read to pick up the generated IDs.
	out := make([]*model.Probe, 0, len(probes))
	for _, p := range probes {
		created, err := r.FindByName(ctx, p.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *probeRepository) Update(ctx context.Context, probe *model.Probe) error {
	query := r.rebind(`UPDATE probes SET
		name = ?, sample_mass = ?, volume_ml = ?, fe = ?, ni = ?, cu = ?,
		solid_mass_g = ?, density = ?, status_id = ?, priority = ?, tags = ?,
		method_number = ?, repeat_number = ?, is_series = ?, series_base = ?,
		group_id = ?, created_at = ?, updated_at = ?
		WHERE id = ?`)
	args := append(probeArgs(probe), probe.ID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating probe %d: %w", probe.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *probeRepository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM probes WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *probeRepository) FindByID(ctx context.Context, id uint) (*model.Probe, error) {
	row := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+probeColumns+` FROM probes WHERE id = ?`), id)
	return scanProbe(row)
}

func (r *probeRepository) FindByIDs(ctx context.Context, ids []uint) ([]*model.Probe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		r.rebind(`SELECT `+probeColumns+` FROM probes WHERE id IN (`+placeholders+`) ORDER BY id`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProbes(rows)
}

func (r *probeRepository) FindByName(ctx context.Context, name string) (*model.Probe, error) {
	row := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+probeColumns+` FROM probes WHERE name = ?`), name)
	return scanProbe(row)
}

func (r *probeRepository) List(ctx context.Context) ([]*model.Probe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+probeColumns+` FROM probes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProbes(rows)
}

func (r *probeRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM probes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *probeRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probes`).Scan(&n)
	return n, err
}

func (r *probeRepository) ReplaceAll(ctx context.Context, probes []*model.Probe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM probes`); err != nil {
		return fmt.Errorf("clearing probes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.rebind(insertProbeSQL))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range probes {
		if _, err := stmt.ExecContext(ctx, probeArgs(p)...); err != nil {
			return fmt.Errorf("restoring probe %q: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

func (r *probeRepository) NextGroupID(ctx context.Context) (uint, error) {
	var max sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(group_id) FROM probes`).Scan(&max); err != nil {
		return 0, err
	}
	return uint(max.Int64) + 1, nil
}

func collectProbes(rows *sql.Rows) ([]*model.Probe, error) {
	var probes []*model.Probe
	for rows.Next() {
		p, err := scanProbe(rows)
		if err != nil {
			return nil, err
		}
		probes = append(probes, p)
	}
	return probes, rows.Err()
}
