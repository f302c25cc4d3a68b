package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/probelab/probelab-app/pkg/constant"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/service/snapshot"
)

// csvProbe is the flat CSV row shape of a probe. Tags are joined with
// semicolons so the file round-trips through spreadsheet tools.
type csvProbe struct {
	Name         string  `csv:"name"`
	SampleMass   float64 `csv:"sample_mass"`
	VolumeMl     float64 `csv:"volume_ml"`
	Fe           float64 `csv:"Fe"`
	Ni           float64 `csv:"Ni"`
	Cu           float64 `csv:"Cu"`
	SolidMassG   float64 `csv:"solid_mass_g"`
	Density      float64 `csv:"density"`
	StatusID     uint    `csv:"status_id"`
	Priority     int     `csv:"priority"`
	Tags         string  `csv:"tags"`
	MethodNumber string  `csv:"method_number"`
	RepeatNumber string  `csv:"repeat_number"`
	IsSeries     bool    `csv:"is_series"`
	SeriesBase   string  `csv:"series_base"`
}

const tagSeparator = ";"

// Service imports and exports the probe catalog as CSV files.
type Service struct {
	probeRepo   repository.ProbeRepository
	snapshotSvc *snapshot.Service
	dir         string
}

// NewService builds the export Service; dir is created on demand.
func NewService(probeRepo repository.ProbeRepository, snapshotSvc *snapshot.Service, dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	return &Service{probeRepo: probeRepo, snapshotSvc: snapshotSvc, dir: dir}, nil
}

func toCSVRow(p *model.Probe) *csvProbe {
	return &csvProbe{
		Name:         p.Name,
		SampleMass:   p.SampleMass,
		VolumeMl:     p.VolumeMl,
		Fe:           p.Fe,
		Ni:           p.Ni,
		Cu:           p.Cu,
		SolidMassG:   p.SolidMassG,
		Density:      p.Density,
		StatusID:     p.StatusID,
		Priority:     p.Priority,
		Tags:         strings.Join(p.Tags, tagSeparator),
		MethodNumber: p.MethodNumber,
		RepeatNumber: p.RepeatNumber,
		IsSeries:     p.IsSeries,
		SeriesBase:   p.SeriesBase,
	}
}

func splitTags(raw string) model.StringList {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, tagSeparator)
	tags := make(model.StringList, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Export writes the whole catalog to a timestamped CSV file and returns
// its path. The file is written under a temporary name first so readers
// never see a partial export.
func (s *Service) Export(ctx context.Context) (string, error) {
	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return "", err
	}

	rows := make([]*csvProbe, len(probes))
	for i, p := range probes {
		rows[i] = toCSVRow(p)
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return "", fmt.Errorf("encoding csv: %w", err)
	}

	name := fmt.Sprintf("export_%s.csv", time.Now().Format("20060102_150405"))
	tmp := filepath.Join(s.dir, uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}
	final := filepath.Join(s.dir, name)
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publishing export file: %w", err)
	}
	return final, nil
}

// ImportStats reports one CSV import run.
type ImportStats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Import reads probes from a CSV stream. Rows whose name matches an
// existing probe update it; the rest are inserted. A snapshot is taken
// before any row changes.
func (s *Service) Import(ctx context.Context, r io.Reader, author string) (*ImportStats, error) {
	var rows []*csvProbe
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decoding csv: %w", err)
	}

	stats := &ImportStats{Total: len(rows)}
	if len(rows) == 0 {
		return stats, nil
	}

	if _, err := s.snapshotSvc.Create(ctx,
		fmt.Sprintf("Импорт %d проб из CSV", len(rows)), author, model.ChangeTypeImport); err != nil {
		return nil, fmt.Errorf("creating pre-import snapshot: %w", err)
	}

	now := time.Now()
	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" {
			stats.Skipped++
			continue
		}

		existing, err := s.probeRepo.FindByName(ctx, row.Name)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return stats, err
		}

		if existing != nil {
			applyCSVRow(existing, row)
			existing.UpdatedAt = now
			if err := s.probeRepo.Update(ctx, existing); err != nil {
				return stats, err
			}
			stats.Updated++
			continue
		}

		p := &model.Probe{
			StatusID:  constant.DefaultStatusID,
			Priority:  constant.DefaultPriority,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyCSVRow(p, row)
		if _, err := s.probeRepo.Create(ctx, p); err != nil {
			return stats, err
		}
		stats.Created++
	}
	return stats, nil
}

func applyCSVRow(p *model.Probe, row *csvProbe) {
	p.Name = row.Name
	p.SampleMass = row.SampleMass
	p.VolumeMl = row.VolumeMl
	p.Fe = row.Fe
	p.Ni = row.Ni
	p.Cu = row.Cu
	p.SolidMassG = row.SolidMassG
	p.Density = row.Density
	if row.StatusID != 0 {
		p.StatusID = row.StatusID
	}
	if row.Priority != 0 {
		p.Priority = row.Priority
	}
	p.Tags = splitTags(row.Tags)
	p.MethodNumber = row.MethodNumber
	p.RepeatNumber = row.RepeatNumber
	p.IsSeries = row.IsSeries
	p.SeriesBase = row.SeriesBase
}
