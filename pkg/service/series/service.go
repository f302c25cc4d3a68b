package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/service/snapshot"
	"github.com/probelab/probelab-app/pkg/service/utility"
)

// previewCacheTTL bounds how long a validation preview is reused.
const previewCacheTTL = 30 * time.Second

// Service wires the pure expander to the catalog: name validation with
// collision detection, and transactional series creation.
type Service struct {
	expander    *Expander
	probeRepo   repository.ProbeRepository
	snapshotSvc *snapshot.Service
	cacheSvc    utility.CacheService
}

// NewService is the series Service constructor.
func NewService(expander *Expander, probeRepo repository.ProbeRepository, snapshotSvc *snapshot.Service, cacheSvc utility.CacheService) *Service {
	return &Service{
		expander:    expander,
		probeRepo:   probeRepo,
		snapshotSvc: snapshotSvc,
		cacheSvc:    cacheSvc,
	}
}

// Validate checks a base name and previews the series it would generate,
// reporting any derived names that already exist in the catalog. A parse
// failure is not an error of this operation: it is reported inside the
// response so the client can render it.
func (s *Service) Validate(ctx context.Context, baseName string) (*model.ValidateSeriesResponse, error) {
	baseName = strings.TrimSpace(baseName)

	parsed, err := s.expander.ParseBaseName(baseName)
	if err != nil {
		if errors.Is(err, ErrInvalidNameFormat) {
			return &model.ValidateSeriesResponse{
				Valid: false,
				Error: ErrInvalidNameFormat.Error(),
			}, nil
		}
		return nil, err
	}

	cacheKey := "series:preview:" + baseName
	if cached, err := s.cacheSvc.Get(ctx, cacheKey); err == nil && cached != "" {
		var resp model.ValidateSeriesResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	generated := GeneratedNames(parsed)

	existingNames, err := s.probeRepo.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading existing probe names: %w", err)
	}
	existingSet := make(map[string]struct{}, len(existingNames))
	for _, name := range existingNames {
		existingSet[name] = struct{}{}
	}

	var existingInSeries []string
	for _, name := range generated {
		if _, ok := existingSet[name]; ok {
			existingInSeries = append(existingInSeries, name)
		}
	}

	resp := &model.ValidateSeriesResponse{
		Valid:            true,
		MethodNumber:     parsed.MethodNumber,
		RepeatNumber:     parsed.RepeatNumber,
		GeneratedNames:   generated,
		ExistingInSeries: existingInSeries,
	}
	if len(existingInSeries) > 0 {
		resp.Warning = fmt.Sprintf("Найдено %d существующих проб в этой серии", len(existingInSeries))
	}

	if encoded, err := json.Marshal(resp); err == nil {
		if err := s.cacheSvc.Set(ctx, cacheKey, string(encoded), previewCacheTTL); err != nil {
			log.Printf("series: caching preview failed: %v", err)
		}
	}
	return resp, nil
}

// Create persists a generated series. The base name is re-parsed server
// side; client-supplied drafts are ignored in favor of a fresh expansion
// so a tampered payload cannot smuggle arbitrary probes in.
func (s *Service) Create(ctx context.Context, req *model.CreateSeriesRequest, author string) (*model.CreateSeriesResponse, error) {
	parsed, err := s.expander.ParseBaseName(strings.TrimSpace(req.BaseName))
	if err != nil {
		return nil, err
	}

	drafts := s.expander.GenerateSeries(parsed, req.Mass.String(), req.Volume.String())

	if _, err := s.snapshotSvc.Create(ctx,
		fmt.Sprintf("Создание серии проб '%s' (методика %s)", parsed.FullName, parsed.MethodNumber),
		author, model.ChangeTypeSeriesCreation); err != nil {
		return nil, fmt.Errorf("creating pre-series snapshot: %w", err)
	}

	probes := make([]*model.Probe, len(drafts))
	for i, d := range drafts {
		probes[i] = &model.Probe{
			Name:         d.Name,
			SampleMass:   d.SampleMass,
			VolumeMl:     d.VolumeMl,
			Fe:           d.Fe,
			Ni:           d.Ni,
			Cu:           d.Cu,
			StatusID:     d.StatusID,
			Priority:     d.Priority,
			Tags:         model.StringList(d.Tags),
			MethodNumber: d.MethodNumber,
			RepeatNumber: parsed.RepeatNumber,
			IsSeries:     true,
			SeriesBase:   d.SeriesBase,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.CreatedAt,
		}
	}

	created, err := s.probeRepo.CreateMany(ctx, probes)
	if err != nil {
		return nil, fmt.Errorf("persisting series: %w", err)
	}

	if _, err := s.snapshotSvc.Create(ctx,
		fmt.Sprintf("Серия '%s' создана: %d проб", parsed.FullName, len(created)),
		"system", model.ChangeTypeSeriesComplete); err != nil {
		log.Printf("series: post-creation snapshot failed: %v", err)
	}

	if err := s.cacheSvc.Delete(ctx, "series:preview:"+parsed.FullName); err != nil {
		log.Printf("series: preview cache invalidation failed: %v", err)
	}

	names := make([]string, len(created))
	for i, p := range created {
		names[i] = p.Name
	}

	return &model.CreateSeriesResponse{
		BaseName:      parsed.FullName,
		MethodNumber:  parsed.MethodNumber,
		CreatedCount:  len(created),
		ProbesCreated: names,
	}, nil
}
