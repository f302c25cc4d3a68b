package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/probelab/probelab-app/pkg/constant"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/idgen"
	"github.com/probelab/probelab-app/pkg/service/snapshot"
	"github.com/probelab/probelab-app/pkg/service/utility"
)

const statisticsCacheTTL = 60 * time.Second

// Service implements the probe catalog operations.
type Service struct {
	probeRepo   repository.ProbeRepository
	statusRepo  repository.StatusRepository
	snapshotSvc *snapshot.Service
	cacheSvc    utility.CacheService
}

// NewService is the probe Service constructor.
func NewService(probeRepo repository.ProbeRepository, statusRepo repository.StatusRepository, snapshotSvc *snapshot.Service, cacheSvc utility.CacheService) *Service {
	return &Service{
		probeRepo:   probeRepo,
		statusRepo:  statusRepo,
		snapshotSvc: snapshotSvc,
		cacheSvc:    cacheSvc,
	}
}

func toAPIResponse(p *model.Probe) *model.ProbeResponse {
	if p == nil {
		return nil
	}
	publicID, _ := idgen.GeneratePublicID(p.ID, idgen.EntityTypeProbe)
	resp := &model.ProbeResponse{
		ID:           publicID,
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
		Tags:         append([]string(nil), p.Tags...),
		MethodNumber: p.MethodNumber,
		RepeatNumber: p.RepeatNumber,
		IsSeries:     p.IsSeries,
		SeriesBase:   p.SeriesBase,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.GroupID != nil {
		groupID, _ := idgen.GeneratePublicID(*p.GroupID, idgen.EntityTypeGroup)
		resp.GroupID = &groupID
	}
	return resp
}

func toAPIResponses(probes []*model.Probe) []*model.ProbeResponse {
	out := make([]*model.ProbeResponse, len(probes))
	for i, p := range probes {
		out[i] = toAPIResponse(p)
	}
	return out
}

// decodeProbeID resolves a public ID to the internal one, rejecting IDs
// minted for other entity kinds.
func decodeProbeID(publicID string) (uint, error) {
	id, entityType, err := idgen.DecodePublicID(publicID)
	if err != nil {
		return 0, fmt.Errorf("decoding probe id: %w", err)
	}
	if entityType != idgen.EntityTypeProbe {
		return 0, fmt.Errorf("public id %q is not a probe id", publicID)
	}
	return id, nil
}

func decodeProbeIDs(publicIDs []string) ([]uint, error) {
	ids := make([]uint, 0, len(publicIDs))
	for _, pid := range publicIDs {
		id, err := decodeProbeID(pid)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]*model.ProbeResponse, error) {
	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toAPIResponses(probes), nil
}

// Get returns one probe.
func (s *Service) Get(ctx context.Context, publicID string) (*model.ProbeResponse, error) {
	id, err := decodeProbeID(publicID)
	if err != nil {
		return nil, err
	}
	p, err := s.probeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAPIResponse(p), nil
}

// Create adds a single probe with workflow defaults. Mass and volume
// arrive as raw form strings and fall back to safe defaults when
// unparsable, matching the behavior applied to user-entered numeric
// fields everywhere else.
func (s *Service) Create(ctx context.Context, req *model.CreateProbeRequest) (*model.ProbeResponse, error) {
	existing, err := s.probeRepo.FindByName(ctx, req.Name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("проба с именем '%s' уже существует", req.Name)
	}

	now := time.Now()
	p := &model.Probe{
		Name:       req.Name,
		SampleMass: coerceFloat(req.SampleMass.String(), 0),
		VolumeMl:   coerceFloat(req.VolumeMl.String(), 0),
		Fe:         req.Fe,
		Ni:         req.Ni,
		Cu:         req.Cu,
		StatusID:   constant.DefaultStatusID,
		Priority:   constant.DefaultPriority,
		Tags:       model.StringList(req.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.probeRepo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidateStatistics(ctx)
	return toAPIResponse(created), nil
}

// Update applies a partial update; the internal ID and creation time are
// immutable.
func (s *Service) Update(ctx context.Context, publicID string, req *model.UpdateProbeRequest) (*model.ProbeResponse, error) {
	id, err := decodeProbeID(publicID)
	if err != nil {
		return nil, err
	}
	p, err := s.probeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.SampleMass != nil {
		p.SampleMass = *req.SampleMass
	}
	if req.VolumeMl != nil {
		p.VolumeMl = *req.VolumeMl
	}
	if req.Fe != nil {
		p.Fe = *req.Fe
	}
	if req.Ni != nil {
		p.Ni = *req.Ni
	}
	if req.Cu != nil {
		p.Cu = *req.Cu
	}
	if req.StatusID != nil {
		if _, err := s.statusRepo.FindByID(ctx, *req.StatusID); err != nil {
			return nil, fmt.Errorf("unknown status id %d", *req.StatusID)
		}
		p.StatusID = *req.StatusID
	}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	if req.Tags != nil {
		p.Tags = model.StringList(req.Tags)
	}
	p.UpdatedAt = time.Now()

	if err := s.probeRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateStatistics(ctx)
	return toAPIResponse(p), nil
}

// Delete removes one probe; a snapshot is taken first.
func (s *Service) Delete(ctx context.Context, publicID, author string) error {
	id, err := decodeProbeID(publicID)
	if err != nil {
		return err
	}
	p, err := s.probeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.snapshotSvc.Create(ctx,
		fmt.Sprintf("Удаление пробы '%s'", p.Name), author, model.ChangeTypeUpdate); err != nil {
		return fmt.Errorf("creating pre-delete snapshot: %w", err)
	}
	if err := s.probeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStatistics(ctx)
	return nil
}

// UpdateStatus moves a probe to another workflow status.
func (s *Service) UpdateStatus(ctx context.Context, req *model.UpdateStatusRequest) error {
	id, err := decodeProbeID(req.ProbeID)
	if err != nil {
		return err
	}
	if _, err := s.statusRepo.FindByID(ctx, req.StatusID); err != nil {
		return fmt.Errorf("unknown status id %d", req.StatusID)
	}
	p, err := s.probeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.StatusID = req.StatusID
	p.UpdatedAt = time.Now()
	return s.probeRepo.Update(ctx, p)
}

// UpdatePriority changes a probe's priority.
func (s *Service) UpdatePriority(ctx context.Context, req *model.UpdatePriorityRequest) error {
	id, err := decodeProbeID(req.ProbeID)
	if err != nil {
		return err
	}
	p, err := s.probeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.Priority = req.Priority
	p.UpdatedAt = time.Now()
	return s.probeRepo.Update(ctx, p)
}

// Search finds probes by name substring or concentration range. The
// substring criterion wins when both are present.
func (s *Service) Search(ctx context.Context, req *model.SearchProbesRequest) ([]*model.ProbeResponse, error) {
	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*model.Probe
	switch {
	case req.NameSubstring != "":
		needle := req.NameSubstring
		for _, p := range probes {
			haystack := p.Name
			if !req.CaseSensitive {
				haystack = strings.ToLower(haystack)
				needle = strings.ToLower(req.NameSubstring)
			}
			if strings.Contains(haystack, needle) {
				matched = append(matched, p)
			}
		}
	case req.ConcentrationRange != nil:
		matched, err = filterByConcentration(probes, req.ConcentrationRange)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("search request carries no criterion")
	}

	return toAPIResponses(matched), nil
}

func filterByConcentration(probes []*model.Probe, r *model.ConcentrationRange) ([]*model.Probe, error) {
	get, err := concentrationAccessor(r.Element)
	if err != nil {
		return nil, err
	}
	var matched []*model.Probe
	for _, p := range probes {
		v := get(p)
		if r.Min != nil && v < *r.Min {
			continue
		}
		if r.Max != nil && v > *r.Max {
			continue
		}
		matched = append(matched, p)
	}
	return matched, nil
}

// concentrationAccessor whitelists the tracked elements.
func concentrationAccessor(element string) (func(*model.Probe) float64, error) {
	switch element {
	case "Fe":
		return func(p *model.Probe) float64 { return p.Fe }, nil
	case "Ni":
		return func(p *model.Probe) float64 { return p.Ni }, nil
	case "Cu":
		return func(p *model.Probe) float64 { return p.Cu }, nil
	default:
		return nil, fmt.Errorf("элемент %q не поддерживается", element)
	}
}

// ManageTags adds or removes one tag on the listed probes.
func (s *Service) ManageTags(ctx context.Context, req *model.TagsRequest) error {
	if req.Action != "add" && req.Action != "remove" {
		return fmt.Errorf("unknown tag action %q", req.Action)
	}
	ids, err := decodeProbeIDs(req.ProbeIDs)
	if err != nil {
		return err
	}
	probes, err := s.probeRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, p := range probes {
		switch req.Action {
		case "add":
			if !p.Tags.Contains(req.Tag) {
				p.Tags = append(p.Tags, req.Tag)
			}
		case "remove":
			p.Tags = removeTag(p.Tags, req.Tag)
		}
		p.UpdatedAt = time.Now()
		if err := s.probeRepo.Update(ctx, p); err != nil {
			return err
		}
	}
	s.invalidateStatistics(ctx)
	return nil
}

// nameSeparators splits probe names into parts for pattern-driven field
// assignment.
var nameSeparators = regexp.MustCompile(`[_\-\s]+`)

// AddFieldByNamePattern sets a numeric field on every probe whose name
// part at the pattern's position matches. Probes whose names have too few
// parts are skipped. Returns the number of probes updated.
func (s *Service) AddFieldByNamePattern(ctx context.Context, req *model.AddFieldRequest) (int, error) {
	setField, err := fieldSetter(req.FieldName)
	if err != nil {
		return 0, err
	}
	match, err := patternMatcher(req.Pattern)
	if err != nil {
		return 0, err
	}

	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range probes {
		parts := nameSeparators.Split(p.Name, -1)
		if req.Pattern.Position < 0 || req.Pattern.Position >= len(parts) {
			continue
		}
		if !match(parts[req.Pattern.Position]) {
			continue
		}
		setField(p, req.Pattern.Value)
		p.UpdatedAt = time.Now()
		if err := s.probeRepo.Update(ctx, p); err != nil {
			return updated, err
		}
		updated++
	}
	if updated > 0 {
		s.invalidateStatistics(ctx)
	}
	return updated, nil
}

// fieldSetter whitelists the assignable numeric probe fields.
func fieldSetter(name string) (func(*model.Probe, float64), error) {
	switch name {
	case "sample_mass":
		return func(p *model.Probe, v float64) { p.SampleMass = v }, nil
	case "volume_ml":
		return func(p *model.Probe, v float64) { p.VolumeMl = v }, nil
	case "Fe":
		return func(p *model.Probe, v float64) { p.Fe = v }, nil
	case "Ni":
		return func(p *model.Probe, v float64) { p.Ni = v }, nil
	case "Cu":
		return func(p *model.Probe, v float64) { p.Cu = v }, nil
	default:
		return nil, fmt.Errorf("поле %q не поддерживается", name)
	}
}

func patternMatcher(pat *model.AddFieldPattern) (func(string) bool, error) {
	switch pat.MatchType {
	case "exact":
		return func(part string) bool { return part == pat.Substring }, nil
	case "contains", "":
		return func(part string) bool { return strings.Contains(part, pat.Substring) }, nil
	case "regex":
		// Matches from the start of the part.
		re, err := regexp.Compile("^(?:" + pat.Substring + ")")
		if err != nil {
			return nil, fmt.Errorf("некорректное регулярное выражение: %w", err)
		}
		return re.MatchString, nil
	default:
		return nil, fmt.Errorf("неизвестный тип сравнения %q", pat.MatchType)
	}
}

// ApplyStateTags restamps the physical-state tags across the catalog:
// probes with a positive solid mass get "твердая", probes with a positive
// volume get "жидкая". Stale state tags are dropped first, so the pass is
// idempotent. Returns the number of probes whose tags changed.
func (s *Service) ApplyStateTags(ctx context.Context) (int, error) {
	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range probes {
		tags := removeTag(removeTag(append(model.StringList(nil), p.Tags...), constant.TagSolid), constant.TagSolution)
		if p.SolidMassG > 0 {
			tags = append(tags, constant.TagSolid)
		}
		if p.VolumeMl > 0 {
			tags = append(tags, constant.TagSolution)
		}
		if sameTags(p.Tags, tags) {
			continue
		}
		p.Tags = tags
		p.UpdatedAt = time.Now()
		if err := s.probeRepo.Update(ctx, p); err != nil {
			return updated, err
		}
		updated++
	}
	if updated > 0 {
		s.invalidateStatistics(ctx)
	}
	return updated, nil
}

func sameTags(a, b model.StringList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func removeTag(tags model.StringList, tag string) model.StringList {
	out := tags[:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// FilterByTags selects probes carrying all (default) or any of the tags.
func (s *Service) FilterByTags(ctx context.Context, req *model.FilterByTagsRequest) ([]*model.ProbeResponse, error) {
	matchAll := true
	if req.MatchAll != nil {
		matchAll = *req.MatchAll
	}

	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*model.Probe
	for _, p := range probes {
		if matchesTags(p.Tags, req.Tags, matchAll) {
			matched = append(matched, p)
		}
	}
	return toAPIResponses(matched), nil
}

func matchesTags(have model.StringList, want []string, matchAll bool) bool {
	if matchAll {
		for _, tag := range want {
			if !have.Contains(tag) {
				return false
			}
		}
		return true
	}
	for _, tag := range want {
		if have.Contains(tag) {
			return true
		}
	}
	return false
}

// BatchTags applies a list of tagging rules in order. Rules with an
// unknown condition type are skipped rather than failing the batch.
func (s *Service) BatchTags(ctx context.Context, req *model.BatchTagsRequest) (int, error) {
	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, rule := range req.Rules {
		if rule.Condition == nil || rule.Tag == "" {
			continue
		}

		var matched []*model.Probe
		switch rule.Condition.Type {
		case "name_substring":
			needle := rule.Condition.Substring
			for _, p := range probes {
				haystack := p.Name
				n := needle
				if !rule.Condition.CaseSensitive {
					haystack = strings.ToLower(haystack)
					n = strings.ToLower(n)
				}
				if strings.Contains(haystack, n) {
					matched = append(matched, p)
				}
			}
		case "concentration_range":
			matched, err = filterByConcentration(probes, &model.ConcentrationRange{
				Element: rule.Condition.Element,
				Min:     rule.Condition.Min,
				Max:     rule.Condition.Max,
			})
			if err != nil {
				return applied, err
			}
		default:
			continue
		}

		for _, p := range matched {
			if !p.Tags.Contains(rule.Tag) {
				p.Tags = append(p.Tags, rule.Tag)
				p.UpdatedAt = time.Now()
				if err := s.probeRepo.Update(ctx, p); err != nil {
					return applied, err
				}
			}
		}
		applied++
	}
	s.invalidateStatistics(ctx)
	return applied, nil
}

// Group assigns a fresh group ID to the listed probes. Every listed probe
// must exist.
func (s *Service) Group(ctx context.Context, req *model.GroupRequest) (string, error) {
	ids, err := decodeProbeIDs(req.ProbeIDs)
	if err != nil {
		return "", err
	}
	probes, err := s.probeRepo.FindByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	if len(probes) != len(ids) {
		return "", fmt.Errorf("request names %d probes but only %d exist", len(ids), len(probes))
	}

	groupID, err := s.probeRepo.NextGroupID(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range probes {
		gid := groupID
		p.GroupID = &gid
		p.UpdatedAt = time.Now()
		if err := s.probeRepo.Update(ctx, p); err != nil {
			return "", err
		}
	}

	publicGroupID, err := idgen.GeneratePublicID(groupID, idgen.EntityTypeGroup)
	if err != nil {
		return "", err
	}
	return publicGroupID, nil
}

// Statistics summarizes the catalog; results are cached briefly.
func (s *Service) Statistics(ctx context.Context) (*model.Statistics, error) {
	const cacheKey = "probes:statistics"
	if cached, err := s.cacheSvc.Get(ctx, cacheKey); err == nil && cached != "" {
		var stats model.Statistics
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.Statistics{
		TotalProbes:           len(probes),
		TagsCount:             make(map[string]int),
		AverageConcentrations: make(map[string]float64),
	}
	sums := map[string]float64{}
	for _, p := range probes {
		if p.IsSeries {
			stats.SeriesProbes++
		}
		for _, tag := range p.Tags {
			stats.TagsCount[tag]++
		}
		sums["Fe"] += p.Fe
		sums["Ni"] += p.Ni
		sums["Cu"] += p.Cu
	}
	if len(probes) > 0 {
		for _, el := range constant.Elements {
			stats.AverageConcentrations[el] = sums[el] / float64(len(probes))
		}
	}

	if encoded, err := json.Marshal(stats); err == nil {
		if err := s.cacheSvc.Set(ctx, cacheKey, string(encoded), statisticsCacheTTL); err != nil {
			log.Printf("probe: caching statistics failed: %v", err)
		}
	}
	return stats, nil
}

// Recalculate recomputes the derived fields of every probe:
// solid mass = 1.5 * (sample_mass - volume), density = mass / volume.
// A snapshot is taken before any row changes.
func (s *Service) Recalculate(ctx context.Context) (*model.RecalculationStats, error) {
	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &model.RecalculationStats{TotalProbes: len(probes)}
	if len(probes) == 0 {
		return stats, nil
	}

	if _, err := s.snapshotSvc.Create(ctx,
		"Автоматический пересчет зависимых полей", "system", model.ChangeTypeRecalculation); err != nil {
		return nil, fmt.Errorf("creating pre-recalculation snapshot: %w", err)
	}

	for _, p := range probes {
		changed := false

		solid := constant.SolidMassFactor * (p.SampleMass - p.VolumeMl)
		if p.SolidMassG != solid {
			p.SolidMassG = solid
			changed = true
		}
		stats.UpdatedMass++

		if p.VolumeMl != 0 {
			density := p.SampleMass / p.VolumeMl
			if p.Density != density {
				p.Density = density
				changed = true
			}
			stats.UpdatedDensity++
		} else {
			stats.SkippedDensity++
		}

		if changed {
			p.UpdatedAt = time.Now()
			if err := s.probeRepo.Update(ctx, p); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (s *Service) invalidateStatistics(ctx context.Context) {
	if err := s.cacheSvc.Delete(ctx, "probes:statistics"); err != nil {
		log.Printf("probe: statistics cache invalidation failed: %v", err)
	}
}

// coerceFloat parses raw form input with a fallback, mirroring the policy
// used for series mass/volume.
func coerceFloat(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
