package probe

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/probelab/probelab-app/pkg/constant"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/idgen"
	"github.com/probelab/probelab-app/pkg/service/snapshot"
	"github.com/probelab/probelab-app/pkg/service/utility"
)

func TestMain(m *testing.M) {
	seed, err := idgen.GenerateRandomSeed()
	if err != nil {
		panic(err)
	}
	if err := idgen.InitEncoder(seed); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type memProbeRepo struct {
	probes map[uint]*model.Probe
	nextID uint
}

func newMemProbeRepo() *memProbeRepo {
	return &memProbeRepo{probes: make(map[uint]*model.Probe), nextID: 1}
}

func (r *memProbeRepo) Create(_ context.Context, probe *model.Probe) (*model.Probe, error) {
	cp := *probe
	cp.ID = r.nextID
	r.nextID++
	r.probes[cp.ID] = &cp
	return &cp, nil
}

func (r *memProbeRepo) CreateMany(ctx context.Context, probes []*model.Probe) ([]*model.Probe, error) {
	out := make([]*model.Probe, 0, len(probes))
	for _, p := range probes {
		created, err := r.Create(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *memProbeRepo) Update(_ context.Context, probe *model.Probe) error {
	if _, ok := r.probes[probe.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *probe
	r.probes[probe.ID] = &cp
	return nil
}

func (r *memProbeRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.probes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.probes, id)
	return nil
}

func (r *memProbeRepo) FindByID(_ context.Context, id uint) (*model.Probe, error) {
	p, ok := r.probes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProbeRepo) FindByIDs(_ context.Context, ids []uint) ([]*model.Probe, error) {
	var out []*model.Probe
	for _, id := range ids {
		if p, ok := r.probes[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memProbeRepo) FindByName(_ context.Context, name string) (*model.Probe, error) {
	for _, p := range r.probes {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memProbeRepo) List(_ context.Context) ([]*model.Probe, error) {
	out := make([]*model.Probe, 0, len(r.probes))
	for _, p := range r.probes {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProbeRepo) ListNames(ctx context.Context) ([]string, error) {
	probes, _ := r.List(ctx)
	names := make([]string, len(probes))
	for i, p := range probes {
		names[i] = p.Name
	}
	return names, nil
}

func (r *memProbeRepo) Count(_ context.Context) (int, error) {
	return len(r.probes), nil
}

func (r *memProbeRepo) ReplaceAll(ctx context.Context, probes []*model.Probe) error {
	r.probes = make(map[uint]*model.Probe)
	for _, p := range probes {
		if _, err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *memProbeRepo) NextGroupID(_ context.Context) (uint, error) {
	var max uint
	for _, p := range r.probes {
		if p.GroupID != nil && *p.GroupID > max {
			max = *p.GroupID
		}
	}
	return max + 1, nil
}

type memStatusRepo struct {
	statuses map[uint]*model.Status
	nextID   uint
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{
		statuses: map[uint]*model.Status{1: {ID: 1, Name: "Новая"}},
		nextID:   2,
	}
}

func (r *memStatusRepo) Create(_ context.Context, s *model.Status) (*model.Status, error) {
	cp := *s
	cp.ID = r.nextID
	r.nextID++
	r.statuses[cp.ID] = &cp
	return &cp, nil
}

func (r *memStatusRepo) FindByID(_ context.Context, id uint) (*model.Status, error) {
	s, ok := r.statuses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memStatusRepo) List(_ context.Context) ([]*model.Status, error) {
	out := make([]*model.Status, 0, len(r.statuses))
	for _, s := range r.statuses {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memStatusRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	for _, s := range r.statuses {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type memSnapshotRepo struct {
	snapshots []*model.Snapshot
	nextID    uint
}

func (r *memSnapshotRepo) Create(_ context.Context, s *model.Snapshot) (*model.Snapshot, error) {
	cp := *s
	r.nextID++
	cp.ID = r.nextID
	r.snapshots = append(r.snapshots, &cp)
	return &cp, nil
}

func (r *memSnapshotRepo) FindByID(_ context.Context, id uint) (*model.Snapshot, error) {
	for _, s := range r.snapshots {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSnapshotRepo) Latest(_ context.Context) (*model.Snapshot, error) {
	if len(r.snapshots) == 0 {
		return nil, repository.ErrNotFound
	}
	cp := *r.snapshots[len(r.snapshots)-1]
	return &cp, nil
}

func (r *memSnapshotRepo) List(_ context.Context) ([]*model.Snapshot, error) {
	out := make([]*model.Snapshot, len(r.snapshots))
	for i := range r.snapshots {
		cp := *r.snapshots[len(r.snapshots)-1-i]
		out[i] = &cp
	}
	return out, nil
}

func (r *memSnapshotRepo) Delete(_ context.Context, id uint) error {
	for i, s := range r.snapshots {
		if s.ID == id {
			r.snapshots = append(r.snapshots[:i], r.snapshots[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memSnapshotRepo) Count(_ context.Context) (int, error) {
	return len(r.snapshots), nil
}

func (r *memSnapshotRepo) Oldest(_ context.Context, n int) ([]*model.Snapshot, error) {
	if n > len(r.snapshots) {
		n = len(r.snapshots)
	}
	out := make([]*model.Snapshot, n)
	for i := 0; i < n; i++ {
		cp := *r.snapshots[i]
		out[i] = &cp
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memProbeRepo) {
	t.Helper()
	probeRepo := newMemProbeRepo()
	snapshotSvc, err := snapshot.NewService(&memSnapshotRepo{}, probeRepo, t.TempDir())
	if err != nil {
		t.Fatalf("NewService(snapshot): %v", err)
	}
	svc := NewService(probeRepo, newMemStatusRepo(), snapshotSvc, utility.NewMemoryCacheService())
	return svc, probeRepo
}

func seedProbe(t *testing.T, repo *memProbeRepo, p model.Probe) *model.Probe {
	t.Helper()
	if p.StatusID == 0 {
		p.StatusID = constant.DefaultStatusID
	}
	if p.Priority == 0 {
		p.Priority = constant.DefaultPriority
	}
	created, err := repo.Create(context.Background(), &p)
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func publicID(t *testing.T, id uint) string {
	t.Helper()
	pid, err := idgen.GeneratePublicID(id, idgen.EntityTypeProbe)
	if err != nil {
		t.Fatal(err)
	}
	return pid
}

func float64Ptr(v float64) *float64 { return &v }

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name       string
		mass       string
		volume     string
		wantMass   float64
		wantVolume float64
	}{
		{"numeric values", "2.5", "40", 2.5, 40},
		{"empty values", "", "", 0, 0},
		{"garbage values", "abc", "x", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Create(context.Background(), &model.CreateProbeRequest{
				Name:       "probe-" + tt.name,
				SampleMass: model.RawNumber(tt.mass),
				VolumeMl:   model.RawNumber(tt.volume),
			})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if p.SampleMass != tt.wantMass || p.VolumeMl != tt.wantVolume {
				t.Errorf("Create() mass/volume = %v/%v, want %v/%v",
					p.SampleMass, p.VolumeMl, tt.wantMass, tt.wantVolume)
			}
			if p.StatusID != constant.DefaultStatusID {
				t.Errorf("Create() status = %d, want %d", p.StatusID, constant.DefaultStatusID)
			}
			if p.Priority != constant.DefaultPriority {
				t.Errorf("Create() priority = %d, want %d", p.Priority, constant.DefaultPriority)
			}
		})
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, repo := newTestService(t)
	seedProbe(t, repo, model.Probe{Name: "T2-4A1"})

	if _, err := svc.Create(context.Background(), &model.CreateProbeRequest{Name: "T2-4A1"}); err == nil {
		t.Fatal("Create() accepted a duplicate name")
	}
}

func TestUpdatePartial(t *testing.T) {
	svc, repo := newTestService(t)
	created := seedProbe(t, repo, model.Probe{Name: "T2-4A1", Fe: 1.5, Ni: 0.2})

	newName := "T2-4A1-renamed"
	resp, err := svc.Update(context.Background(), publicID(t, created.ID), &model.UpdateProbeRequest{
		Name: &newName,
		Fe:   float64Ptr(3.0),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if resp.Name != newName {
		t.Errorf("Update() name = %q, want %q", resp.Name, newName)
	}
	if resp.Fe != 3.0 {
		t.Errorf("Update() Fe = %v, want 3.0", resp.Fe)
	}
	if resp.Ni != 0.2 {
		t.Errorf("Update() clobbered Ni: got %v, want 0.2", resp.Ni)
	}
}

func TestSearchByNameSubstring(t *testing.T) {
	svc, repo := newTestService(t)
	seedProbe(t, repo, model.Probe{Name: "T2-4A1"})
	seedProbe(t, repo, model.Probe{Name: "T2-4B1"})
	seedProbe(t, repo, model.Probe{Name: "t2-4m1"})
	seedProbe(t, repo, model.Probe{Name: "other"})

	tests := []struct {
		name          string
		substring     string
		caseSensitive bool
		want          int
	}{
		{"case insensitive", "T2-4", false, 3},
		{"case sensitive", "T2-4", true, 2},
		{"no match", "zzz", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(context.Background(), &model.SearchProbesRequest{
				NameSubstring: tt.substring,
				CaseSensitive: tt.caseSensitive,
			})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Search() returned %d probes, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSearchByConcentrationRange(t *testing.T) {
	svc, repo := newTestService(t)
	seedProbe(t, repo, model.Probe{Name: "low", Fe: 0.5})
	seedProbe(t, repo, model.Probe{Name: "mid", Fe: 2.0})
	seedProbe(t, repo, model.Probe{Name: "high", Fe: 9.0})

	got, err := svc.Search(context.Background(), &model.SearchProbesRequest{
		ConcentrationRange: &model.ConcentrationRange{
			Element: "Fe",
			Min:     float64Ptr(1.0),
			Max:     float64Ptr(5.0),
		},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "mid" {
		t.Errorf("Search() = %v, want [mid]", got)
	}

	_, err = svc.Search(context.Background(), &model.SearchProbesRequest{
		ConcentrationRange: &model.ConcentrationRange{Element: "Au"},
	})
	if err == nil {
		t.Error("Search() accepted an untracked element")
	}
}

func TestManageTags(t *testing.T) {
	svc, repo := newTestService(t)
	created := seedProbe(t, repo, model.Probe{Name: "T2-4A1", Tags: model.StringList{"старый"}})
	pid := publicID(t, created.ID)

	err := svc.ManageTags(context.Background(), &model.TagsRequest{
		Action: "add", Tag: "важная", ProbeIDs: []string{pid},
	})
	if err != nil {
		t.Fatalf("ManageTags(add) error = %v", err)
	}
	// Adding twice must not duplicate.
	if err := svc.ManageTags(context.Background(), &model.TagsRequest{
		Action: "add", Tag: "важная", ProbeIDs: []string{pid},
	}); err != nil {
		t.Fatal(err)
	}

	p, _ := repo.FindByID(context.Background(), created.ID)
	if len(p.Tags) != 2 || !p.Tags.Contains("важная") {
		t.Errorf("tags after add = %v", p.Tags)
	}

	if err := svc.ManageTags(context.Background(), &model.TagsRequest{
		Action: "remove", Tag: "старый", ProbeIDs: []string{pid},
	}); err != nil {
		t.Fatalf("ManageTags(remove) error = %v", err)
	}
	p, _ = repo.FindByID(context.Background(), created.ID)
	if p.Tags.Contains("старый") {
		t.Errorf("tag not removed: %v", p.Tags)
	}

	if err := svc.ManageTags(context.Background(), &model.TagsRequest{
		Action: "rename", Tag: "x", ProbeIDs: []string{pid},
	}); err == nil {
		t.Error("ManageTags() accepted an unknown action")
	}
}

func TestFilterByTags(t *testing.T) {
	svc, repo := newTestService(t)
	seedProbe(t, repo, model.Probe{Name: "a", Tags: model.StringList{"x", "y"}})
	seedProbe(t, repo, model.Probe{Name: "b", Tags: model.StringList{"x"}})
	seedProbe(t, repo, model.Probe{Name: "c", Tags: model.StringList{"z"}})

	all, err := svc.FilterByTags(context.Background(), &model.FilterByTagsRequest{Tags: []string{"x", "y"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Name != "a" {
		t.Errorf("FilterByTags(all) = %d probes, want [a]", len(all))
	}

	matchAny := false
	any, err := svc.FilterByTags(context.Background(), &model.FilterByTagsRequest{
		Tags: []string{"x", "y"}, MatchAll: &matchAny,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(any) != 2 {
		t.Errorf("FilterByTags(any) = %d probes, want 2", len(any))
	}
}

func TestBatchTags(t *testing.T) {
	svc, repo := newTestService(t)
	seedProbe(t, repo, model.Probe{Name: "T2-4A1", Fe: 5.0})
	seedProbe(t, repo, model.Probe{Name: "T2-7A1", Fe: 0.1})

	applied, err := svc.BatchTags(context.Background(), &model.BatchTagsRequest{
		Rules: []model.TagRule{
			{
				Condition: &model.TagCondition{Type: "name_substring", Substring: "T2-4"},
				Tag:       "методика_4",
			},
			{
				Condition: &model.TagCondition{Type: "concentration_range", Element: "Fe", Min: float64Ptr(1.0)},
				Tag:       "высокое_железо",
			},
			{
				Condition: &model.TagCondition{Type: "unknown"},
				Tag:       "ignored",
			},
		},
	})
	if err != nil {
		t.Fatalf("BatchTags() error = %v", err)
	}
	if applied != 2 {
		t.Errorf("BatchTags() applied %d rules, want 2", applied)
	}

	p1, _ := repo.FindByName(context.Background(), "T2-4A1")
	if !p1.Tags.Contains("методика_4") || !p1.Tags.Contains("высокое_железо") {
		t.Errorf("T2-4A1 tags = %v", p1.Tags)
	}
	p2, _ := repo.FindByName(context.Background(), "T2-7A1")
	if len(p2.Tags) != 0 {
		t.Errorf("T2-7A1 tags = %v, want none", p2.Tags)
	}
}

func TestAddFieldByNamePattern(t *testing.T) {
	newCatalog := func(t *testing.T) (*Service, *memProbeRepo) {
		svc, repo := newTestService(t)
		seedProbe(t, repo, model.Probe{Name: "AOB-1"})
		seedProbe(t, repo, model.Probe{Name: "T2-4A1"})
		seedProbe(t, repo, model.Probe{Name: "проба AOB25"})
		return svc, repo
	}

	t.Run("exact match on first part", func(t *testing.T) {
		svc, repo := newCatalog(t)
		updated, err := svc.AddFieldByNamePattern(context.Background(), &model.AddFieldRequest{
			FieldName: "Fe",
			Pattern:   &model.AddFieldPattern{Position: 0, Substring: "AOB", Value: 25.5, MatchType: "exact"},
		})
		if err != nil {
			t.Fatalf("AddFieldByNamePattern() error = %v", err)
		}
		if updated != 1 {
			t.Errorf("updated %d probes, want 1", updated)
		}
		p, _ := repo.FindByName(context.Background(), "AOB-1")
		if p.Fe != 25.5 {
			t.Errorf("Fe = %v, want 25.5", p.Fe)
		}
		p, _ = repo.FindByName(context.Background(), "T2-4A1")
		if p.Fe != 0 {
			t.Errorf("unmatched probe Fe = %v, want 0", p.Fe)
		}
	})

	t.Run("contains is the default", func(t *testing.T) {
		svc, _ := newCatalog(t)
		updated, err := svc.AddFieldByNamePattern(context.Background(), &model.AddFieldRequest{
			FieldName: "volume_ml",
			Pattern:   &model.AddFieldPattern{Position: 1, Substring: "AOB", Value: 100},
		})
		if err != nil {
			t.Fatal(err)
		}
		// Only "проба AOB25" has "AOB" inside its second part.
		if updated != 1 {
			t.Errorf("updated %d probes, want 1", updated)
		}
	})

	t.Run("regex matches from the part start", func(t *testing.T) {
		svc, repo := newCatalog(t)
		updated, err := svc.AddFieldByNamePattern(context.Background(), &model.AddFieldRequest{
			FieldName: "sample_mass",
			Pattern:   &model.AddFieldPattern{Position: 0, Substring: `T2`, Value: 3.5, MatchType: "regex"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if updated != 1 {
			t.Errorf("updated %d probes, want 1", updated)
		}
		p, _ := repo.FindByName(context.Background(), "T2-4A1")
		if p.SampleMass != 3.5 {
			t.Errorf("sample mass = %v, want 3.5", p.SampleMass)
		}
	})

	t.Run("position out of range skips the probe", func(t *testing.T) {
		svc, _ := newCatalog(t)
		updated, err := svc.AddFieldByNamePattern(context.Background(), &model.AddFieldRequest{
			FieldName: "Ni",
			Pattern:   &model.AddFieldPattern{Position: 5, Substring: "AOB", Value: 1},
		})
		if err != nil {
			t.Fatal(err)
		}
		if updated != 0 {
			t.Errorf("updated %d probes, want 0", updated)
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		svc, _ := newCatalog(t)
		_, err := svc.AddFieldByNamePattern(context.Background(), &model.AddFieldRequest{
			FieldName: "density",
			Pattern:   &model.AddFieldPattern{Position: 0, Substring: "AOB", Value: 1},
		})
		if err == nil {
			t.Error("AddFieldByNamePattern() accepted an unsupported field")
		}
	})

	t.Run("unknown match type is rejected", func(t *testing.T) {
		svc, _ := newCatalog(t)
		_, err := svc.AddFieldByNamePattern(context.Background(), &model.AddFieldRequest{
			FieldName: "Fe",
			Pattern:   &model.AddFieldPattern{Position: 0, Substring: "AOB", Value: 1, MatchType: "fuzzy"},
		})
		if err == nil {
			t.Error("AddFieldByNamePattern() accepted an unknown match type")
		}
	})
}

func TestApplyStateTags(t *testing.T) {
	svc, repo := newTestService(t)
	solid := seedProbe(t, repo, model.Probe{Name: "a", SolidMassG: 12.5})
	both := seedProbe(t, repo, model.Probe{Name: "b", SolidMassG: 3.0, VolumeMl: 40, Tags: model.StringList{"важная"}})
	stale := seedProbe(t, repo, model.Probe{Name: "c", Tags: model.StringList{constant.TagSolid}})

	updated, err := svc.ApplyStateTags(context.Background())
	if err != nil {
		t.Fatalf("ApplyStateTags() error = %v", err)
	}
	if updated != 3 {
		t.Errorf("ApplyStateTags() updated %d probes, want 3", updated)
	}

	pa, _ := repo.FindByID(context.Background(), solid.ID)
	if !pa.Tags.Contains(constant.TagSolid) || pa.Tags.Contains(constant.TagSolution) {
		t.Errorf("solid probe tags = %v", pa.Tags)
	}
	pb, _ := repo.FindByID(context.Background(), both.ID)
	if !pb.Tags.Contains(constant.TagSolid) || !pb.Tags.Contains(constant.TagSolution) || !pb.Tags.Contains("важная") {
		t.Errorf("mixed probe tags = %v", pb.Tags)
	}
	pc, _ := repo.FindByID(context.Background(), stale.ID)
	if len(pc.Tags) != 0 {
		t.Errorf("stale state tag survived: %v", pc.Tags)
	}

	// The pass is idempotent.
	updated, err = svc.ApplyStateTags(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if updated != 0 {
		t.Errorf("second ApplyStateTags() updated %d probes, want 0", updated)
	}
}

func TestGroup(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProbe(t, repo, model.Probe{Name: "a"})
	b := seedProbe(t, repo, model.Probe{Name: "b"})

	groupID, err := svc.Group(context.Background(), &model.GroupRequest{
		Name:     "партия 1",
		ProbeIDs: []string{publicID(t, a.ID), publicID(t, b.ID)},
	})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if groupID == "" {
		t.Fatal("Group() returned an empty group id")
	}

	pa, _ := repo.FindByID(context.Background(), a.ID)
	pb, _ := repo.FindByID(context.Background(), b.ID)
	if pa.GroupID == nil || pb.GroupID == nil || *pa.GroupID != *pb.GroupID {
		t.Errorf("group ids = %v / %v, want matching", pa.GroupID, pb.GroupID)
	}

	// A missing probe fails the whole request.
	_, err = svc.Group(context.Background(), &model.GroupRequest{
		Name:     "партия 2",
		ProbeIDs: []string{publicID(t, a.ID), publicID(t, 999)},
	})
	if err == nil {
		t.Error("Group() accepted a request naming a missing probe")
	}
}

func TestStatistics(t *testing.T) {
	svc, repo := newTestService(t)
	seedProbe(t, repo, model.Probe{Name: "a", Fe: 2.0, Ni: 1.0, IsSeries: true, Tags: model.StringList{"x"}})
	seedProbe(t, repo, model.Probe{Name: "b", Fe: 4.0, Tags: model.StringList{"x", "y"}})

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalProbes != 2 || stats.SeriesProbes != 1 {
		t.Errorf("Statistics() totals = %d/%d, want 2/1", stats.TotalProbes, stats.SeriesProbes)
	}
	if stats.TagsCount["x"] != 2 || stats.TagsCount["y"] != 1 {
		t.Errorf("Statistics() tags = %v", stats.TagsCount)
	}
	if stats.AverageConcentrations["Fe"] != 3.0 {
		t.Errorf("Statistics() avg Fe = %v, want 3.0", stats.AverageConcentrations["Fe"])
	}
	if stats.AverageConcentrations["Ni"] != 0.5 {
		t.Errorf("Statistics() avg Ni = %v, want 0.5", stats.AverageConcentrations["Ni"])
	}
}

func TestRecalculate(t *testing.T) {
	svc, repo := newTestService(t)
	withVolume := seedProbe(t, repo, model.Probe{Name: "a", SampleMass: 120, VolumeMl: 100})
	zeroVolume := seedProbe(t, repo, model.Probe{Name: "b", SampleMass: 50, VolumeMl: 0})

	stats, err := svc.Recalculate(context.Background())
	if err != nil {
		t.Fatalf("Recalculate() error = %v", err)
	}
	if stats.TotalProbes != 2 {
		t.Errorf("Recalculate() total = %d, want 2", stats.TotalProbes)
	}
	if stats.UpdatedDensity != 1 || stats.SkippedDensity != 1 {
		t.Errorf("Recalculate() density counts = %d updated / %d skipped, want 1/1",
			stats.UpdatedDensity, stats.SkippedDensity)
	}

	a, _ := repo.FindByID(context.Background(), withVolume.ID)
	if a.SolidMassG != 30 { // 1.5 * (120 - 100)
		t.Errorf("solid mass = %v, want 30", a.SolidMassG)
	}
	if a.Density != 1.2 {
		t.Errorf("density = %v, want 1.2", a.Density)
	}

	b, _ := repo.FindByID(context.Background(), zeroVolume.ID)
	if b.Density != 0 {
		t.Errorf("zero-volume density = %v, want untouched 0", b.Density)
	}
}

func TestRecalculateEmptyCatalog(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.Recalculate(context.Background())
	if err != nil {
		t.Fatalf("Recalculate() error = %v", err)
	}
	if stats.TotalProbes != 0 {
		t.Errorf("Recalculate() total = %d, want 0", stats.TotalProbes)
	}
}

func TestDeleteUnknownProbe(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Delete(context.Background(), publicID(t, 42), "tester"); err == nil {
		t.Fatal("Delete() accepted an unknown probe")
	}
}
