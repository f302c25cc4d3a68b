package export

import (
	"context"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/service/snapshot"
)

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
	return nil, nil
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

func (r *memProbeRepo) ListNames(_ context.Context) ([]string, error) {
	return nil, nil
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
	return 1, nil
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
	return nil, nil
}

func (r *memSnapshotRepo) Delete(_ context.Context, id uint) error {
	return nil
}

func (r *memSnapshotRepo) Count(_ context.Context) (int, error) {
	return len(r.snapshots), nil
}

func (r *memSnapshotRepo) Oldest(_ context.Context, n int) ([]*model.Snapshot, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *memProbeRepo, *memSnapshotRepo) {
	t.Helper()
	probeRepo := newMemProbeRepo()
	snapRepo := &memSnapshotRepo{}
	snapshotSvc, err := snapshot.NewService(snapRepo, probeRepo, t.TempDir())
	if err != nil {
		t.Fatalf("NewService(snapshot): %v", err)
	}
	svc, err := NewService(probeRepo, snapshotSvc, t.TempDir())
	if err != nil {
		t.Fatalf("NewService(export): %v", err)
	}
	return svc, probeRepo, snapRepo
}

func TestExportWritesCSV(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	repo.Create(ctx, &model.Probe{
		Name: "T2-4A1", SampleMass: 2.5, VolumeMl: 50, Fe: 1.2,
		Tags: model.StringList{"методика_4", "серия_T2-4C1"},
	})

	path, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "name") || !strings.Contains(text, "sample_mass") {
		t.Errorf("export misses header: %q", text)
	}
	if !strings.Contains(text, "T2-4A1") {
		t.Errorf("export misses probe row: %q", text)
	}
	if !strings.Contains(text, "методика_4;серия_T2-4C1") {
		t.Errorf("export misses joined tags: %q", text)
	}
	if strings.Contains(path, ".tmp") {
		t.Errorf("export path looks temporary: %q", path)
	}
}

func TestImportCreatesAndUpdates(t *testing.T) {
	svc, repo, snapRepo := newTestService(t)
	ctx := context.Background()

	repo.Create(ctx, &model.Probe{Name: "T2-4A1", Fe: 1.0})

	csv := strings.Join([]string{
		"name,sample_mass,volume_ml,Fe,Ni,Cu,solid_mass_g,density,status_id,priority,tags,method_number,repeat_number,is_series,series_base",
		"T2-4A1,3.5,60,2.0,0,0,0,0,1,1,методика_4,4,1,true,T2-4C1",
		"T2-9A9,1.0,10,0,0,0,0,0,0,0,,,,false,",
		",0,0,0,0,0,0,0,0,0,,,,false,",
	}, "\n")

	stats, err := svc.Import(ctx, strings.NewReader(csv), "tester")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Total != 3 || stats.Created != 1 || stats.Updated != 1 || stats.Skipped != 1 {
		t.Errorf("Import() stats = %+v, want total 3, created 1, updated 1, skipped 1", stats)
	}

	updated, err := repo.FindByName(ctx, "T2-4A1")
	if err != nil {
		t.Fatal(err)
	}
	if updated.SampleMass != 3.5 || updated.Fe != 2.0 {
		t.Errorf("updated probe = %+v", updated)
	}
	if !updated.Tags.Contains("методика_4") {
		t.Errorf("updated tags = %v", updated.Tags)
	}

	created, err := repo.FindByName(ctx, "T2-9A9")
	if err != nil {
		t.Fatal(err)
	}
	// Zero status/priority in the file fall back to the workflow defaults.
	if created.StatusID != 1 || created.Priority != 1 {
		t.Errorf("created probe defaults = status %d priority %d, want 1/1", created.StatusID, created.Priority)
	}

	if n, _ := snapRepo.Count(ctx); n != 1 {
		t.Errorf("pre-import snapshots = %d, want 1", n)
	}
}

func TestImportEmptyFile(t *testing.T) {
	svc, _, snapRepo := newTestService(t)

	stats, err := svc.Import(context.Background(),
		strings.NewReader("name,sample_mass,volume_ml,Fe,Ni,Cu,solid_mass_g,density,status_id,priority,tags,method_number,repeat_number,is_series,series_base\n"), "tester")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Import() total = %d, want 0", stats.Total)
	}
	if n, _ := snapRepo.Count(context.Background()); n != 0 {
		t.Errorf("snapshots after empty import = %d, want 0", n)
	}
}
