package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/probelab/probelab-app/pkg/constant"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/idgen"
)

// Service snapshots the probe catalog to JSON files and keeps their
// metadata in the database. Snapshots with a payload identical to the
// latest one are skipped.
type Service struct {
	snapshotRepo repository.SnapshotRepository
	probeRepo    repository.ProbeRepository
	dir          string
}

// NewService creates the snapshot directory if needed.
func NewService(snapshotRepo repository.SnapshotRepository, probeRepo repository.ProbeRepository, dir string) (*Service, error) {
	if dir == "" {
		dir = "data/snapshots"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Service{
		snapshotRepo: snapshotRepo,
		probeRepo:    probeRepo,
		dir:          dir,
	}, nil
}

// canonicalPayload marshals the catalog sorted by internal ID so that the
// hash is stable regardless of listing order.
func canonicalPayload(probes []*model.Probe) ([]byte, error) {
	sorted := append([]*model.Probe(nil), probes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return json.MarshalIndent(sorted, "", "  ")
}

// Create persists the current catalog state. It returns (nil, nil) when
// nothing changed since the latest snapshot.
func (s *Service) Create(ctx context.Context, description, author, changeType string) (*model.Snapshot, error) {
	probes, err := s.probeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog for snapshot: %w", err)
	}

	payload, err := canonicalPayload(probes)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot payload: %w", err)
	}

	sum := sha256.Sum256(payload)
	hash := hex.EncodeToString(sum[:])

	latest, err := s.snapshotRepo.Latest(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if latest != nil && latest.Hash == hash {
		return nil, nil
	}

	filename := fmt.Sprintf("snap_%s.json", hash[:12])
	if err := os.WriteFile(filepath.Join(s.dir, filename), payload, 0644); err != nil {
		return nil, fmt.Errorf("writing snapshot file: %w", err)
	}

	snap := &model.Snapshot{
		CreatedAt:   time.Now(),
		Description: description,
		Author:      author,
		ChangeType:  changeType,
		Hash:        hash,
		Filename:    filename,
		ProbeCount:  len(probes),
		SizeBytes:   int64(len(payload)),
	}
	created, err := s.snapshotRepo.Create(ctx, snap)
	if err != nil {
		return nil, err
	}

	if err := s.Prune(ctx); err != nil {
		// Retention failure must not fail the snapshot itself.
		log.Printf("warning: snapshot retention pruning failed: %v", err)
	}
	return created, nil
}

// List returns all snapshot metadata, newest first.
func (s *Service) List(ctx context.Context) ([]*model.SnapshotResponse, error) {
	snaps, err := s.snapshotRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.SnapshotResponse, len(snaps))
	for i, snap := range snaps {
		out[i] = toAPIResponse(snap)
	}
	return out, nil
}

// Get returns one snapshot's metadata.
func (s *Service) Get(ctx context.Context, publicID string) (*model.SnapshotResponse, error) {
	snap, err := s.find(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return toAPIResponse(snap), nil
}

// Payload reads the stored catalog state of a snapshot.
func (s *Service) Payload(ctx context.Context, publicID string) ([]byte, *model.Snapshot, error) {
	snap, err := s.find(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, snap.Filename))
	if err != nil {
		return nil, nil, fmt.Errorf("reading snapshot payload: %w", err)
	}
	return data, snap, nil
}

// Restore replaces the catalog with a snapshot's state. The current state
// is snapshotted first so the restore itself is reversible.
func (s *Service) Restore(ctx context.Context, publicID, author string) error {
	data, snap, err := s.Payload(ctx, publicID)
	if err != nil {
		return err
	}

	var probes []*model.Probe
	if err := json.Unmarshal(data, &probes); err != nil {
		return fmt.Errorf("decoding snapshot payload: %w", err)
	}

	if _, err := s.Create(ctx, fmt.Sprintf("Backup before restoring snapshot %d", snap.ID), "system", model.ChangeTypeBackup); err != nil {
		return fmt.Errorf("creating pre-restore backup: %w", err)
	}

	if err := s.probeRepo.ReplaceAll(ctx, probes); err != nil {
		return fmt.Errorf("restoring catalog: %w", err)
	}

	_, err = s.Create(ctx, fmt.Sprintf("Restored snapshot %d", snap.ID), author, model.ChangeTypeRestore)
	return err
}

// Compare diffs two snapshots: metadata deltas plus the probe names added
// and removed between the older ("from") and newer ("to") state.
func (s *Service) Compare(ctx context.Context, fromID, toID string) (*model.SnapshotComparison, error) {
	fromData, fromSnap, err := s.Payload(ctx, fromID)
	if err != nil {
		return nil, err
	}
	toData, toSnap, err := s.Payload(ctx, toID)
	if err != nil {
		return nil, err
	}

	fromNames, err := payloadNames(fromData)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %d payload: %w", fromSnap.ID, err)
	}
	toNames, err := payloadNames(toData)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %d payload: %w", toSnap.ID, err)
	}

	cmp := &model.SnapshotComparison{
		From:           toAPIResponse(fromSnap),
		To:             toAPIResponse(toSnap),
		ProbeCountDiff: toSnap.ProbeCount - fromSnap.ProbeCount,
		SizeBytesDiff:  toSnap.SizeBytes - fromSnap.SizeBytes,
		SameHash:       fromSnap.Hash == toSnap.Hash,
	}
	for name := range toNames {
		if _, ok := fromNames[name]; ok {
			cmp.CommonProbes++
		} else {
			cmp.AddedProbes = append(cmp.AddedProbes, name)
		}
	}
	for name := range fromNames {
		if _, ok := toNames[name]; !ok {
			cmp.RemovedProbes = append(cmp.RemovedProbes, name)
		}
	}
	sort.Strings(cmp.AddedProbes)
	sort.Strings(cmp.RemovedProbes)
	return cmp, nil
}

func payloadNames(data []byte) (map[string]struct{}, error) {
	var probes []*model.Probe
	if err := json.Unmarshal(data, &probes); err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(probes))
	for _, p := range probes {
		names[p.Name] = struct{}{}
	}
	return names, nil
}

// Delete removes a snapshot's metadata and payload file.
func (s *Service) Delete(ctx context.Context, publicID string) error {
	snap, err := s.find(ctx, publicID)
	if err != nil {
		return err
	}
	if err := s.snapshotRepo.Delete(ctx, snap.ID); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, snap.Filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snapshot file: %w", err)
	}
	return nil
}

// Prune enforces the retention limit by deleting the oldest snapshots.
func (s *Service) Prune(ctx context.Context) error {
	count, err := s.snapshotRepo.Count(ctx)
	if err != nil {
		return err
	}
	excess := count - constant.MaxSnapshots
	if excess <= 0 {
		return nil
	}

	oldest, err := s.snapshotRepo.Oldest(ctx, excess)
	if err != nil {
		return err
	}
	for _, snap := range oldest {
		if err := s.snapshotRepo.Delete(ctx, snap.ID); err != nil {
			return err
		}
		if err := os.Remove(filepath.Join(s.dir, snap.Filename)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (s *Service) find(ctx context.Context, publicID string) (*model.Snapshot, error) {
	id, entityType, err := idgen.DecodePublicID(publicID)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot id: %w", err)
	}
	if entityType != idgen.EntityTypeSnapshot {
		return nil, fmt.Errorf("public id %q is not a snapshot id", publicID)
	}
	return s.snapshotRepo.FindByID(ctx, id)
}

func toAPIResponse(snap *model.Snapshot) *model.SnapshotResponse {
	if snap == nil {
		return nil
	}
	publicID, _ := idgen.GeneratePublicID(snap.ID, idgen.EntityTypeSnapshot)
	return &model.SnapshotResponse{
		ID:          publicID,
		CreatedAt:   snap.CreatedAt,
		Description: snap.Description,
		Author:      snap.Author,
		ChangeType:  snap.ChangeType,
		Hash:        snap.Hash,
		ProbeCount:  snap.ProbeCount,
		SizeBytes:   snap.SizeBytes,
	}
}
