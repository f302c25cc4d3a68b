package model

import "time"

// Snapshot is the metadata of one saved catalog state. The payload itself
// lives as a JSON file under the snapshot directory.
type Snapshot struct {
	ID          uint
	CreatedAt   time.Time
	Description string
	Author      string
	ChangeType  string
	Hash        string
	Filename    string
	ProbeCount  int
	SizeBytes   int64
}

// Change types recorded with snapshots.
const (
	ChangeTypeManual         = "manual"
	ChangeTypeUpdate         = "update"
	ChangeTypeSeriesCreation = "series_creation"
	ChangeTypeSeriesComplete = "series_complete"
	ChangeTypeRecalculation  = "recalculation"
	ChangeTypeRestore        = "restore"
	ChangeTypeBackup         = "backup"
	ChangeTypeImport         = "import"
)

// CreateSnapshotRequest asks for a manual snapshot.
type CreateSnapshotRequest struct {
	Description string `json:"description"`
}

// SnapshotComparison reports how two catalog snapshots differ. Probes are
// matched by name, the stable identity across restores.
type SnapshotComparison struct {
	From           *SnapshotResponse `json:"from"`
	To             *SnapshotResponse `json:"to"`
	ProbeCountDiff int               `json:"probe_count_diff"`
	SizeBytesDiff  int64             `json:"size_bytes_diff"`
	SameHash       bool              `json:"same_hash"`
	AddedProbes    []string          `json:"added_probes"`
	RemovedProbes  []string          `json:"removed_probes"`
	CommonProbes   int               `json:"common_probes"`
}

// SnapshotResponse is the API shape of snapshot metadata.
type SnapshotResponse struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	ChangeType  string    `json:"change_type"`
	Hash        string    `json:"hash"`
	ProbeCount  int       `json:"probe_count"`
	SizeBytes   int64     `json:"size_bytes"`
}
