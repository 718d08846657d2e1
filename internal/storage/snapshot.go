// Package storage persists flushed session snapshots. The scheduler calls
// it only at explicit flush points and never depends on the format here.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/standardbeagle/codepulse/internal/debug"
	cperrors "github.com/standardbeagle/codepulse/internal/errors"
	"github.com/standardbeagle/codepulse/internal/types"
)

// SnapshotStore loads and saves accumulated session data.
type SnapshotStore interface {
	Load() (*types.Snapshot, error)
	Save(*types.Snapshot) error
}

// FileSnapshotStore keeps the snapshot as a single JSON file. Writes go
// through a temp file and rename so a crash mid-write never truncates the
// previous snapshot.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore creates a store writing to the given path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Load reads the snapshot. A missing file is not an error; it yields an
// empty snapshot so first-run flushes have something to fold into.
func (s *FileSnapshotStore) Load() (*types.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewSnapshot(), nil
		}
		return nil, cperrors.NewSnapshotError("load", s.path, err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, cperrors.NewSnapshotError("decode", s.path, err)
	}
	if snap.DailyTotals == nil {
		snap.DailyTotals = make(map[string]types.DayTotals)
	}
	return &snap, nil
}

// Save writes the snapshot atomically.
func (s *FileSnapshotStore) Save(snap *types.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return cperrors.NewSnapshotError("encode", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return cperrors.NewSnapshotError("mkdir", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return cperrors.NewSnapshotError("write", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return cperrors.NewSnapshotError("rename", s.path, err)
	}

	debug.Log("storage", "saved snapshot with %d days, %d files", len(snap.DailyTotals), len(snap.Files))
	return nil
}
