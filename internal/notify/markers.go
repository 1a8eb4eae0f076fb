// Package notify provides the crash-recovery plumbing for the similarity
// index. A marker file is dropped before a record's index entry is written
// and removed after; a marker that survives means the process died in
// between and the record is pending re-index. The watcher drains leftover
// markers at startup and reacts to new ones, so unindexed records become
// searchable again without any caller intervention.
package notify

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// markerSuffix identifies re-index marker files.
const markerSuffix = ".pending"

// Markers manages the marker directory for one data path.
type Markers struct {
	dir string
}

// NewMarkers creates the marker directory at {dataPath}/reindex.
func NewMarkers(dataPath string) (*Markers, error) {
	dir := filepath.Join(dataPath, "reindex")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Markers{dir: dir}, nil
}

// Set drops a marker for the given memory ID. Must happen before the index
// insert so a crash in between leaves evidence behind.
func (m *Markers) Set(memoryID string) error {
	return os.WriteFile(m.path(memoryID), nil, 0o600)
}

// Clear removes the marker after a successful index insert. Removal of an
// already-gone marker is not an error.
func (m *Markers) Clear(memoryID string) {
	_ = os.Remove(m.path(memoryID))
}

// Pending lists the memory IDs with surviving markers.
func (m *Markers) Pending() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), markerSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), markerSuffix))
	}
	return ids, nil
}

// PendingOlderThan lists the memory IDs whose markers are at least age old.
// Stale-marker sweeps use this so a marker belonging to a write still in
// flight is never mistaken for a leftover.
func (m *Markers) PendingOlderThan(age time.Duration) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-age)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), markerSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), markerSuffix))
	}
	return ids, nil
}

func (m *Markers) path(memoryID string) string {
	return filepath.Join(m.dir, memoryID+markerSuffix)
}
