// Package backup provides point-in-time snapshots of the SQLite memory
// database with integrity verification and keep-last-N pruning. Snapshots
// use VACUUM INTO, which produces a consistent copy even under WAL mode.
package backup

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const snapshotExt = ".db"

// timestampLayout names snapshot files sortably by creation time.
const timestampLayout = "20060102-150405"

// Snapshotter backs up one database file into a snapshot directory.
type Snapshotter struct {
	dbPath string
	dir    string
	log    zerolog.Logger
}

// SnapshotInfo describes one existing snapshot.
type SnapshotInfo struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

// NewSnapshotter creates the snapshot directory if needed.
func NewSnapshotter(dbPath, dir string, log zerolog.Logger) (*Snapshotter, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Snapshotter{
		dbPath: dbPath,
		dir:    dir,
		log:    log.With().Str("component", "backup").Logger(),
	}, nil
}

// Create writes a verified snapshot and returns its path.
func (s *Snapshotter) Create() (string, error) {
	dest := filepath.Join(s.dir, "echosoul-"+time.Now().UTC().Format(timestampLayout)+snapshotExt)

	src, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", s.dbPath))
	if err != nil {
		return "", fmt.Errorf("open source database: %w", err)
	}
	defer src.Close()

	if err := src.Ping(); err != nil {
		return "", fmt.Errorf("ping source database: %w", err)
	}
	if _, err := src.Exec(fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	if err := Verify(dest); err != nil {
		_ = os.Remove(dest)
		return "", err
	}

	s.log.Info().Str("path", dest).Msg("snapshot created")
	return dest, nil
}

// Verify runs SQLite's integrity check against a snapshot.
func Verify(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Restore copies a verified snapshot over the live database path. The
// database must not be open while restoring.
func (s *Snapshotter) Restore(snapshotPath string) error {
	if err := Verify(snapshotPath); err != nil {
		return err
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.dbPath)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy snapshot: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("sync target: %w", err)
	}

	// Stale WAL sidecars would shadow the restored content.
	_ = os.Remove(s.dbPath + "-wal")
	_ = os.Remove(s.dbPath + "-shm")

	s.log.Info().Str("from", snapshotPath).Msg("database restored")
	return nil
}

// List returns existing snapshots, newest first.
func (s *Snapshotter) List() ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var infos []SnapshotInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "echosoul-") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		ts, err := time.Parse(timestampLayout, strings.TrimSuffix(strings.TrimPrefix(name, "echosoul-"), snapshotExt))
		if err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, SnapshotInfo{
			Path:      filepath.Join(s.dir, name),
			Timestamp: ts,
			Size:      fi.Size(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Timestamp.After(infos[j].Timestamp) })
	return infos, nil
}

// Prune deletes all but the newest keep snapshots and returns how many were
// removed.
func (s *Snapshotter) Prune(keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	infos, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, info := range infos[min(keep, len(infos)):] {
		if err := os.Remove(info.Path); err != nil {
			s.log.Warn().Err(err).Str("path", info.Path).Msg("failed to prune snapshot")
			continue
		}
		removed++
	}
	return removed, nil
}
