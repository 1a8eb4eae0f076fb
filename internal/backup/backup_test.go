package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/echosoul/echosoul/internal/crypto"
	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/internal/storage/sqlite"
	"github.com/echosoul/echosoul/pkg/types"
)

type flatEmbedder struct{}

func (flatEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (flatEmbedder) GetModel() string { return "flat" }

// seedDB creates a database file with one memory and returns its path.
func seedDB(t *testing.T, dir string) string {
	t.Helper()
	dbPath := filepath.Join(dir, "echosoul.db")
	db, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	cipher, err := crypto.New("u", "s")
	if err != nil {
		t.Fatal(err)
	}
	store := sqlite.NewMemoryStore(db, "u", flatEmbedder{}, cipher, nil, zerolog.Nop())
	if _, err := store.Store(context.Background(), &types.Memory{Kind: types.KindJournal, Content: "seed entry"}, false); err != nil {
		t.Fatalf("Store: %v", err)
	}
	return dbPath
}

func TestCreateVerifyList(t *testing.T) {
	dir := t.TempDir()
	dbPath := seedDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnapshotter: %v", err)
	}

	path, err := s.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Verify(path); err != nil {
		t.Errorf("Verify: %v", err)
	}

	infos, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 || infos[0].Path != path {
		t.Errorf("list = %+v", infos)
	}
	if infos[0].Size == 0 {
		t.Error("snapshot is empty")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := seedDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Create()
	if err != nil {
		t.Fatal(err)
	}

	// Wreck the live database, then restore.
	if err := os.WriteFile(dbPath, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen after restore: %v", err)
	}
	defer db.Close()

	cipher, _ := crypto.New("u", "s")
	store := sqlite.NewMemoryStore(db, "u", flatEmbedder{}, cipher, nil, zerolog.Nop())
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("count after restore = %d, want 1", n)
	}

	// ListTimeline proves the record content survived.
	mems, err := store.ListTimeline(context.Background(), storage.TimelineRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(mems) != 1 || mems[0].Content != "seed entry" {
		t.Errorf("restored memories = %+v", mems)
	}
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := seedDB(t, dir)

	s, err := NewSnapshotter(dbPath, filepath.Join(dir, "snapshots"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "snapshots", "echosoul-20260101-000000.db")
	if err := os.WriteFile(bad, []byte("not a database"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Restore(bad); err == nil {
		t.Fatal("corrupt snapshot accepted")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	dbPath := seedDB(t, dir)

	snapDir := filepath.Join(dir, "snapshots")
	s, err := NewSnapshotter(dbPath, snapDir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	// Fabricate dated snapshots directly; Create would collide on the
	// per-second timestamp.
	for _, name := range []string{
		"echosoul-20260101-000000.db",
		"echosoul-20260102-000000.db",
		"echosoul-20260103-000000.db",
	} {
		if err := os.WriteFile(filepath.Join(snapDir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := s.Prune(2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	infos, _ := s.List()
	if len(infos) != 2 {
		t.Fatalf("kept %d snapshots, want 2", len(infos))
	}
	if infos[0].Timestamp.Day() != 3 || infos[1].Timestamp.Day() != 2 {
		t.Errorf("pruned the wrong snapshots: %+v", infos)
	}
}
