package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echosoul/echosoul/internal/crypto"
	"github.com/echosoul/echosoul/internal/emotion"
	"github.com/echosoul/echosoul/internal/engine"
	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/internal/storage/sqlite"
)

type flatEmbedder struct{}

func (flatEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (flatEmbedder) GetModel() string { return "flat" }

func newTestImporter(t *testing.T) (*Importer, *engine.Engine) {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cipher, err := crypto.New("user-1", "s")
	require.NoError(t, err)
	store := sqlite.NewMemoryStore(db, "user-1", flatEmbedder{}, cipher, nil, zerolog.Nop())
	profiles := sqlite.NewProfileStore(db)
	analyzer := emotion.NewAnalyzer(nil, zerolog.Nop())
	eng := engine.New("user-1", store, profiles, analyzer, zerolog.Nop())
	return New(eng, zerolog.Nop()), eng
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportMixedPartitions(t *testing.T) {
	imp, eng := newTestImporter(t)
	ctx := context.Background()

	path := writeExport(t, `[
		{"kind": "journal", "content": "old journal entry", "timestamp": "2025-06-01T10:00:00Z"},
		{"kind": "event", "content": "moved apartments", "emotion": "stress"},
		{"kind": "vault-secret", "content": "hidden wish"}
	]`)

	result, err := imp.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 0, result.Skipped)

	n, err := eng.CountMemories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "vault record must not land in the plain partition")

	vault, err := eng.ListVaultMemories(ctx)
	require.NoError(t, err)
	require.Len(t, vault, 1)
	assert.Equal(t, "hidden wish", vault[0].Content)

	// The explicit timestamp survives the import.
	timeline, err := eng.ListTimeline(ctx, storage.TimelineRange{})
	require.NoError(t, err)
	assert.Equal(t, "old journal entry", timeline[0].Content)
	assert.Equal(t, 2025, timeline[0].Timestamp.Year())
}

func TestImportSkipsBadRecords(t *testing.T) {
	imp, eng := newTestImporter(t)
	ctx := context.Background()

	path := writeExport(t, `[
		{"kind": "journal", "content": "fine"},
		{"kind": "journal", "content": ""},
		{"kind": "made-up", "content": "unknown kind"}
	]`)

	result, err := imp.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	n, err := eng.CountMemories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportFileErrors(t *testing.T) {
	imp, _ := newTestImporter(t)
	ctx := context.Background()

	_, err := imp.ImportFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeExport(t, `{"not": "an array"}`)
	_, err = imp.ImportFile(ctx, path)
	assert.Error(t, err)
}
