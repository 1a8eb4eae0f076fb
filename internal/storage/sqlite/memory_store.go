package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echosoul/echosoul/internal/crypto"
	"github.com/echosoul/echosoul/internal/llm"
	"github.com/echosoul/echosoul/internal/notify"
	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/pkg/types"
)

// staleMarkerGrace is how old a re-index marker must be before the stale
// sweep may clear it.
const staleMarkerGrace = time.Minute

// candidatePool caps how many indexed rows a similarity search scans.
// Newest rows win the cut when a user exceeds it.
const candidatePool = 10000

// MemoryStore implements storage.MemoryStore for one user on SQLite.
// Several stores may share one DB; SQLite serialises their writes through
// the single connection configured in Open.
type MemoryStore struct {
	db       *DB
	userID   string
	embedder llm.EmbeddingGenerator
	cipher   *crypto.Cipher
	markers  *notify.Markers
	log      zerolog.Logger
}

var _ storage.MemoryStore = (*MemoryStore)(nil)

// NewMemoryStore binds a store to one user. The cipher guards the vault
// partition; markers (optional) record in-flight index writes so a crash
// between the record insert and the index insert is recoverable.
func NewMemoryStore(db *DB, userID string, embedder llm.EmbeddingGenerator, cipher *crypto.Cipher, markers *notify.Markers, log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		db:       db,
		userID:   userID,
		embedder: embedder,
		cipher:   cipher,
		markers:  markers,
		log:      log.With().Str("component", "sqlite").Str("user_id", userID).Logger(),
	}
}

// embedText builds the text that is embedded for a memory: title, content and
// dominant emotion joined into one string.
func embedText(m *types.Memory) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Title, m.Content, m.Emotion} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Store persists a memory. Plain memories are embedded before anything is
// written, so an embedding failure leaves no partial record behind. Vault
// memories skip embedding entirely and are sealed with the user's cipher.
func (s *MemoryStore) Store(ctx context.Context, memory *types.Memory, vault bool) (string, error) {
	if memory == nil {
		return "", storage.ErrInvalidInput
	}
	if strings.TrimSpace(memory.Content) == "" {
		return "", fmt.Errorf("%w: memory content is required", storage.ErrInvalidInput)
	}

	if memory.Kind == "" {
		if vault {
			memory.Kind = types.KindVaultPersonal
		} else {
			memory.Kind = types.KindConversation
		}
	}
	if !memory.Kind.Valid() {
		return "", fmt.Errorf("%w: unknown memory kind %q", storage.ErrInvalidInput, memory.Kind)
	}
	if memory.Kind.IsVault() != vault {
		return "", fmt.Errorf("%w: kind %q does not match the %s partition",
			storage.ErrInvalidInput, memory.Kind, partitionName(vault))
	}

	if memory.ID == "" {
		memory.ID = uuid.NewString()
	}
	if memory.Timestamp.IsZero() {
		memory.Timestamp = time.Now().UTC()
	}
	memory.UserID = s.userID
	memory.Encrypted = vault
	memory.Similarity = 0

	if vault {
		return s.storeVault(ctx, memory)
	}
	return s.storePlain(ctx, memory)
}

func partitionName(vault bool) string {
	if vault {
		return "vault"
	}
	return "plain"
}

func (s *MemoryStore) storePlain(ctx context.Context, memory *types.Memory) (string, error) {
	vec, err := s.embedder.Embed(ctx, embedText(memory))
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrEmbeddingUnavailable, err)
	}

	tagsJSON, detailsJSON, extraJSON, err := marshalAux(memory)
	if err != nil {
		return "", err
	}

	// The marker precedes the record insert: if the process dies before the
	// index row lands, the surviving marker names the record to re-index.
	if s.markers != nil {
		if err := s.markers.Set(memory.ID); err != nil {
			s.log.Warn().Err(err).Str("memory_id", memory.ID).Msg("failed to write re-index marker")
		}
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, timestamp, kind, title, content, tags, emotion, emotion_details, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		memory.ID, s.userID, memory.Timestamp, string(memory.Kind),
		memory.Title, memory.Content, tagsJSON, memory.Emotion, detailsJSON, extraJSON,
	)
	if err != nil {
		if s.markers != nil {
			s.markers.Clear(memory.ID)
		}
		return "", fmt.Errorf("%w: insert memory: %v", storage.ErrStorageIO, err)
	}

	if err := s.insertIndex(ctx, memory.ID, vec); err != nil {
		// The record is durable; the index entry is rebuilt by ReindexPending.
		s.log.Warn().Err(err).Str("memory_id", memory.ID).Msg("index insert failed; record left pending")
		return memory.ID, nil
	}

	if s.markers != nil {
		s.markers.Clear(memory.ID)
	}
	return memory.ID, nil
}

func (s *MemoryStore) insertIndex(ctx context.Context, memoryID string, vec []float32) error {
	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO memory_index (memory_id, user_id, model, dim, vector, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(memory_id) DO UPDATE SET
			model = excluded.model,
			dim = excluded.dim,
			vector = excluded.vector,
			indexed_at = excluded.indexed_at`,
		memoryID, s.userID, s.embedder.GetModel(), len(vec), encodeVector(vec), time.Now().UTC(),
	)
	return err
}

func (s *MemoryStore) storeVault(ctx context.Context, memory *types.Memory) (string, error) {
	plaintext, err := json.Marshal(memory)
	if err != nil {
		return "", fmt.Errorf("marshal vault record: %w", err)
	}
	sealed, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("seal vault record: %w", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO vault (id, user_id, timestamp, kind, payload)
		VALUES (?, ?, ?, ?, ?)`,
		memory.ID, s.userID, memory.Timestamp, string(memory.Kind), sealed,
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert vault record: %v", storage.ErrStorageIO, err)
	}
	return memory.ID, nil
}

// Get looks the ID up in the plain partition first, then the vault.
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Memory, error) {
	if id == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.db.db.QueryRowContext(ctx, `
		SELECT id, user_id, timestamp, kind, title, content, tags, emotion, emotion_details, extra
		FROM memories WHERE id = ? AND user_id = ?`, id, s.userID)
	m, err := scanMemory(row)
	if err == nil {
		return m, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var payload []byte
	err = s.db.db.QueryRowContext(ctx,
		`SELECT payload FROM vault WHERE id = ? AND user_id = ?`, id, s.userID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read vault record: %v", storage.ErrStorageIO, err)
	}
	return s.openVaultRecord(payload)
}

func (s *MemoryStore) openVaultRecord(payload []byte) (*types.Memory, error) {
	plaintext, err := s.cipher.Decrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrMalformedRecord, err)
	}
	var m types.Memory
	if err := json.Unmarshal(plaintext, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrMalformedRecord, err)
	}
	m.Encrypted = true
	return &m, nil
}

// Retrieve embeds the query and ranks the user's indexed memories by cosine
// similarity, most similar first. Ties break toward the newest timestamp.
func (s *MemoryStore) Retrieve(ctx context.Context, query string, opts storage.RetrieveOptions) ([]storage.ScoredMemory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", storage.ErrInvalidInput)
	}
	opts.Normalize()
	if opts.Kind != "" && opts.Kind.IsVault() {
		return []storage.ScoredMemory{}, nil
	}

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrEmbeddingUnavailable, err)
	}

	args := []any{s.userID}
	kindFilter := ""
	if opts.Kind != "" {
		kindFilter = " AND m.kind = ?"
		args = append(args, string(opts.Kind))
	}
	args = append(args, candidatePool)

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT m.id, m.user_id, m.timestamp, m.kind, m.title, m.content, m.tags, m.emotion, m.emotion_details, m.extra,
		       i.dim, i.vector
		FROM memories m
		JOIN memory_index i ON i.memory_id = m.id
		WHERE m.user_id = ?`+kindFilter+`
		ORDER BY m.timestamp DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity scan: %v", storage.ErrStorageIO, err)
	}
	defer rows.Close()

	var (
		scored    []storage.ScoredMemory
		malformed int
	)
	for rows.Next() {
		m, dim, blob, err := scanIndexedMemory(rows)
		if err != nil {
			malformed++
			continue
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			malformed++
			continue
		}
		sim := cosineSimilarity(qvec, vec)
		m.Similarity = sim
		scored = append(scored, storage.ScoredMemory{Memory: *m, Score: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: similarity scan: %v", storage.ErrStorageIO, err)
	}
	if malformed > 0 {
		s.log.Warn().Int("skipped", malformed).Msg("skipped malformed records during retrieval")
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Timestamp.After(scored[j].Timestamp)
	})
	if len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	if scored == nil {
		scored = []storage.ScoredMemory{}
	}
	return scored, nil
}

// ListTimeline returns plain memories within the range, oldest first.
func (s *MemoryStore) ListTimeline(ctx context.Context, r storage.TimelineRange) ([]types.Memory, error) {
	where := "WHERE user_id = ?"
	args := []any{s.userID}
	if r.Start != nil {
		where += " AND timestamp >= ?"
		args = append(args, *r.Start)
	}
	if r.End != nil {
		where += " AND timestamp <= ?"
		args = append(args, *r.End)
	}

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, user_id, timestamp, kind, title, content, tags, emotion, emotion_details, extra
		FROM memories `+where+` ORDER BY timestamp ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: timeline scan: %v", storage.ErrStorageIO, err)
	}
	defer rows.Close()
	return s.collectMemories(rows)
}

// ListRecent returns up to n plain memories of a kind, newest first.
func (s *MemoryStore) ListRecent(ctx context.Context, kind types.MemoryKind, n int) ([]types.Memory, error) {
	if n <= 0 {
		return []types.Memory{}, nil
	}
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, user_id, timestamp, kind, title, content, tags, emotion, emotion_details, extra
		FROM memories WHERE user_id = ? AND kind = ?
		ORDER BY timestamp DESC LIMIT ?`, s.userID, string(kind), n)
	if err != nil {
		return nil, fmt.Errorf("%w: recent scan: %v", storage.ErrStorageIO, err)
	}
	defer rows.Close()
	return s.collectMemories(rows)
}

func (s *MemoryStore) collectMemories(rows *sql.Rows) ([]types.Memory, error) {
	out := []types.Memory{}
	malformed := 0
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			malformed++
			continue
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrStorageIO, err)
	}
	if malformed > 0 {
		s.log.Warn().Int("skipped", malformed).Msg("skipped malformed records during scan")
	}
	return out, nil
}

// ListVault decrypts every vault record for the user, oldest first. Records
// that fail to open (wrong key, corrupt payload) are skipped and counted.
func (s *MemoryStore) ListVault(ctx context.Context) ([]types.Memory, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT payload FROM vault WHERE user_id = ? ORDER BY timestamp ASC`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: vault scan: %v", storage.ErrStorageIO, err)
	}
	defer rows.Close()

	out := []types.Memory{}
	malformed := 0
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			malformed++
			continue
		}
		m, err := s.openVaultRecord(payload)
		if err != nil {
			malformed++
			continue
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: vault scan: %v", storage.ErrStorageIO, err)
	}
	if malformed > 0 {
		s.log.Warn().Int("skipped", malformed).Msg("skipped unreadable vault records")
	}
	return out, nil
}

// Count returns the number of plain memories.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE user_id = ?`, s.userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", storage.ErrStorageIO, err)
	}
	return n, nil
}

// ReindexPending rebuilds index entries for plain records that have none.
// The database is authoritative; markers for records that no longer exist or
// are already indexed are cleared as stale.
func (s *MemoryStore) ReindexPending(ctx context.Context) (int, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, user_id, timestamp, kind, title, content, tags, emotion, emotion_details, extra
		FROM memories m
		WHERE m.user_id = ?
		  AND NOT EXISTS (SELECT 1 FROM memory_index i WHERE i.memory_id = m.id)`, s.userID)
	if err != nil {
		return 0, fmt.Errorf("%w: pending scan: %v", storage.ErrStorageIO, err)
	}
	pending, err := s.collectMemories(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	reindexed := 0
	for i := range pending {
		m := &pending[i]
		vec, err := s.embedder.Embed(ctx, embedText(m))
		if err != nil {
			s.log.Warn().Err(err).Str("memory_id", m.ID).Msg("re-index embedding failed; will retry later")
			continue
		}
		if err := s.insertIndex(ctx, m.ID, vec); err != nil {
			s.log.Warn().Err(err).Str("memory_id", m.ID).Msg("re-index insert failed")
			continue
		}
		if s.markers != nil {
			s.markers.Clear(m.ID)
		}
		reindexed++
	}

	s.clearStaleMarkers(ctx)

	if reindexed > 0 {
		s.log.Info().Int("reindexed", reindexed).Msg("rebuilt pending index entries")
	}
	return reindexed, nil
}

// clearStaleMarkers removes markers whose record is already indexed or gone.
// Only markers past the grace period are considered: a concurrent Store sets
// its marker before the record insert, so a brand-new marker may have no
// visible record yet without being stale.
func (s *MemoryStore) clearStaleMarkers(ctx context.Context) {
	if s.markers == nil {
		return
	}
	ids, err := s.markers.PendingOlderThan(staleMarkerGrace)
	if err != nil {
		return
	}
	for _, id := range ids {
		var n int
		err := s.db.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM memories m
			WHERE m.id = ? AND NOT EXISTS (SELECT 1 FROM memory_index i WHERE i.memory_id = m.id)`,
			id).Scan(&n)
		if err == nil && n == 0 {
			s.markers.Clear(id)
		}
	}
}

// Close is a no-op: the shared DB handle is owned by the caller that opened
// it and may back other users' stores.
func (s *MemoryStore) Close() error {
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the row decoders.
type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (*types.Memory, error) {
	var (
		m                                types.Memory
		kind                             string
		tagsJSON, detailsJSON, extraJSON sql.NullString
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Timestamp, &kind, &m.Title, &m.Content,
		&tagsJSON, &m.Emotion, &detailsJSON, &extraJSON)
	if err != nil {
		return nil, err
	}
	m.Kind = types.MemoryKind(kind)
	if err := unmarshalAux(&m, tagsJSON, detailsJSON, extraJSON); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanIndexedMemory(rows *sql.Rows) (*types.Memory, int, []byte, error) {
	var (
		m                                types.Memory
		kind                             string
		tagsJSON, detailsJSON, extraJSON sql.NullString
		dim                              int
		blob                             []byte
	)
	err := rows.Scan(&m.ID, &m.UserID, &m.Timestamp, &kind, &m.Title, &m.Content,
		&tagsJSON, &m.Emotion, &detailsJSON, &extraJSON, &dim, &blob)
	if err != nil {
		return nil, 0, nil, err
	}
	m.Kind = types.MemoryKind(kind)
	if err := unmarshalAux(&m, tagsJSON, detailsJSON, extraJSON); err != nil {
		return nil, 0, nil, err
	}
	return &m, dim, blob, nil
}

func marshalAux(m *types.Memory) (tags, details, extra any, err error) {
	if len(m.Tags) > 0 {
		b, err := json.Marshal(m.Tags)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal tags: %w", err)
		}
		tags = string(b)
	}
	if m.EmotionDetails != nil {
		b, err := json.Marshal(m.EmotionDetails)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal emotion details: %w", err)
		}
		details = string(b)
	}
	if len(m.Extra) > 0 {
		b, err := json.Marshal(m.Extra)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal extra fields: %w", err)
		}
		extra = string(b)
	}
	return tags, details, extra, nil
}

func unmarshalAux(m *types.Memory, tagsJSON, detailsJSON, extraJSON sql.NullString) error {
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &m.Tags); err != nil {
			return fmt.Errorf("%w: tags: %v", storage.ErrMalformedRecord, err)
		}
	}
	if detailsJSON.Valid && detailsJSON.String != "" {
		if err := json.Unmarshal([]byte(detailsJSON.String), &m.EmotionDetails); err != nil {
			return fmt.Errorf("%w: emotion details: %v", storage.ErrMalformedRecord, err)
		}
	}
	if extraJSON.Valid && extraJSON.String != "" {
		if err := json.Unmarshal([]byte(extraJSON.String), &m.Extra); err != nil {
			return fmt.Errorf("%w: extra fields: %v", storage.ErrMalformedRecord, err)
		}
	}
	return nil
}
