package postgres

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	"github.com/echosoul/echosoul/internal/crypto"
	"github.com/echosoul/echosoul/internal/llm"
	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/pkg/types"
)

// candidatePool caps the similarity scan when pgvector is unavailable and
// ranking happens in Go.
const candidatePool = 10000

// DB wraps a configured PostgreSQL handle shared by per-user stores.
type DB struct {
	db                *sql.DB
	pgvectorAvailable bool
	log               zerolog.Logger
}

// Open connects to PostgreSQL, applies the schema, and probes for the
// pgvector extension. A missing extension is not fatal: similarity search
// falls back to scanning the BYTEA column and ranking in Go.
func Open(dsn string, log zerolog.Logger) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}

	d := &DB{db: db, log: log.With().Str("component", "postgres").Logger()}

	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		d.log.Warn().Err(err).Msg("pgvector unavailable; similarity search falls back to in-process ranking")
		return d, nil
	}
	if _, err := db.Exec(MigrationPgvector); err != nil {
		d.log.Warn().Err(err).Msg("pgvector migration failed; similarity search falls back to in-process ranking")
		return d, nil
	}
	d.pgvectorAvailable = true
	return d, nil
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// MemoryStore implements storage.MemoryStore for one user on PostgreSQL.
type MemoryStore struct {
	db       *DB
	userID   string
	embedder llm.EmbeddingGenerator
	cipher   *crypto.Cipher
	log      zerolog.Logger
}

var _ storage.MemoryStore = (*MemoryStore)(nil)

// NewMemoryStore binds a store to one user over a shared DB.
func NewMemoryStore(db *DB, userID string, embedder llm.EmbeddingGenerator, cipher *crypto.Cipher, log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		db:       db,
		userID:   userID,
		embedder: embedder,
		cipher:   cipher,
		log:      log.With().Str("component", "postgres").Str("user_id", userID).Logger(),
	}
}

func embedText(m *types.Memory) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Title, m.Content, m.Emotion} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Store persists a memory. Plain memories are embedded first and written
// record-then-index inside a transaction; vault memories are sealed with the
// user's cipher and never indexed.
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
		return "", fmt.Errorf("%w: kind %q does not match the requested partition", storage.ErrInvalidInput, memory.Kind)
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

func (s *MemoryStore) storePlain(ctx context.Context, memory *types.Memory) (string, error) {
	vec, err := s.embedder.Embed(ctx, embedText(memory))
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrEmbeddingUnavailable, err)
	}

	tagsJSON, detailsJSON, extraJSON, err := marshalAux(memory)
	if err != nil {
		return "", err
	}

	// Record and index land atomically; the sqlite backend relies on marker
	// files for this, here a transaction is cheaper.
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: begin: %v", storage.ErrStorageIO, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, timestamp, kind, title, content, tags, emotion, emotion_details, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		memory.ID, s.userID, memory.Timestamp, string(memory.Kind),
		memory.Title, memory.Content, tagsJSON, memory.Emotion, detailsJSON, extraJSON,
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert memory: %v", storage.ErrStorageIO, err)
	}

	if s.db.pgvectorAvailable {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO memory_index (memory_id, user_id, model, dim, vector, vec, indexed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			memory.ID, s.userID, s.embedder.GetModel(), len(vec), encodeVector(vec),
			pgvector.NewVector(vec), time.Now().UTC(),
		)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO memory_index (memory_id, user_id, model, dim, vector, indexed_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			memory.ID, s.userID, s.embedder.GetModel(), len(vec), encodeVector(vec), time.Now().UTC(),
		)
	}
	if err != nil {
		return "", fmt.Errorf("%w: insert index: %v", storage.ErrStorageIO, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: commit: %v", storage.ErrStorageIO, err)
	}
	return memory.ID, nil
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
		VALUES ($1, $2, $3, $4, $5)`,
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
		FROM memories WHERE id = $1 AND user_id = $2`, id, s.userID)
	m, err := scanMemory(row)
	if err == nil {
		return m, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var payload []byte
	err = s.db.db.QueryRowContext(ctx,
		`SELECT payload FROM vault WHERE id = $1 AND user_id = $2`, id, s.userID,
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

// Retrieve ranks the user's indexed memories against the query, most similar
// first. With pgvector the database orders by cosine distance; otherwise
// candidates are scanned and ranked in Go.
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

	if s.db.pgvectorAvailable {
		return s.retrievePgvector(ctx, qvec, opts)
	}
	return s.retrieveScan(ctx, qvec, opts)
}

func (s *MemoryStore) retrievePgvector(ctx context.Context, qvec []float32, opts storage.RetrieveOptions) ([]storage.ScoredMemory, error) {
	args := []any{pgvector.NewVector(qvec), s.userID}
	kindFilter := ""
	if opts.Kind != "" {
		kindFilter = " AND m.kind = $3"
		args = append(args, string(opts.Kind))
	}
	args = append(args, opts.Limit)

	// Cosine distance is 1 - similarity; ordering ascending by distance with
	// a timestamp tiebreak matches the ranking contract.
	rows, err := s.db.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT m.id, m.user_id, m.timestamp, m.kind, m.title, m.content, m.tags, m.emotion, m.emotion_details, m.extra,
		       1 - (i.vec <=> $1) AS similarity
		FROM memories m
		JOIN memory_index i ON i.memory_id = m.id
		WHERE m.user_id = $2%s AND i.vec IS NOT NULL
		ORDER BY i.vec <=> $1 ASC, m.timestamp DESC
		LIMIT $%d`, kindFilter, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity query: %v", storage.ErrStorageIO, err)
	}
	defer rows.Close()

	scored := []storage.ScoredMemory{}
	for rows.Next() {
		m, sim, err := scanScoredMemory(rows)
		if err != nil {
			s.log.Warn().Err(err).Msg("skipped malformed record during retrieval")
			continue
		}
		m.Similarity = sim
		scored = append(scored, storage.ScoredMemory{Memory: *m, Score: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: similarity query: %v", storage.ErrStorageIO, err)
	}
	return scored, nil
}

func (s *MemoryStore) retrieveScan(ctx context.Context, qvec []float32, opts storage.RetrieveOptions) ([]storage.ScoredMemory, error) {
	args := []any{s.userID}
	kindFilter := ""
	if opts.Kind != "" {
		kindFilter = " AND m.kind = $2"
		args = append(args, string(opts.Kind))
	}
	args = append(args, candidatePool)

	rows, err := s.db.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT m.id, m.user_id, m.timestamp, m.kind, m.title, m.content, m.tags, m.emotion, m.emotion_details, m.extra,
		       i.dim, i.vector
		FROM memories m
		JOIN memory_index i ON i.memory_id = m.id
		WHERE m.user_id = $1%s
		ORDER BY m.timestamp DESC
		LIMIT $%d`, kindFilter, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity scan: %v", storage.ErrStorageIO, err)
	}
	defer rows.Close()

	scored := []storage.ScoredMemory{}
	for rows.Next() {
		m, dim, blob, err := scanIndexedMemory(rows)
		if err != nil {
			s.log.Warn().Err(err).Msg("skipped malformed record during retrieval")
			continue
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			s.log.Warn().Err(err).Msg("skipped malformed vector during retrieval")
			continue
		}
		sim := cosineSimilarity(qvec, vec)
		m.Similarity = sim
		scored = append(scored, storage.ScoredMemory{Memory: *m, Score: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: similarity scan: %v", storage.ErrStorageIO, err)
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
	return scored, nil
}

// ListTimeline returns plain memories within the range, oldest first.
func (s *MemoryStore) ListTimeline(ctx context.Context, r storage.TimelineRange) ([]types.Memory, error) {
	where := "WHERE user_id = $1"
	args := []any{s.userID}
	if r.Start != nil {
		args = append(args, *r.Start)
		where += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if r.End != nil {
		args = append(args, *r.End)
		where += fmt.Sprintf(" AND timestamp <= $%d", len(args))
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
		FROM memories WHERE user_id = $1 AND kind = $2
		ORDER BY timestamp DESC LIMIT $3`, s.userID, string(kind), n)
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

// ListVault decrypts every vault record for the user, oldest first.
func (s *MemoryStore) ListVault(ctx context.Context) ([]types.Memory, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT payload FROM vault WHERE user_id = $1 ORDER BY timestamp ASC`, s.userID)
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
		`SELECT COUNT(*) FROM memories WHERE user_id = $1`, s.userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", storage.ErrStorageIO, err)
	}
	return n, nil
}

// ReindexPending rebuilds index entries for plain records that have none.
// Transactions make the window small on this backend, but records imported
// out-of-band still benefit.
func (s *MemoryStore) ReindexPending(ctx context.Context) (int, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, user_id, timestamp, kind, title, content, tags, emotion, emotion_details, extra
		FROM memories m
		WHERE m.user_id = $1
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
		if s.db.pgvectorAvailable {
			_, err = s.db.db.ExecContext(ctx, `
				INSERT INTO memory_index (memory_id, user_id, model, dim, vector, vec, indexed_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT(memory_id) DO NOTHING`,
				m.ID, s.userID, s.embedder.GetModel(), len(vec), encodeVector(vec),
				pgvector.NewVector(vec), time.Now().UTC(),
			)
		} else {
			_, err = s.db.db.ExecContext(ctx, `
				INSERT INTO memory_index (memory_id, user_id, model, dim, vector, indexed_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT(memory_id) DO NOTHING`,
				m.ID, s.userID, s.embedder.GetModel(), len(vec), encodeVector(vec), time.Now().UTC(),
			)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("memory_id", m.ID).Msg("re-index insert failed")
			continue
		}
		reindexed++
	}
	if reindexed > 0 {
		s.log.Info().Int("reindexed", reindexed).Msg("rebuilt pending index entries")
	}
	return reindexed, nil
}

// Close is a no-op: the shared DB pool is owned by the caller that opened it.
func (s *MemoryStore) Close() error {
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte, dim int) ([]float32, error) {
	if len(buf) != 4*dim {
		return nil, fmt.Errorf("vector blob is %d bytes, expected %d", len(buf), 4*dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

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

func scanScoredMemory(rows *sql.Rows) (*types.Memory, float64, error) {
	var (
		m                                types.Memory
		kind                             string
		tagsJSON, detailsJSON, extraJSON sql.NullString
		sim                              float64
	)
	err := rows.Scan(&m.ID, &m.UserID, &m.Timestamp, &kind, &m.Title, &m.Content,
		&tagsJSON, &m.Emotion, &detailsJSON, &extraJSON, &sim)
	if err != nil {
		return nil, 0, err
	}
	m.Kind = types.MemoryKind(kind)
	if err := unmarshalAux(&m, tagsJSON, detailsJSON, extraJSON); err != nil {
		return nil, 0, err
	}
	return &m, sim, nil
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
