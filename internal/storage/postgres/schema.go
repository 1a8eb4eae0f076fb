// Package postgres provides a PostgreSQL implementation of the storage
// interfaces, with optional pgvector acceleration for similarity search.
package postgres

// Schema contains the base DDL. Safe to apply repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    timestamp       TIMESTAMPTZ NOT NULL,
    kind            TEXT NOT NULL,
    title           TEXT NOT NULL DEFAULT '',
    content         TEXT NOT NULL,
    tags            JSONB,
    emotion         TEXT NOT NULL DEFAULT '',
    emotion_details JSONB,
    extra           JSONB
);

CREATE INDEX IF NOT EXISTS idx_memories_user_time ON memories(user_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_memories_user_kind ON memories(user_id, kind, timestamp);

CREATE TABLE IF NOT EXISTS memory_index (
    memory_id  TEXT PRIMARY KEY REFERENCES memories(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    model      TEXT NOT NULL,
    dim        INTEGER NOT NULL,
    vector     BYTEA NOT NULL,
    indexed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memory_index_user ON memory_index(user_id);

CREATE TABLE IF NOT EXISTS vault (
    id        TEXT PRIMARY KEY,
    user_id   TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    kind      TEXT NOT NULL,
    payload   BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vault_user_time ON vault(user_id, timestamp);

CREATE TABLE IF NOT EXISTS profiles (
    user_id    TEXT PRIMARY KEY,
    traits     JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`

// MigrationPgvector adds the vector column used for native cosine-distance
// queries. Applied only when the pgvector extension is installed; the BYTEA
// column remains authoritative either way.
const MigrationPgvector = `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns
        WHERE table_name = 'memory_index' AND column_name = 'vec'
    ) THEN
        ALTER TABLE memory_index ADD COLUMN vec vector;
    END IF;
END
$$;

-- ivfflat requires at least one row; guard the index creation.
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM pg_indexes WHERE indexname = 'idx_memory_index_vec_cosine'
  ) THEN
    IF EXISTS (SELECT 1 FROM memory_index LIMIT 1) THEN
      EXECUTE 'CREATE INDEX idx_memory_index_vec_cosine ON memory_index USING ivfflat (vec vector_cosine_ops) WITH (lists = 100)';
    END IF;
  END IF;
END$$;
`
