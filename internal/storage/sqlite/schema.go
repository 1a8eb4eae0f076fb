package sqlite

// Schema defines the SQLite tables. Safe to apply repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    timestamp       DATETIME NOT NULL,
    kind            TEXT NOT NULL,
    title           TEXT NOT NULL DEFAULT '',
    content         TEXT NOT NULL,
    tags            TEXT,               -- JSON array
    emotion         TEXT NOT NULL DEFAULT '',
    emotion_details TEXT,               -- JSON object
    extra           TEXT                -- JSON object, passthrough fields
);

CREATE INDEX IF NOT EXISTS idx_memories_user_time ON memories(user_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_memories_user_kind ON memories(user_id, kind, timestamp);

CREATE TABLE IF NOT EXISTS memory_index (
    memory_id  TEXT PRIMARY KEY REFERENCES memories(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    model      TEXT NOT NULL,
    dim        INTEGER NOT NULL,
    vector     BLOB NOT NULL,
    indexed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memory_index_user ON memory_index(user_id);

CREATE TABLE IF NOT EXISTS vault (
    id        TEXT PRIMARY KEY,
    user_id   TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    kind      TEXT NOT NULL,
    payload   BLOB NOT NULL           -- AES-GCM sealed JSON record
);

CREATE INDEX IF NOT EXISTS idx_vault_user_time ON vault(user_id, timestamp);

CREATE TABLE IF NOT EXISTS profiles (
    user_id    TEXT PRIMARY KEY,
    traits     TEXT NOT NULL,          -- JSON object
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
`
