// Package types defines the shared data model for the EchoSoul memory core.
//
// Memories are the atomic units of storage: one stored utterance, journal
// entry, or vault entry per record. Plain memories live in the searchable
// partition and carry an embedding; vault memories are encrypted at rest and
// never enter the plaintext similarity index.
package types

import "time"

// MemoryKind classifies a memory record. The vault-* kinds are only valid
// for encrypted memories; the remaining kinds only for plain ones.
type MemoryKind string

const (
	KindConversation MemoryKind = "conversation"
	KindEvent        MemoryKind = "event"
	KindJournal      MemoryKind = "journal"

	KindVaultPersonal   MemoryKind = "vault-personal"
	KindVaultSecret     MemoryKind = "vault-secret"
	KindVaultDream      MemoryKind = "vault-dream"
	KindVaultGoal       MemoryKind = "vault-goal"
	KindVaultReflection MemoryKind = "vault-reflection"
	KindVaultConfession MemoryKind = "vault-confession"
)

// IsVault reports whether the kind belongs to the encrypted vault partition.
func (k MemoryKind) IsVault() bool {
	switch k {
	case KindVaultPersonal, KindVaultSecret, KindVaultDream,
		KindVaultGoal, KindVaultReflection, KindVaultConfession:
		return true
	}
	return false
}

// Valid reports whether k is one of the known memory kinds.
func (k MemoryKind) Valid() bool {
	switch k {
	case KindConversation, KindEvent, KindJournal:
		return true
	}
	return k.IsVault()
}

// Memory is a single stored record. ID, UserID and Timestamp are assigned by
// the store at creation and are immutable afterwards. Exactly one of the two
// storage paths (plain-indexed or vault-encrypted) is used per memory,
// selected at creation and never changed; the ID is the sole stable handle
// across both partitions.
type Memory struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Timestamp time.Time  `json:"timestamp"`
	Kind      MemoryKind `json:"kind"`

	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"` // the field that is embedded and searched
	Tags    []string `json:"tags,omitempty"`

	// Emotion is the dominant label attached at storage time.
	// EmotionDetails carries the full distribution when available.
	Emotion        string           `json:"emotion,omitempty"`
	EmotionDetails *EmotionAnalysis `json:"emotion_details,omitempty"`

	// Encrypted is true iff the record lives in the vault partition.
	Encrypted bool `json:"encrypted"`

	// Similarity is a retrieval-time annotation (cosine similarity to the
	// query). It is never persisted.
	Similarity float64 `json:"similarity,omitempty"`

	// Extra preserves unknown fields from legacy records opaquely so that
	// re-serialising a record never drops data the core does not model.
	Extra map[string]any `json:"extra,omitempty"`
}
