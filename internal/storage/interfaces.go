package storage

import (
	"context"

	"github.com/echosoul/echosoul/pkg/types"
)

// MemoryStore is the per-user storage handle. Implementations must support
// concurrent readers and serialize concurrent writers; readers never observe
// a half-written record.
type MemoryStore interface {
	// Store assigns an ID and timestamp to the memory and persists it.
	// When vault is true the record is encrypted into the vault partition
	// and never embedded; otherwise an embedding over title+content+emotion
	// is computed first (failure aborts the call with
	// ErrEmbeddingUnavailable) and the record is durably written before its
	// index entry. Store never overwrites an existing ID.
	Store(ctx context.Context, memory *types.Memory, vault bool) (string, error)

	// Get returns a single plain or vault memory by ID.
	// Returns ErrNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*types.Memory, error)

	// Retrieve performs nearest-neighbour search over the plain partition
	// and returns up to opts.Limit memories, most similar first. Equal
	// similarity ties break toward the most recent timestamp. An empty
	// store yields an empty slice, never an error.
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]ScoredMemory, error)

	// ListTimeline scans the plain partition and returns memories within
	// the range ordered by ascending timestamp. Records that fail to decode
	// are skipped and counted, never fatal to the scan.
	ListTimeline(ctx context.Context, r TimelineRange) ([]types.Memory, error)

	// ListRecent returns up to n plain memories of the given kind, newest
	// first. Used by the trait-update heuristics.
	ListRecent(ctx context.Context, kind types.MemoryKind, n int) ([]types.Memory, error)

	// ListVault decrypts and returns every vault memory for the user.
	// Records that fail to decrypt are skipped, not fatal to the call.
	ListVault(ctx context.Context) ([]types.Memory, error)

	// Count returns the number of plain memories.
	Count(ctx context.Context) (int, error)

	// ReindexPending embeds and indexes plain records that have no index
	// entry (left behind by a crash between record write and index insert).
	// Returns the number of records re-indexed.
	ReindexPending(ctx context.Context) (int, error)

	// Close releases backend resources held by this handle.
	Close() error
}

// ProfileStore persists personality profiles, one per user.
type ProfileStore interface {
	// Load returns the user's profile, creating and persisting the default
	// one when absent.
	Load(ctx context.Context, userID string) (*types.Profile, error)

	// SetTrait overwrites one trait value (idempotent) and bumps the
	// profile's LastUpdated stamp.
	SetTrait(ctx context.Context, userID, name string, value types.TraitValue) error
}
