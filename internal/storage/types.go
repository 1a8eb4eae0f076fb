// Package storage defines the storage contract for the EchoSoul memory core.
//
// A MemoryStore owns one user's durable records: the plain searchable
// partition, the encrypted vault partition, and the derived similarity
// index. Backends implement the interface independently; callers depend on
// it only.
package storage

import (
	"errors"
	"time"

	"github.com/echosoul/echosoul/pkg/types"
)

var (
	// ErrNotFound indicates that no record exists for the requested ID.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates that the embedding provider could
	// not produce a vector. Fatal to Store for non-vault memories: a plain
	// memory that cannot be indexed is not stored at all.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrStorageIO indicates a durable-write failure.
	ErrStorageIO = errors.New("storage I/O failure")

	// ErrMalformedRecord marks a stored record that could not be decoded.
	// Bulk scans skip such records; the error surfaces only from
	// single-record operations.
	ErrMalformedRecord = errors.New("malformed record")
)

// ScoredMemory annotates a retrieved memory with its similarity to the query.
type ScoredMemory struct {
	types.Memory
	Score float64 `json:"score"`
}

// RetrieveOptions narrows a similarity search.
type RetrieveOptions struct {
	// Limit is the maximum number of results (default 5).
	Limit int

	// Kind restricts results to one memory kind. Empty means no filter.
	Kind types.MemoryKind
}

// Normalize applies defaults and bounds.
func (o *RetrieveOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = 5
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
}

// TimelineRange bounds a timeline listing. Nil bounds are open; both bounds
// are inclusive.
type TimelineRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls within the range.
func (r TimelineRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}
