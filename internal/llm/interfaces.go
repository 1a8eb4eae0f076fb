// Package llm wraps the external model boundaries the memory core depends
// on: an embedding provider and a text-classification service. All clients
// guard their HTTP calls with a circuit breaker so a struggling backend
// degrades instead of cascading.
package llm

import "context"

// EmbeddingGenerator turns free text into a fixed-dimension vector.
// Vectors are only comparable when produced by the same provider and model;
// switching providers requires a full re-embed.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// LabelScore is one raw classifier output: a free-form label with its score.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TextClassifier maps UTF-8 text to a raw label→score list. Labels are the
// provider's own vocabulary; the emotion adapter maps them onto the fixed
// taxonomy.
type TextClassifier interface {
	Classify(ctx context.Context, text string) ([]LabelScore, error)
	GetModel() string
}
