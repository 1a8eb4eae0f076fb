package llm

import (
	"fmt"
	"time"
)

// ProviderConfig selects and configures the external providers. It is built
// by the config package so this package stays free of config parsing.
type ProviderConfig struct {
	// EmbeddingProvider is "ollama" or "openai".
	EmbeddingProvider string

	OllamaURL            string
	OllamaEmbeddingModel string

	OpenAIAPIKey         string
	OpenAIEmbeddingModel string

	ClassifierURL    string
	ClassifierAPIKey string
	ClassifierModel  string

	// RequestTimeout applies to every outbound call (default per client).
	RequestTimeout time.Duration

	// EmbeddingCacheSize bounds the query-embedding LRU (0 = default).
	EmbeddingCacheSize int
}

// NewEmbeddingGenerator builds the configured embedding client, wrapped in
// the query cache.
func NewEmbeddingGenerator(cfg ProviderConfig) (EmbeddingGenerator, error) {
	var inner EmbeddingGenerator

	switch cfg.EmbeddingProvider {
	case "", "ollama":
		inner = NewOllamaEmbedder(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaEmbeddingModel,
			Timeout: cfg.RequestTimeout,
		})
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		inner = NewOpenAIEmbedder(OpenAIEmbeddingConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIEmbeddingModel,
			Timeout: cfg.RequestTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	return NewCachingEmbedder(inner, cfg.EmbeddingCacheSize)
}

// NewTextClassifier builds the configured classification client.
func NewTextClassifier(cfg ProviderConfig) (TextClassifier, error) {
	if cfg.ClassifierURL == "" {
		return nil, fmt.Errorf("classifier URL is required")
	}

	return NewHTTPClassifier(HTTPClassifierConfig{
		BaseURL: cfg.ClassifierURL,
		APIKey:  cfg.ClassifierAPIKey,
		Model:   cfg.ClassifierModel,
		Timeout: cfg.RequestTimeout,
	}), nil
}
