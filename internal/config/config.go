// Package config provides configuration management for EchoSoul.
// Settings load from environment variables with the ECHOSOUL_ prefix,
// optionally overridden by a YAML file, with sensible defaults throughout.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/echosoul/echosoul/internal/llm"
)

// Config holds all settings for the EchoSoul memory core.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StorageConfig selects and parameterises the storage backend.
type StorageConfig struct {
	// Engine is "sqlite" or "postgres" (default: sqlite).
	Engine string `yaml:"engine"`

	// DataPath is the directory holding the SQLite database and the
	// re-index marker files (default: ./data).
	DataPath string `yaml:"data_path"`

	// PostgresDSN is the connection string when Engine is "postgres".
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LLMConfig parameterises embedding and classification providers.
type LLMConfig struct {
	EmbeddingProvider  string        `yaml:"embedding_provider"` // ollama or openai
	OllamaURL          string        `yaml:"ollama_url"`
	OllamaModel        string        `yaml:"ollama_model"`
	OpenAIAPIKey       string        `yaml:"openai_api_key"`
	OpenAIModel        string        `yaml:"openai_model"`
	ClassifierURL      string        `yaml:"classifier_url"`
	ClassifierAPIKey   string        `yaml:"classifier_api_key"`
	ClassifierModel    string        `yaml:"classifier_model"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	EmbeddingCacheSize int           `yaml:"embedding_cache_size"`
}

// SecurityConfig holds the vault secret.
type SecurityConfig struct {
	// EncryptionSecret seeds the per-user vault keys. Required before any
	// vault operation; there is no default.
	EncryptionSecret string `yaml:"encryption_secret"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Pretty bool   `yaml:"pretty"` // human-readable console output
}

// LoadConfig reads configuration from environment variables with defaults.
func LoadConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Engine:      getEnv("ECHOSOUL_STORAGE_ENGINE", "sqlite"),
			DataPath:    getEnv("ECHOSOUL_DATA_PATH", "./data"),
			PostgresDSN: getEnv("ECHOSOUL_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			EmbeddingProvider:  getEnv("ECHOSOUL_EMBEDDING_PROVIDER", "ollama"),
			OllamaURL:          getEnv("ECHOSOUL_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("ECHOSOUL_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:       getEnv("ECHOSOUL_OPENAI_API_KEY", ""),
			OpenAIModel:        getEnv("ECHOSOUL_OPENAI_MODEL", "text-embedding-3-small"),
			ClassifierURL:      getEnv("ECHOSOUL_CLASSIFIER_URL", ""),
			ClassifierAPIKey:   getEnv("ECHOSOUL_CLASSIFIER_API_KEY", ""),
			ClassifierModel:    getEnv("ECHOSOUL_CLASSIFIER_MODEL", ""),
			RequestTimeout:     getEnvDuration("ECHOSOUL_LLM_TIMEOUT", 0),
			EmbeddingCacheSize: getEnvInt("ECHOSOUL_EMBEDDING_CACHE_SIZE", 512),
		},
		Security: SecurityConfig{
			EncryptionSecret: getEnv("ECHOSOUL_ENCRYPTION_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("ECHOSOUL_LOG_LEVEL", "info"),
			Pretty: getEnvBool("ECHOSOUL_LOG_PRETTY", false),
		},
	}
}

// LoadConfigFile loads environment configuration and overlays values from a
// YAML file. File values win over environment values; zero values in the file
// leave the environment value in place.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.merge(&overlay)
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	mergeString(&c.Storage.Engine, o.Storage.Engine)
	mergeString(&c.Storage.DataPath, o.Storage.DataPath)
	mergeString(&c.Storage.PostgresDSN, o.Storage.PostgresDSN)

	mergeString(&c.LLM.EmbeddingProvider, o.LLM.EmbeddingProvider)
	mergeString(&c.LLM.OllamaURL, o.LLM.OllamaURL)
	mergeString(&c.LLM.OllamaModel, o.LLM.OllamaModel)
	mergeString(&c.LLM.OpenAIAPIKey, o.LLM.OpenAIAPIKey)
	mergeString(&c.LLM.OpenAIModel, o.LLM.OpenAIModel)
	mergeString(&c.LLM.ClassifierURL, o.LLM.ClassifierURL)
	mergeString(&c.LLM.ClassifierAPIKey, o.LLM.ClassifierAPIKey)
	mergeString(&c.LLM.ClassifierModel, o.LLM.ClassifierModel)
	if o.LLM.RequestTimeout != 0 {
		c.LLM.RequestTimeout = o.LLM.RequestTimeout
	}
	if o.LLM.EmbeddingCacheSize != 0 {
		c.LLM.EmbeddingCacheSize = o.LLM.EmbeddingCacheSize
	}

	mergeString(&c.Security.EncryptionSecret, o.Security.EncryptionSecret)

	mergeString(&c.Logging.Level, o.Logging.Level)
	if o.Logging.Pretty {
		c.Logging.Pretty = true
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: ECHOSOUL_POSTGRES_DSN is required for the postgres engine")
	}
	if c.Security.EncryptionSecret == "" {
		return fmt.Errorf("config: ECHOSOUL_ENCRYPTION_SECRET is required")
	}
	switch c.LLM.EmbeddingProvider {
	case "ollama":
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("config: ECHOSOUL_OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.LLM.EmbeddingProvider)
	}
	return nil
}

// ProviderConfig converts the LLM section into the provider factory's input.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		EmbeddingProvider:    c.LLM.EmbeddingProvider,
		OllamaURL:            c.LLM.OllamaURL,
		OllamaEmbeddingModel: c.LLM.OllamaModel,
		OpenAIAPIKey:         c.LLM.OpenAIAPIKey,
		OpenAIEmbeddingModel: c.LLM.OpenAIModel,
		ClassifierURL:        c.LLM.ClassifierURL,
		ClassifierAPIKey:     c.LLM.ClassifierAPIKey,
		ClassifierModel:      c.LLM.ClassifierModel,
		RequestTimeout:       c.LLM.RequestTimeout,
		EmbeddingCacheSize:   c.LLM.EmbeddingCacheSize,
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value, including when the value cannot be parsed.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool recognises "true", "1", "yes" and their negations,
// case-insensitive; anything else yields the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable ("10s", "1m") or
// returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
