// Package embedding produces fixed-length vectors for text. The Client
// never fails: backend errors and degenerate vectors are replaced with
// low-magnitude noise so downstream storage always receives a usable vector.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Dimensions is the length of every vector handed to the vector store.
const Dimensions = 768

// Embedder converts free text into a numeric vector.
type Embedder interface {
	// Name identifies the backend and model, e.g. "gemini/text-embedding-004".
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config selects and configures the embedding backend.
type Config struct {
	// Provider is one of "gemini", "openai" or "mock".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	GeminiAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
	OpenAIBase   string `yaml:"openai_base_url"`

	// RedisURL enables the embedding cache when set.
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns the Gemini configuration.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Model:    DefaultGeminiModel,
		CacheTTL: DefaultCacheTTL,
	}
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for gemini embeddings")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.Provider)
	}
	return nil
}

// New builds the configured backend, wraps it with the Redis cache when a
// URL is configured, and returns a Client around it. The returned close
// function releases the cache connection.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		backend Embedder
		err     error
	)
	switch cfg.Provider {
	case "gemini":
		backend, err = NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.Model)
	case "openai":
		backend, err = NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBase, cfg.Model)
	case "mock":
		backend = NewHashEmbedder(Dimensions)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("initializing %s embedder: %w", cfg.Provider, err)
	}

	closeFn := func() error { return nil }
	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("embedding cache disabled")
		} else {
			backend = NewCachedEmbedder(backend, cache, logger)
			closeFn = cache.Close
		}
	}

	return NewClient(backend, logger), closeFn, nil
}
