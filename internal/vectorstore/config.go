package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	DefaultIndexName = "studybuddy"
	DefaultRegion    = "us-east1-gcp"
)

// Config selects the vector backend.
type Config struct {
	// Backend is "sqlite" or "pinecone".
	Backend string `yaml:"backend"`

	PineconeAPIKey string `yaml:"-"`
	IndexName      string `yaml:"index_name"`
	// Environment is the serverless region used when the index is created.
	Environment string `yaml:"environment"`
}

// DefaultConfig returns a local SQLite-backed configuration.
func DefaultConfig() Config {
	return Config{
		Backend:     "sqlite",
		IndexName:   DefaultIndexName,
		Environment: DefaultRegion,
	}
}

// Validate checks backend selection and credentials.
func (c Config) Validate() error {
	switch c.Backend {
	case "sqlite":
	case "pinecone":
		if c.PineconeAPIKey == "" {
			return fmt.Errorf("PINECONE_API_KEY is required for the pinecone vector backend")
		}
		if c.IndexName == "" {
			return fmt.Errorf("INDEX_NAME is required for the pinecone vector backend")
		}
	default:
		return fmt.Errorf("unknown vector backend: %q", c.Backend)
	}
	return nil
}

// New opens the configured backend and returns a Gateway over it. db is the
// application database used by the sqlite backend.
func New(ctx context.Context, cfg Config, db *sql.DB, logger zerolog.Logger) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		index Index
		err   error
	)
	switch cfg.Backend {
	case "sqlite":
		index, err = NewSQLiteIndex(ctx, db)
	case "pinecone":
		index, err = NewPineconeIndex(ctx, PineconeConfig{
			APIKey:    cfg.PineconeAPIKey,
			IndexName: cfg.IndexName,
			Region:    cfg.Environment,
		}, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s vector index: %w", cfg.Backend, err)
	}
	return NewGateway(index, logger), nil
}
