// Package vectorstore persists embedding vectors with metadata and answers
// similarity queries against them.
package vectorstore

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// MaxBatch is the largest number of vectors sent in one backend call.
const MaxBatch = 100

// DefaultTopK applies when a query does not set TopK.
const DefaultTopK = 5

// Vector is a stored embedding with its metadata.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// QueryRequest describes a similarity search. Filter entries must match
// metadata fields exactly.
type QueryRequest struct {
	Vector          []float32
	Filter          map[string]any
	TopK            int
	IncludeMetadata bool
}

// Match is a query hit. Score is cosine similarity.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Index is a vector database backend.
type Index interface {
	Upsert(ctx context.Context, vectors []Vector) error
	// Query returns matches ordered by descending score.
	Query(ctx context.Context, req QueryRequest) ([]Match, error)
}

// Gateway fronts an Index, splitting large upserts into batches.
type Gateway struct {
	index  Index
	logger zerolog.Logger
}

// NewGateway wraps index.
func NewGateway(index Index, logger zerolog.Logger) *Gateway {
	return &Gateway{
		index:  index,
		logger: logger.With().Str("component", "vectorstore").Logger(),
	}
}

// Upsert stores vectors in batches of at most MaxBatch. Vectors with an
// existing id replace the stored one.
func (g *Gateway) Upsert(ctx context.Context, vectors []Vector) error {
	for start := 0; start < len(vectors); start += MaxBatch {
		end := min(start+MaxBatch, len(vectors))
		if err := g.index.Upsert(ctx, vectors[start:end]); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
		g.logger.Debug().Int("count", end-start).Msg("upserted vectors")
	}
	return nil
}

// Query runs a similarity search.
func (g *Gateway) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	matches, err := g.index.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	return matches, nil
}

// Close releases the backend connection when it holds one.
func (g *Gateway) Close() error {
	if c, ok := g.index.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
