// Package retrieval turns a query into a short block of relevant stored
// text for prompt grounding.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/studybuddy/internal/vectorstore"
	"github.com/rs/zerolog"
)

const (
	DefaultTopK = 5

	// MinScore is the exclusive similarity floor for a usable match.
	MinScore = 0.3
	// MaxSegments caps the number of segments returned.
	MaxSegments = 3

	segmentSeparator = "\n\n---\n\n"
)

// Embedder produces query vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Searcher runs similarity queries.
type Searcher interface {
	Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error)
}

// Ranker retrieves and formats context for a query.
type Ranker struct {
	embedder Embedder
	searcher Searcher
	logger   zerolog.Logger
}

// NewRanker creates a Ranker.
func NewRanker(embedder Embedder, searcher Searcher, logger zerolog.Logger) *Ranker {
	return &Ranker{
		embedder: embedder,
		searcher: searcher,
		logger:   logger.With().Str("component", "retrieval").Logger(),
	}
}

// Retrieve returns up to MaxSegments "[From <type>]: <text>" segments
// joined by a separator, in store order. Matches scoring at or below
// MinScore, with empty text, or repeating an earlier text are skipped.
// Any failure yields "".
func (r *Ranker) Retrieve(ctx context.Context, query, userID string, topK int) string {
	if topK <= 0 {
		topK = DefaultTopK
	}

	req := vectorstore.QueryRequest{
		Vector:          r.embedder.Embed(ctx, query),
		TopK:            topK,
		IncludeMetadata: true,
	}
	if userID != "" {
		req.Filter = map[string]any{"user_id": userID}
	}

	matches, err := r.searcher.Query(ctx, req)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("retrieve context")
		return ""
	}

	seen := make(map[string]struct{})
	var segments []string
	for _, m := range matches {
		if len(segments) == MaxSegments {
			break
		}
		text, _ := m.Metadata["text"].(string)
		if text == "" || m.Score <= MinScore {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		source := "unknown"
		if t, ok := m.Metadata["type"]; ok && t != nil {
			source = fmt.Sprint(t)
		}
		segments = append(segments, fmt.Sprintf("[From %s]: %s", source, text))
	}

	r.logger.Debug().Int("matches", len(matches)).Int("segments", len(segments)).Msg("retrieved context")
	return strings.Join(segments, segmentSeparator)
}
