// Package history stores notes, quizzes, graded attempts and chat
// transcripts as vectors, and reads chat and progress back for a user.
package history

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/abhisek/studybuddy/internal/chat"
	"github.com/abhisek/studybuddy/internal/chunker"
	"github.com/abhisek/studybuddy/internal/embedding"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/vectorstore"
	"github.com/rs/zerolog"
)

// Record types stored in vector metadata.
const (
	TypeNotes    = "notes"
	TypeQuiz     = "quiz"
	TypeProgress = "progress"
	TypeChat     = "chat"
)

const (
	maxSavedChat   = 50
	maxFetchedChat = 100
	chatFetchTopK  = 10
	progressTopK   = 50
	maxTopics      = 10
	scanMagnitude  = 0.001
)

// Embedder produces vectors for stored text.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Vectors is the vector store used for persistence.
type Vectors interface {
	Upsert(ctx context.Context, vectors []vectorstore.Vector) error
	Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error)
}

// Store persists study records for users.
type Store struct {
	embedder Embedder
	vectors  Vectors
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a Store.
func New(embedder Embedder, vectors Vectors, logger zerolog.Logger) *Store {
	return &Store{
		embedder: embedder,
		vectors:  vectors,
		logger:   logger.With().Str("component", "history").Logger(),
		now:      time.Now,
	}
}

// SaveNotes chunks text and stores one vector per chunk. It returns the
// number of chunks stored.
func (s *Store) SaveNotes(ctx context.Context, userID, text string) (int, error) {
	chunks := chunker.Default(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	now := s.now()
	vectors := make([]vectorstore.Vector, 0, len(chunks))
	for i, chunk := range chunks {
		vectors = append(vectors, vectorstore.Vector{
			ID:     fmt.Sprintf("%s_notes_%d_%d", userID, now.Unix(), i),
			Values: s.embedder.Embed(ctx, chunk),
			Metadata: map[string]any{
				"type":        TypeNotes,
				"text":        chunk,
				"user_id":     userID,
				"chunk_index": i,
				"timestamp":   unixSeconds(now),
				"source":      "uploaded_notes",
			},
		})
	}

	if err := s.vectors.Upsert(ctx, vectors); err != nil {
		return 0, fmt.Errorf("save notes: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Int("chunks", len(vectors)).Msg("stored notes")
	return len(vectors), nil
}

// SaveQuiz stores a generated quiz.
func (s *Store) SaveQuiz(ctx context.Context, userID string, q *quiz.Quiz) error {
	return s.saveJSON(ctx, userID, TypeQuiz, "quiz_data", "generated_quiz", q)
}

// SaveResult stores a graded attempt as a progress record.
func (s *Store) SaveResult(ctx context.Context, userID string, r *quiz.Result) error {
	return s.saveJSON(ctx, userID, TypeProgress, "progress_data", "quiz_result", r)
}

// SaveChat stores the last 50 messages as one record. An empty transcript
// stores nothing.
func (s *Store) SaveChat(ctx context.Context, userID string, messages []chat.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if len(messages) > maxSavedChat {
		messages = messages[len(messages)-maxSavedChat:]
	}
	return s.saveJSON(ctx, userID, TypeChat, "chat_data", "chat_history", messages)
}

func (s *Store) saveJSON(ctx context.Context, userID, typ, field, source string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	now := s.now()
	v := vectorstore.Vector{
		ID:     fmt.Sprintf("%s_%s_%d", userID, typ, now.Unix()),
		Values: s.embedder.Embed(ctx, string(data)),
		Metadata: map[string]any{
			"type":      typ,
			field:       string(data),
			"user_id":   userID,
			"timestamp": unixSeconds(now),
			"source":    source,
		},
	}
	if err := s.vectors.Upsert(ctx, []vectorstore.Vector{v}); err != nil {
		return fmt.Errorf("save %s: %w", typ, err)
	}
	s.logger.Debug().Str("user_id", userID).Str("type", typ).Msg("stored record")
	return nil
}

// FetchChat merges the user's stored transcripts, drops repeated messages,
// and returns the latest 100 in chronological order. Failures yield an
// empty history.
func (s *Store) FetchChat(ctx context.Context, userID string) []chat.Message {
	matches, err := s.list(ctx, userID, TypeChat, chatFetchTopK)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("fetch chat history")
		return []chat.Message{}
	}

	seen := make(map[string]struct{})
	messages := []chat.Message{}
	for _, m := range matches {
		raw, _ := m.Metadata["chat_data"].(string)
		var batch []chat.Message
		if err := json.Unmarshal([]byte(raw), &batch); err != nil {
			s.logger.Warn().Err(err).Str("id", m.ID).Msg("skipping unreadable chat record")
			continue
		}
		for _, msg := range batch {
			key := fmt.Sprintf("%s_%s_%d", msg.Role, msg.Message, msg.Timestamp.UnixNano())
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			messages = append(messages, msg)
		}
	}

	slices.SortStableFunc(messages, func(a, b chat.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if len(messages) > maxFetchedChat {
		messages = messages[len(messages)-maxFetchedChat:]
	}
	return messages
}

// Summary aggregates a user's graded attempts.
type Summary struct {
	TotalAttempts   int      `json:"total_attempts"`
	AverageScore    float64  `json:"average_score"`
	AverageAccuracy float64  `json:"average_accuracy"`
	TopicsCovered   []string `json:"topics_covered"`
}

// Report is a user's progress, newest attempt first.
type Report struct {
	UserID   string        `json:"user_id"`
	Progress []quiz.Result `json:"progress"`
	Summary  Summary       `json:"summary"`
}

// FetchProgress loads up to 50 progress records and summarizes them.
// Failures yield an empty report.
func (s *Store) FetchProgress(ctx context.Context, userID string) *Report {
	report := &Report{
		UserID:   userID,
		Progress: []quiz.Result{},
		Summary:  Summary{TopicsCovered: []string{}},
	}

	matches, err := s.list(ctx, userID, TypeProgress, progressTopK)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("fetch progress")
		return report
	}

	for _, m := range matches {
		raw, _ := m.Metadata["progress_data"].(string)
		var r quiz.Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			s.logger.Warn().Err(err).Str("id", m.ID).Msg("skipping unreadable progress record")
			continue
		}
		report.Progress = append(report.Progress, r)
	}
	if len(report.Progress) == 0 {
		return report
	}

	slices.SortStableFunc(report.Progress, func(a, b quiz.Result) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})
	report.Summary = summarize(report.Progress)
	return report
}

func summarize(progress []quiz.Result) Summary {
	var score, accuracy float64
	topics := []string{}
	for _, p := range progress {
		score += float64(p.Score)
		accuracy += p.Accuracy
		if p.Topic != "" && !slices.Contains(topics, p.Topic) && len(topics) < maxTopics {
			topics = append(topics, p.Topic)
		}
	}
	n := float64(len(progress))
	return Summary{
		TotalAttempts:   len(progress),
		AverageScore:    round2(score / n),
		AverageAccuracy: round2(accuracy / n),
		TopicsCovered:   topics,
	}
}

// list returns the user's records of one type. Similarity is irrelevant
// here, so the query uses a constant scan vector.
func (s *Store) list(ctx context.Context, userID, typ string, topK int) ([]vectorstore.Match, error) {
	return s.vectors.Query(ctx, vectorstore.QueryRequest{
		Vector:          scanVector(),
		Filter:          map[string]any{"user_id": userID, "type": typ},
		TopK:            topK,
		IncludeMetadata: true,
	})
}

// scanVector is a constant low-magnitude vector. Some backends reject
// all-zero query vectors.
func scanVector() []float32 {
	v := make([]float32, embedding.Dimensions)
	for i := range v {
		v[i] = scanMagnitude
	}
	return v
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
