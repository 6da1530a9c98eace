// Package app wires the study assistant's components into one service
// object that the CLI drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/abhisek/studybuddy/internal/chat"
	"github.com/abhisek/studybuddy/internal/config"
	"github.com/abhisek/studybuddy/internal/embedding"
	"github.com/abhisek/studybuddy/internal/extract"
	"github.com/abhisek/studybuddy/internal/history"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/retrieval"
	"github.com/abhisek/studybuddy/internal/store"
	"github.com/abhisek/studybuddy/internal/vectorstore"
	"github.com/rs/zerolog"
)

// ErrNoText is returned when a document yields no extractable text.
var ErrNoText = errors.New("no text could be extracted")

// Options overrides components built from configuration. Zero values mean
// "build from config".
type Options struct {
	// Provider replaces the configured LLM provider.
	Provider llm.Provider
	// Embedder replaces the configured embedding backend.
	Embedder embedding.Embedder
}

// App holds the constructed components for one user.
type App struct {
	UserID string

	Store     *store.Store
	Provider  llm.Provider
	Embedder  *embedding.Client
	Vectors   *vectorstore.Gateway
	Retriever *retrieval.Ranker
	Generator *quiz.Generator
	Evaluator *quiz.Evaluator
	Chat      *chat.Responder
	History   *history.Store

	logger  zerolog.Logger
	closers []func() error
}

// New opens the database at cfg.DBPath and builds every component.
// Close must be called to release connections.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		UserID:  cfg.UserID,
		Store:   st,
		logger:  logger.With().Str("component", "app").Logger(),
		closers: []func() error{st.Close},
	}

	if err := a.build(ctx, cfg, logger, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) error {
	a.Provider = opts.Provider
	if a.Provider == nil {
		p, err := llm.NewProvider(ctx, cfg.LLM, a.Store.EventRepo(), logger)
		if err != nil {
			return fmt.Errorf("llm provider: %w", err)
		}
		a.Provider = p
	}

	if opts.Embedder != nil {
		a.Embedder = embedding.NewClient(opts.Embedder, logger)
	} else {
		client, closeCache, err := embedding.New(ctx, cfg.Embedding, logger)
		if err != nil {
			return fmt.Errorf("embedding client: %w", err)
		}
		a.Embedder = client
		a.closers = append(a.closers, closeCache)
	}

	vectors, err := vectorstore.New(ctx, cfg.VectorStore, a.Store.DB(), logger)
	if err != nil {
		return fmt.Errorf("vector store: %w", err)
	}
	a.Vectors = vectors
	a.closers = append(a.closers, vectors.Close)

	a.History = history.New(a.Embedder, a.Vectors, logger)
	a.Retriever = retrieval.NewRanker(a.Embedder, a.Vectors, logger)
	a.Generator = quiz.NewGenerator(a.Provider, a.History, logger)
	a.Evaluator = quiz.NewEvaluator(a.History, logger)
	a.Chat = chat.NewResponder(a.Provider, a.Retriever, logger)

	a.logger.Debug().
		Str("llm", a.Provider.ModelID()).
		Str("embedding", a.Embedder.Name()).
		Str("vectors", cfg.VectorStore.Backend).
		Msg("app ready")
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// AddNotes extracts the document at path and stores it as notes. It
// returns the extracted text and the number of stored chunks.
func (a *App) AddNotes(ctx context.Context, path string) (string, int, error) {
	text, err := extract.File(path)
	if err != nil {
		return "", 0, err
	}
	if text == "" {
		return "", 0, fmt.Errorf("%s: %w", path, ErrNoText)
	}

	n, err := a.History.SaveNotes(ctx, a.UserID, text)
	if err != nil {
		return text, 0, err
	}
	return text, n, nil
}

// Material resolves quiz input: an existing file is extracted and saved as
// notes, anything else is used verbatim as a topic.
func (a *App) Material(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("notes file or topic is required")
	}

	info, err := os.Stat(input)
	if err != nil || info.IsDir() {
		return input, nil
	}

	text, _, err := a.AddNotes(ctx, input)
	if text == "" {
		return "", err
	}
	if err != nil {
		a.logger.Warn().Err(err).Str("path", input).Msg("could not save notes")
	}
	return text, nil
}

// GenerateQuiz builds a quiz from a notes file or topic.
func (a *App) GenerateQuiz(ctx context.Context, input string, n int, d quiz.Difficulty) (*quiz.Quiz, error) {
	text, err := a.Material(ctx, input)
	if err != nil {
		return nil, err
	}
	return a.Generator.Generate(ctx, quiz.GenerateRequest{
		Text:         text,
		NumQuestions: n,
		Difficulty:   d,
		UserID:       a.UserID,
	}), nil
}

// Grade scores answers against q and stores the result.
func (a *App) Grade(ctx context.Context, q *quiz.Quiz, answers quiz.Answers) *quiz.Result {
	return a.Evaluator.Evaluate(ctx, q, answers, a.UserID)
}

// Ask streams the reply to the session's latest message, which the caller
// has already appended as a user message. The full reply is appended and
// the transcript saved once the stream ends.
func (a *App) Ask(ctx context.Context, session *chat.Session) iter.Seq[chat.Fragment] {
	return func(yield func(chat.Fragment) bool) {
		if len(session.Messages) == 0 {
			return
		}
		recent := session.Recent(chat.HistoryWindow + 1)
		message := recent[len(recent)-1].Message
		prior := recent[:len(recent)-1]

		var reply strings.Builder
		for f := range a.Chat.Respond(ctx, message, prior, a.UserID) {
			reply.WriteString(f.Text)
			if !yield(f) {
				break
			}
		}

		session.Append(chat.RoleBot, reply.String())
		if err := a.History.SaveChat(context.WithoutCancel(ctx), a.UserID, session.Messages); err != nil {
			a.logger.Warn().Err(err).Msg("could not save chat history")
		}
	}
}

// ChatHistory returns the user's stored chat messages, oldest first.
func (a *App) ChatHistory(ctx context.Context) []chat.Message {
	return a.History.FetchChat(ctx, a.UserID)
}

// Progress summarizes the user's graded attempts.
func (a *App) Progress(ctx context.Context) *history.Report {
	return a.History.FetchProgress(ctx, a.UserID)
}
