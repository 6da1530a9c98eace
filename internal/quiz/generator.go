package quiz

import (
	"context"
	"errors"
	"strings"

	"github.com/abhisek/studybuddy/internal/llm"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	DefaultNumQuestions = 5
	MaxNumQuestions     = 50

	maxOutputTokens = 2048
	temperature     = 0.7
)

// Recorder persists generated quizzes and graded attempts.
type Recorder interface {
	SaveQuiz(ctx context.Context, userID string, q *Quiz) error
	SaveResult(ctx context.Context, userID string, r *Result) error
}

// GenerateRequest asks for a quiz over Text, which is either study notes
// or a short topic phrase.
type GenerateRequest struct {
	Text         string     `json:"text" validate:"required"`
	NumQuestions int        `json:"num_questions" validate:"min=1,max=50"`
	Difficulty   Difficulty `json:"difficulty"`
	UserID       string     `json:"user_id"`
}

// Generator produces quizzes with an LLM.
type Generator struct {
	provider llm.Provider
	recorder Recorder
	validate *govalidator.Validate
	logger   zerolog.Logger
}

// NewGenerator creates a Generator. recorder may be nil.
func NewGenerator(provider llm.Provider, recorder Recorder, logger zerolog.Logger) *Generator {
	return &Generator{
		provider: provider,
		recorder: recorder,
		validate: newValidator(),
		logger:   logger.With().Str("component", "quiz").Logger(),
	}
}

// Generate always returns a usable quiz. Any failure along the way
// produces the Fallback quiz.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) *Quiz {
	if req.NumQuestions <= 0 {
		req.NumQuestions = DefaultNumQuestions
	}
	req.NumQuestions = min(req.NumQuestions, MaxNumQuestions)
	if req.Difficulty == "" {
		req.Difficulty = Medium
	}
	req.Text = strings.TrimSpace(req.Text)

	log := g.logger.With().Str("difficulty", string(req.Difficulty)).Logger()

	if err := g.validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("invalid quiz request, using fallback")
		return Fallback(req.Text, req.Difficulty)
	}

	topic := isTopic(req.Text)
	prompt := buildPrompt(req.Text, req.NumQuestions, req.Difficulty, topic)

	llmReq := llm.UserPrompt(prompt, maxOutputTokens, temperature)
	llmReq.Schema = ResponseSchema

	raw, err := responseText(g.provider.Generate(llm.WithPurpose(ctx, llm.PurposeQuizGen), llmReq))
	if err != nil {
		log.Error().Err(err).Msg("quiz generation failed, using fallback")
		return Fallback(req.Text, req.Difficulty)
	}

	q, err := parseDocument(raw)
	if err != nil {
		log.Warn().Err(err).Msg("quiz JSON unusable, using fallback")
		return Fallback(req.Text, req.Difficulty)
	}

	if dropped := normalize(q, g.validate); dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("dropped malformed questions")
	}
	if len(q.Questions) == 0 {
		log.Warn().Msg("no valid questions, using fallback")
		return Fallback(req.Text, req.Difficulty)
	}
	fillDefaults(q, req, topic)

	log.Info().
		Int("questions", len(q.Questions)).
		Str("source", string(q.Source)).
		Msg("generated quiz")

	if req.UserID != "" && g.recorder != nil {
		if err := g.recorder.SaveQuiz(ctx, req.UserID, q); err != nil {
			log.Error().Err(err).Str("user_id", req.UserID).Msg("failed to save quiz")
		}
	}
	return q
}

// responseText returns the model output. Text rejected by the response
// schema is still returned so the lenient parser can recover from it.
func responseText(resp *llm.Response, err error) (string, error) {
	var invalid *llm.ErrInvalidResponse
	switch {
	case err == nil:
		return resp.Text, nil
	case errors.As(err, &invalid) && invalid.Raw != "":
		return invalid.Raw, nil
	}
	return "", err
}

func fillDefaults(q *Quiz, req GenerateRequest, topic bool) {
	if q.Topic == "" {
		if topic {
			q.Topic = req.Text
		} else {
			q.Topic = "Generated from notes"
		}
	}
	if q.Difficulty == "" {
		q.Difficulty = req.Difficulty
	}
	if q.Source == "" {
		if topic {
			q.Source = SourceTopic
		} else {
			q.Source = SourceNotes
		}
	}
	if q.DifficultyConfig == nil {
		cfg := ConfigFor(req.Difficulty)
		q.DifficultyConfig = &cfg
	}
}
