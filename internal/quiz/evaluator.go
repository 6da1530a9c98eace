package quiz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Evaluate grades answers against q. Unanswered questions count as
// incorrect. A quiz without questions scores zero everywhere.
func Evaluate(q *Quiz, answers Answers) *Result {
	res := &Result{
		Total:            len(q.Questions),
		Feedback:         make([]Feedback, 0, len(q.Questions)),
		Timestamp:        time.Now().UTC(),
		Difficulty:       q.Difficulty,
		Topic:            q.Topic,
		Source:           q.Source,
		DifficultyConfig: q.DifficultyConfig,
	}
	if res.Difficulty == "" {
		res.Difficulty = Medium
	}
	if res.Topic == "" {
		res.Topic = "Unknown"
	}

	var partial float64
	for i, question := range q.Questions {
		fb, credit := grade(question, ParseAnswer(answers[i]))
		if fb.IsCorrect {
			res.Score++
		}
		partial += credit
		res.Feedback = append(res.Feedback, fb)
	}

	adjusted := float64(res.Score) + partial
	res.PartialCredit = round2(partial)
	res.AdjustedScore = round2(adjusted)
	if res.Total > 0 {
		res.Accuracy = round2(100 * float64(res.Score) / float64(res.Total))
		res.AdjustedAccuracy = round2(100 * adjusted / float64(res.Total))
	}
	return res
}

// grade scores one question and returns its partial credit, which is
// non-zero only for inexact answers to multiple-answer questions.
func grade(q Question, submitted Answer) (Feedback, float64) {
	correct := ParseAnswer(q.Answer.String())
	answerType := q.AnswerType
	if answerType == "" {
		answerType = correct.Type()
	}

	fb := Feedback{
		Question:       q.Question,
		CorrectAnswers: nonNil(correct),
		UserAnswers:    nonNil(submitted),
		AnswerType:     answerType,
	}

	if correct.Equal(submitted) {
		fb.IsCorrect = true
		fb.Status = StatusCorrect
		if answerType == Multiple {
			fb.Explanation = fmt.Sprintf("Excellent! You correctly identified all %d correct answers: %s",
				len(correct), joinLetters(correct))
		} else {
			fb.Explanation = "Well done! You answered correctly."
		}
		return fb, 0
	}

	if answerType != Multiple {
		fb.Status = StatusIncorrect
		fb.Explanation = "The correct answer is " + correct.String()
		return fb, 0
	}

	hit, missing, extra := compare(correct, submitted)
	if len(hit) > 0 {
		fb.Status = StatusPartial
	} else {
		fb.Status = StatusIncorrect
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Correct answers: %s.", joinLetters(correct))
	switch {
	case len(missing) > 0 && len(extra) > 0:
		fmt.Fprintf(&b, " You missed: %s and incorrectly added: %s", joinLetters(missing), joinLetters(extra))
	case len(missing) > 0:
		fmt.Fprintf(&b, " You missed: %s", joinLetters(missing))
	case len(extra) > 0:
		fmt.Fprintf(&b, " You incorrectly added: %s", joinLetters(extra))
	}
	fb.Explanation = b.String()

	return fb, partialCredit(len(hit), len(extra), len(correct))
}

// partialCredit is (hit - 0.5*extra)/total, bounded to [0, 1].
func partialCredit(hit, extra, total int) float64 {
	if total == 0 {
		return 0
	}
	credit := (float64(hit) - 0.5*float64(extra)) / float64(total)
	return math.Min(1, math.Max(0, credit))
}

func compare(correct, submitted Answer) (hit, missing, extra Answer) {
	in := make(map[string]bool, len(submitted))
	for _, s := range submitted {
		in[s] = true
	}
	for _, c := range correct {
		if in[c] {
			hit = append(hit, c)
			delete(in, c)
		} else {
			missing = append(missing, c)
		}
	}
	for _, s := range submitted {
		if in[s] {
			extra = append(extra, s)
		}
	}
	return hit, missing, extra
}

func joinLetters(a Answer) string { return strings.Join(a, ", ") }

func nonNil(a Answer) []string {
	if a == nil {
		return []string{}
	}
	return a
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Evaluator grades attempts and records them for a user.
type Evaluator struct {
	recorder Recorder
	logger   zerolog.Logger
}

// NewEvaluator creates an Evaluator. recorder may be nil.
func NewEvaluator(recorder Recorder, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		recorder: recorder,
		logger:   logger.With().Str("component", "quiz").Logger(),
	}
}

// Evaluate grades the attempt and, when userID is set, stores the result.
// Storage failures are logged.
func (e *Evaluator) Evaluate(ctx context.Context, q *Quiz, answers Answers, userID string) *Result {
	res := Evaluate(q, answers)

	e.logger.Info().
		Int("score", res.Score).
		Int("total", res.Total).
		Float64("adjusted_accuracy", res.AdjustedAccuracy).
		Msg("graded quiz")

	if userID != "" && e.recorder != nil {
		if err := e.recorder.SaveResult(ctx, userID, res); err != nil {
			e.logger.Error().Err(err).Str("user_id", userID).Msg("failed to save result")
		}
	}
	return res
}
