// Package quiz generates multiple-choice quizzes with an LLM and grades
// learner submissions against them.
package quiz

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Difficulty selects the prompt configuration.
type Difficulty string

const (
	Easy      Difficulty = "easy"
	Medium    Difficulty = "medium"
	Hard      Difficulty = "hard"
	Difficult Difficulty = "difficult"
)

// AnswerType tells whether a question has one or several correct options.
type AnswerType string

const (
	Single   AnswerType = "single"
	Multiple AnswerType = "multiple"
)

// Source records how a quiz was produced.
type Source string

const (
	SourceNotes    Source = "notes"
	SourceTopic    Source = "topic"
	SourceFallback Source = "fallback"
)

// OptionLetters are the option keys every question carries.
var OptionLetters = []string{"A", "B", "C", "D"}

// Answer is a sorted, de-duplicated set of option letters. It encodes to
// JSON as a comma-joined string ("A,C") and decodes from either a string
// or an array of strings.
type Answer []string

// ParseAnswer splits s on commas, trims and upper-cases each letter and
// returns the sorted set. Empty parts are dropped.
func ParseAnswer(s string) Answer {
	var out Answer
	for part := range strings.SplitSeq(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	slices.Sort(out)
	return out
}

func (a Answer) String() string { return strings.Join(a, ",") }

// Type reports Multiple for more than one letter, Single otherwise.
func (a Answer) Type() AnswerType {
	if len(a) > 1 {
		return Multiple
	}
	return Single
}

// Equal reports set equality.
func (a Answer) Equal(b Answer) bool {
	return slices.Equal(ParseAnswer(a.String()), ParseAnswer(b.String()))
}

func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = ParseAnswer(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings: %w", err)
	}
	*a = ParseAnswer(strings.Join(list, ","))
	return nil
}

// Question is one multiple-choice item.
type Question struct {
	Question   string            `json:"question" validate:"required"`
	Options    map[string]string `json:"options" validate:"len=4,dive,keys,oneof=A B C D,endkeys,required"`
	Answer     Answer            `json:"answer" validate:"min=1,dive,oneof=A B C D"`
	AnswerType AnswerType        `json:"answer_type" validate:"oneof=single multiple"`
}

// DifficultyConfig is the prompt parameter bundle for a difficulty.
type DifficultyConfig struct {
	Description    string `json:"description,omitempty"`
	CorrectOptions string `json:"correct_options"`
	TrickyLevel    string `json:"tricky_level"`
	Distractors    string `json:"distractors"`
}

// Quiz is a generated set of questions. Its JSON form uses the "quiz" key
// for the question list.
type Quiz struct {
	Questions        []Question        `json:"quiz"`
	Topic            string            `json:"topic"`
	Difficulty       Difficulty        `json:"difficulty"`
	Source           Source            `json:"source"`
	DifficultyConfig *DifficultyConfig `json:"difficulty_config,omitempty"`
}

// Status classifies a graded question.
type Status string

const (
	StatusCorrect   Status = "correct"
	StatusPartial   Status = "partially_correct"
	StatusIncorrect Status = "incorrect"
)

// Feedback is the grading of one question.
type Feedback struct {
	Question       string     `json:"question"`
	Status         Status     `json:"status"`
	CorrectAnswers []string   `json:"correct_answers"`
	UserAnswers    []string   `json:"user_answers"`
	AnswerType     AnswerType `json:"answer_type"`
	Explanation    string     `json:"explanation"`
	IsCorrect      bool       `json:"is_correct"`
}

// Result is a graded attempt, also stored as a progress record.
type Result struct {
	Score            int               `json:"score"`
	AdjustedScore    float64           `json:"adjusted_score"`
	Total            int               `json:"total"`
	Accuracy         float64           `json:"accuracy"`
	AdjustedAccuracy float64           `json:"adjusted_accuracy"`
	Feedback         []Feedback        `json:"feedback"`
	Timestamp        time.Time         `json:"timestamp"`
	Difficulty       Difficulty        `json:"difficulty"`
	Topic            string            `json:"topic"`
	Source           Source            `json:"source"`
	DifficultyConfig *DifficultyConfig `json:"difficulty_config,omitempty"`
	PartialCredit    float64           `json:"partial_credit"`
}

// Answers maps a zero-based question index to the submitted letters,
// e.g. {0: "A", 1: "B,D"}.
type Answers map[int]string
