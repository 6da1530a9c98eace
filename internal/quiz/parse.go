package quiz

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/abhisek/studybuddy/internal/llm"
	govalidator "github.com/go-playground/validator/v10"
)

var (
	fencePattern = regexp.MustCompile("```(?:json|JSON)?")
	// objectPattern matches balanced {...} spans nested up to three levels,
	// enough for quiz -> question -> options.
	objectPattern = regexp.MustCompile(`\{(?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*\}`)
)

var errNoQuiz = errors.New("no quiz object found in response")

// newValidator returns a validator that reports fields by their JSON name.
func newValidator() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseDocument extracts a quiz from raw model output. It strips markdown
// fences and tries the span between the first '{' and the last '}'. When
// that fails it falls back to every balanced object in the text, largest
// first, taking the first that satisfies DocumentSchema.
func parseDocument(text string) (*Quiz, error) {
	text = strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))

	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errNoQuiz
	}

	q, firstErr := decodeDocument(text[start : end+1])
	if firstErr == nil {
		return q, nil
	}

	candidates := objectPattern.FindAllString(text, -1)
	slices.SortStableFunc(candidates, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	for _, c := range candidates {
		if q, err := decodeDocument(c); err == nil {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", errNoQuiz, firstErr)
}

func decodeDocument(raw string) (*Quiz, error) {
	if err := llm.ValidateJSON(DocumentSchema, []byte(raw)); err != nil {
		return nil, err
	}
	var q Quiz
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// normalize canonicalizes option keys and answers, derives answer types
// and drops questions that fail structural validation. It returns the
// number of dropped questions.
func normalize(q *Quiz, v *govalidator.Validate) (dropped int) {
	kept := q.Questions[:0]
	for _, question := range q.Questions {
		question.Question = strings.TrimSpace(question.Question)

		opts := make(map[string]string, len(question.Options))
		for k, text := range question.Options {
			opts[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(text)
		}
		question.Options = opts

		question.Answer = ParseAnswer(question.Answer.String())
		question.AnswerType = question.Answer.Type()

		if err := v.Struct(question); err != nil {
			dropped++
			continue
		}
		kept = append(kept, question)
	}
	q.Questions = kept
	return dropped
}
