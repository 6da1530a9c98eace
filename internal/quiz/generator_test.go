package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRecorder struct {
	quizzes []*Quiz
	results []*Result
	users   []string
	err     error
}

func (r *recordingRecorder) SaveQuiz(_ context.Context, userID string, q *Quiz) error {
	r.users = append(r.users, userID)
	r.quizzes = append(r.quizzes, q)
	return r.err
}

func (r *recordingRecorder) SaveResult(_ context.Context, userID string, res *Result) error {
	r.users = append(r.users, userID)
	r.results = append(r.results, res)
	return r.err
}

func longNotes() string {
	return strings.Repeat("Mitochondria are the site of cellular respiration in eukaryotic cells. ", 100)
}

func TestGenerate_TopicMode(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: validDoc})
	rec := &recordingRecorder{}
	g := NewGenerator(mock, rec, zerolog.Nop())

	q := g.Generate(context.Background(), GenerateRequest{Text: "Cell biology", NumQuestions: 2, Difficulty: Hard, UserID: "u1"})

	require.Len(t, q.Questions, 2)
	assert.Equal(t, "Cell biology", q.Topic)
	assert.Equal(t, Multiple, q.Questions[1].AnswerType)
	require.NotNil(t, q.DifficultyConfig)
	assert.Equal(t, "mixed", q.DifficultyConfig.CorrectOptions)

	require.Equal(t, 1, mock.CallCount())
	call := mock.Calls[0]
	assert.Equal(t, 2048, call.MaxTokens)
	assert.InDelta(t, 0.7, call.Temperature, 1e-9)
	assert.Same(t, ResponseSchema, call.Schema)
	prompt := call.Messages[0].Content
	assert.Contains(t, prompt, `Create 2 multiple-choice questions about: "Cell biology"`)
	assert.Contains(t, prompt, "DIFFICULTY LEVEL: HARD")
	assert.NotContains(t, prompt, "FOR DIFFICULT LEVEL QUESTIONS")

	require.Len(t, rec.quizzes, 1)
	assert.Equal(t, []string{"u1"}, rec.users)
}

func TestGenerate_NotesModePrompt(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: validDoc})
	g := NewGenerator(mock, nil, zerolog.Nop())

	notes := longNotes()
	g.Generate(context.Background(), GenerateRequest{Text: notes, Difficulty: Difficult})

	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "create 5 multiple-choice questions with difficult difficulty level")
	assert.Contains(t, prompt, "FOR DIFFICULT LEVEL QUESTIONS")
	assert.Contains(t, prompt, "Study Notes:\n")
	assert.Contains(t, prompt, `"topic": "Generated from notes"`)
	assert.Contains(t, prompt, `"source": "notes"`)
	// Only the first 4000 characters of the notes are sent.
	assert.Contains(t, prompt, notes[:4000])
	assert.NotContains(t, prompt, notes[:4001])
}

const strictDoc = `{
  "topic": "Plate tectonics",
  "difficulty": "easy",
  "quiz": [
    {
      "question": "What drives plate motion?",
      "options": {"A": "Mantle convection", "B": "Tides", "C": "Wind", "D": "Moonlight"},
      "answer": "A",
      "answer_type": "single"
    }
  ]
}`

func TestResponseSchema(t *testing.T) {
	require.NoError(t, llm.ValidateJSON(ResponseSchema, []byte(strictDoc)))
	require.NoError(t, llm.ValidateJSON(DocumentSchema, []byte(strictDoc)))

	var invalid *llm.ErrInvalidResponse
	err := llm.ValidateJSON(ResponseSchema, []byte(validDoc))
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, validDoc, invalid.Raw)
}

func TestGenerate_SchemaRecovery(t *testing.T) {
	tests := []struct {
		name      string
		resp      llm.MockResponse
		wantTopic string
		wantLen   int
		wantSrc   Source
	}{
		{"conforming", llm.MockResponse{Text: strictDoc}, "Plate tectonics", 1, SourceTopic},
		{"extra fields", llm.MockResponse{Text: validDoc}, "Cell biology", 2, SourceTopic},
		{"prose around", llm.MockResponse{Text: "Here you go:\n" + validDoc}, "Cell biology", 2, SourceTopic},
		{"rejected upstream", llm.MockResponse{Err: &llm.ErrInvalidResponse{Raw: strictDoc, Err: errors.New("schema")}}, "Plate tectonics", 1, SourceTopic},
		{"rejected without text", llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: errors.New("no choices")}}, "Geology", 1, SourceFallback},
		{"truncated", llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{Partial: `{"quiz": [`}}, "Geology", 1, SourceFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(llm.NewMockProvider(tt.resp), nil, zerolog.Nop())

			q := g.Generate(context.Background(), GenerateRequest{Text: "Geology", Difficulty: Easy})
			assert.Equal(t, tt.wantSrc, q.Source)
			assert.Equal(t, tt.wantTopic, q.Topic)
			assert.Len(t, q.Questions, tt.wantLen)
		})
	}
}

func TestGenerate_ClampsQuestionCount(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: validDoc})
	g := NewGenerator(mock, nil, zerolog.Nop())

	q := g.Generate(context.Background(), GenerateRequest{Text: "Cell biology", NumQuestions: 80})
	assert.NotEqual(t, SourceFallback, q.Source)
	require.Equal(t, 1, mock.CallCount())
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "Create 50 multiple-choice questions")
}

func TestIsTopic(t *testing.T) {
	assert.True(t, isTopic("Photosynthesis"))
	assert.True(t, isTopic("  The French Revolution  "))
	assert.True(t, isTopic(strings.Repeat("x", 500)))
	assert.False(t, isTopic(longNotes()))
}

func TestGenerate_FillsMissingFields(t *testing.T) {
	doc := `{"quiz": [{"question": "Q?", "options": {"A": "1", "B": "2", "C": "3", "D": "4"}, "answer": "A"}]}`

	g := NewGenerator(llm.NewMockProvider(llm.MockResponse{Text: doc}), nil, zerolog.Nop())
	q := g.Generate(context.Background(), GenerateRequest{Text: "Volcanoes", Difficulty: Easy})
	assert.Equal(t, "Volcanoes", q.Topic)
	assert.Equal(t, Easy, q.Difficulty)
	assert.Equal(t, SourceTopic, q.Source)
	assert.Equal(t, ConfigFor(Easy), *q.DifficultyConfig)

	g = NewGenerator(llm.NewMockProvider(llm.MockResponse{Text: doc}), nil, zerolog.Nop())
	q = g.Generate(context.Background(), GenerateRequest{Text: longNotes()})
	assert.Equal(t, "Generated from notes", q.Topic)
	assert.Equal(t, Medium, q.Difficulty)
	assert.Equal(t, SourceNotes, q.Source)
}

func TestGenerate_Fallback(t *testing.T) {
	allBad := `{"quiz": [{"question": "Q?", "options": {"A": "1"}, "answer": "A"}]}`

	tests := []struct {
		name       string
		resp       llm.MockResponse
		difficulty Difficulty
		wantType   AnswerType
		wantAnswer Answer
	}{
		{"provider error", llm.MockResponse{Err: errors.New("503")}, Medium, Single, Answer{"A"}},
		{"provider error difficult", llm.MockResponse{Err: errors.New("503")}, Difficult, Multiple, Answer{"A", "B"}},
		{"not json", llm.MockResponse{Text: "Sorry, I can't do that."}, Easy, Single, Answer{"A"}},
		{"no valid questions", llm.MockResponse{Text: allBad}, Difficult, Multiple, Answer{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingRecorder{}
			g := NewGenerator(llm.NewMockProvider(tt.resp), rec, zerolog.Nop())

			q := g.Generate(context.Background(), GenerateRequest{
				Text:       "Photosynthesis converts light energy. Plants do it.",
				Difficulty: tt.difficulty,
				UserID:     "u1",
			})
			require.Len(t, q.Questions, 1)
			assert.Equal(t, SourceFallback, q.Source)
			assert.Equal(t, tt.wantType, q.Questions[0].AnswerType)
			assert.Equal(t, tt.wantAnswer, q.Questions[0].Answer)
			assert.Equal(t, "Photosynthesis converts light energy.", q.Topic)
			assert.Empty(t, rec.quizzes)
		})
	}
}

func TestGenerate_EmptyTextFallsBack(t *testing.T) {
	mock := llm.NewMockProvider()
	g := NewGenerator(mock, nil, zerolog.Nop())

	q := g.Generate(context.Background(), GenerateRequest{Text: "   "})
	assert.Equal(t, SourceFallback, q.Source)
	assert.Equal(t, "Study Material", q.Topic)
	assert.Equal(t, 0, mock.CallCount())
}

func TestGenerate_RecorderErrorIgnored(t *testing.T) {
	rec := &recordingRecorder{err: errors.New("disk full")}
	g := NewGenerator(llm.NewMockProvider(llm.MockResponse{Text: validDoc}), rec, zerolog.Nop())

	q := g.Generate(context.Background(), GenerateRequest{Text: "Cells", UserID: "u1"})
	assert.Len(t, q.Questions, 2)
	assert.Len(t, rec.quizzes, 1)
}

func TestFallbackTopic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Study Material"},
		{"   ", "Study Material"},
		{"Gravity. It pulls.", "Gravity."},
		{strings.Repeat("abcde", 20), strings.Repeat("abcde", 10)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fallbackTopicFor(tt.in))
	}
}

func TestFallback_Valid(t *testing.T) {
	v := newValidator()
	for _, d := range Difficulties() {
		q := Fallback("Some notes.", d)
		require.Len(t, q.Questions, 1)
		assert.NoError(t, v.Struct(q.Questions[0]), d)
		assert.Equal(t, q.Questions[0].Answer.Type(), q.Questions[0].AnswerType)
		assert.Equal(t, d, q.Difficulty)
	}
	assert.Contains(t, Fallback("Some notes.", Difficult).Questions[0].Question, "Select ALL that apply")
}
