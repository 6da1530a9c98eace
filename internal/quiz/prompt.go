package quiz

import (
	"fmt"
	"strings"
)

// maxNotesRunes bounds the notes embedded in a notes-mode prompt.
const maxNotesRunes = 4000

const formattingRules = `IMPORTANT FORMATTING RULES:
1. For questions with MULTIPLE correct answers, format the answer field as comma-separated letters (e.g., "A,B" or "B,D")
2. For questions with SINGLE correct answers, use a single letter (e.g., "A")
3. Always include exactly 4 options labeled A, B, C, D
4. When multiple answers are correct, phrase the question to indicate this (e.g., "Which of the following are true?", "Select ALL that apply")
`

// isTopic reports whether text is a short topic phrase rather than notes.
func isTopic(text string) bool {
	t := strings.TrimSpace(text)
	return len([]rune(t)) < 100 || !strings.Contains(t, " ")
}

func buildPrompt(text string, n int, d Difficulty, topic bool) string {
	cfg := ConfigFor(d)
	var b strings.Builder

	if topic {
		fmt.Fprintf(&b, "You are an expert quiz creator. Create %d multiple-choice questions about: %q\n\n", n, text)
		fmt.Fprintf(&b, "DIFFICULTY LEVEL: %s\n", strings.ToUpper(string(d)))
	} else {
		fmt.Fprintf(&b, "You are a helpful AI quiz generator. Read the study notes and create %d multiple-choice questions with %s difficulty level.\n\n", n, d)
	}
	writeConfig(&b, cfg)

	if d == Difficult {
		b.WriteString(difficultAddon)
	}
	b.WriteString("\n")

	if !topic {
		b.WriteString("Study Notes:\n")
		b.WriteString(truncateRunes(text, maxNotesRunes))
		b.WriteString("\n\n")
	}

	b.WriteString(formattingRules)
	b.WriteString("\nOutput valid JSON strictly in this format:\n")

	topicField, source := "Generated from notes", SourceNotes
	if topic {
		topicField, source = text, SourceTopic
	}
	writeTemplate(&b, topicField, d, source, cfg)
	return b.String()
}

func writeConfig(b *strings.Builder, cfg DifficultyConfig) {
	fmt.Fprintf(b, "%s\n", cfg.Description)
	fmt.Fprintf(b, "Correct Options Style: %s\n", cfg.CorrectOptions)
	fmt.Fprintf(b, "Tricky Level: %s\n", cfg.TrickyLevel)
	fmt.Fprintf(b, "Distractors: %s\n", cfg.Distractors)
}

func writeTemplate(b *strings.Builder, topic string, d Difficulty, source Source, cfg DifficultyConfig) {
	fmt.Fprintf(b, `{
  "quiz": [
    {
      "question": "Question text here?",
      "options": {
        "A": "Option A text",
        "B": "Option B text",
        "C": "Option C text",
        "D": "Option D text"
      },
      "answer": "A,B",
      "answer_type": "multiple"
    }
  ],
  "topic": %q,
  "difficulty": %q,
  "source": %q,
  "difficulty_config": {
    "correct_options": %q,
    "tricky_level": %q,
    "distractors": %q
  }
}
`, topic, d, source, cfg.CorrectOptions, cfg.TrickyLevel, cfg.Distractors)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
