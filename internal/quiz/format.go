package quiz

import (
	"fmt"
	"strings"
)

// Format renders q as plain text for display, without answers.
func Format(q *Quiz) string {
	var b strings.Builder

	topic := q.Topic
	if topic == "" {
		topic = "Unknown"
	}
	difficulty := q.Difficulty
	if difficulty == "" {
		difficulty = Medium
	}
	fmt.Fprintf(&b, "📝 Quiz Topic: %s\n", topic)
	fmt.Fprintf(&b, "📊 Difficulty: %s\n", strings.ToUpper(string(difficulty)))
	if cfg := q.DifficultyConfig; cfg != nil {
		fmt.Fprintf(&b, "⚙️  Config: %s correct options, %s tricky level\n", cfg.CorrectOptions, cfg.TrickyLevel)
	}
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")

	for i, question := range q.Questions {
		fmt.Fprintf(&b, "\nQ%d. %s\n", i+1, question.Question)
		for _, letter := range OptionLetters {
			if text, ok := question.Options[letter]; ok {
				fmt.Fprintf(&b, "   %s) %s\n", letter, text)
			}
		}
		if question.AnswerType == Multiple {
			b.WriteString("   💡 This question has MULTIPLE correct answers (select ALL that apply)\n")
		} else {
			b.WriteString("   💡 This question has a SINGLE correct answer\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
