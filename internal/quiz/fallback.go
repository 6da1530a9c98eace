package quiz

import (
	"strings"

	"github.com/abhisek/studybuddy/internal/chunker"
)

const (
	fallbackTopic       = "Study Material"
	maxFallbackTopicLen = 50
)

// Fallback returns the one-question quiz used when generation fails. The
// difficult level gets a two-answer question, every other level a
// single-answer one.
func Fallback(text string, d Difficulty) *Quiz {
	topic := fallbackTopicFor(text)
	cfg := ConfigFor(d)

	var q Question
	if d == Difficult {
		q = Question{
			Question: "Which of the following statements about '" + topic + "...' are correct? (Select ALL that apply)",
			Options: map[string]string{
				"A": "The concept is widely accepted in scientific literature",
				"B": "It has multiple interpretations depending on context",
				"C": "It was first proposed in the 21st century",
				"D": "It applies only to specific cases",
			},
			Answer:     Answer{"A", "B"},
			AnswerType: Multiple,
		}
	} else {
		q = Question{
			Question: "What is the main topic of '" + topic + "...'?",
			Options: map[string]string{
				"A": "General knowledge",
				"B": "Science and technology",
				"C": "Arts and humanities",
				"D": "Social sciences",
			},
			Answer:     Answer{"A"},
			AnswerType: Single,
		}
	}

	return &Quiz{
		Questions:        []Question{q},
		Topic:            topic,
		Difficulty:       d,
		Source:           SourceFallback,
		DifficultyConfig: &cfg,
	}
}

// fallbackTopicFor takes the first sentence of text, cut to 50 characters.
func fallbackTopicFor(text string) string {
	sentences := chunker.Sentences(text)
	if len(sentences) == 0 {
		return fallbackTopic
	}
	topic := strings.TrimSpace(truncateRunes(sentences[0], maxFallbackTopicLen))
	if topic == "" {
		return fallbackTopic
	}
	return topic
}
