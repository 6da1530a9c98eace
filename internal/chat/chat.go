// Package chat answers learner messages with streamed LLM output grounded
// in the learner's stored notes.
package chat

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/rs/zerolog"
)

// Apology replaces the reply when generation fails.
const Apology = "I encountered an error. Please try again or rephrase your question."

const (
	// HistoryWindow is how many recent messages go into the prompt.
	HistoryWindow = 10

	maxOutputTokens = 2048
	temperature     = 0.7
	retrievalTopK   = 5
)

// Roles used in chat history.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Fragment is one piece of a streamed reply. Err marks the apology
// fragment emitted after a failure; it is always the last fragment.
type Fragment struct {
	Text string
	Err  bool
}

// Retriever supplies note context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query, userID string, topK int) string
}

var casualPattern = regexp.MustCompile(`(?i)\b(hi|hello|hey|good morning|good evening|how are you)\b`)

// IsCasual reports whether msg is small talk that needs no retrieval.
func IsCasual(msg string) bool {
	return casualPattern.MatchString(msg)
}

// Responder produces streamed tutor replies.
type Responder struct {
	provider  llm.Provider
	retriever Retriever
	logger    zerolog.Logger
}

// NewResponder creates a Responder. retriever may be nil.
func NewResponder(provider llm.Provider, retriever Retriever, logger zerolog.Logger) *Responder {
	return &Responder{
		provider:  provider,
		retriever: retriever,
		logger:    logger.With().Str("component", "chat").Logger(),
	}
}

// Respond streams the reply to message. Retrieval runs only for a known
// user and a non-casual message. On any failure the sequence yields a
// single Apology fragment and ends.
func (r *Responder) Respond(ctx context.Context, message string, history []Message, userID string) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		var retrieved string
		if userID != "" && !IsCasual(message) && r.retriever != nil {
			retrieved = r.retriever.Retrieve(ctx, message, userID, retrievalTopK)
		}
		prompt := buildPrompt(message, formatHistory(history), retrieved)

		req := llm.UserPrompt(prompt, maxOutputTokens, temperature)
		for text, err := range r.provider.Stream(llm.WithPurpose(ctx, llm.PurposeChat), req) {
			if err != nil {
				r.logger.Error().Err(err).Str("user_id", userID).Msg("chat stream failed")
				yield(Fragment{Text: Apology, Err: true})
				return
			}
			if text == "" {
				continue
			}
			if !yield(Fragment{Text: text}) {
				return
			}
		}
	}
}

// formatHistory renders the last HistoryWindow messages as "Role: text"
// lines.
func formatHistory(history []Message) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == "" {
			role = RoleUser
		}
		lines = append(lines, capitalize(role)+": "+m.Message)
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func buildPrompt(message, history, retrieved string) string {
	if retrieved != "" {
		return fmt.Sprintf(`You are StudyBuddy 🤖, an AI tutor. Use the following context from the user's notes to provide accurate, helpful answers.

RELEVANT STUDY CONTEXT:
%s

CHAT HISTORY:
%s

USER QUERY: %s

Instructions:
1. If the context contains relevant information, use it to answer accurately
2. If the context doesn't help, use your general knowledge
3. Keep answers concise, educational, and encouraging
4. Ask follow-up questions to deepen understanding when appropriate

AI Tutor:`, retrieved, history, message)
	}
	return fmt.Sprintf(`You are StudyBuddy 🤖, a friendly AI tutor. 

CHAT HISTORY:
%s

USER QUERY: %s

Provide a helpful, engaging response. If asking about study topics, offer to help with notes or quizzes.

AI Tutor:`, history, message)
}
