package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTopic  = "New Chat"
	topicMinChars = 30
	topicWords    = 4
)

// Session is one conversation with a generated topic line.
type Session struct {
	ID        string    `json:"session_id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// NewSession starts a session with first as its opening user message.
func NewSession(first string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Topic:     topicFor(first),
		CreatedAt: time.Now().UTC(),
	}
	if strings.TrimSpace(first) != "" {
		s.Append(RoleUser, first)
	}
	return s
}

// topicFor takes the first four words of the message, with "..." appended
// when the message is longer than 30 characters.
func topicFor(first string) string {
	words := strings.Fields(first)
	if len(words) == 0 {
		return defaultTopic
	}
	if len(words) > topicWords {
		words = words[:topicWords]
	}
	topic := strings.Join(words, " ")
	if len([]rune(first)) > topicMinChars {
		topic += "..."
	}
	return topic
}

// Append records a message and returns it.
func (s *Session) Append(role, msg string) Message {
	m := Message{Role: role, Message: msg, Timestamp: time.Now().UTC()}
	s.Messages = append(s.Messages, m)
	return m
}

// Recent returns up to the last n messages.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || n >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
