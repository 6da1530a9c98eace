package llm

import (
	"context"
	"iter"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate for a complete response or Stream for
// incremental text fragments.
type Provider interface {
	// Generate sends a prompt to the LLM and returns the full response.
	// When the request's Schema is set, the provider asks for JSON
	// conforming to that schema and validates the result.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Stream sends a prompt and yields text fragments in the order the
	// provider emits them. A non-nil error ends the sequence.
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. Quiz generation and chat both
	// send a single user message carrying the fully rendered prompt.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil, the response Text is returned unmodified.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as the schema name for OpenAI and
	// as the cache key for compiled validators). Kebab-case.
	Name string

	// Description is a human-readable description of what this schema
	// represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Text is the concatenation of every text part the provider returned.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request around prompt.
func UserPrompt(prompt string, maxTokens int, temperature float64) Request {
	return Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}
