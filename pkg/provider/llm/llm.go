// Package llm defines the Provider interface for text completion backends.
//
// A provider wraps a remote or local model API (OpenAI, Anthropic, a local
// Ollama instance) behind a uniform interface so the chat service can produce
// persona replies without coupling to any specific SDK.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation history.
type Message struct {
	// Role is one of RoleSystem, RoleUser, or RoleAssistant.
	Role string

	// Content is the text of the message.
	Content string

	// Name optionally identifies the speaker in multi-user channels.
	Name string
}

// Request carries everything the model needs to produce a reply.
// Messages must be non-empty.
type Request struct {
	// Messages is the ordered conversation history. The last message drives
	// the response.
	Messages []Message

	// SystemPrompt is the persona instruction injected before the history.
	SystemPrompt string

	// Temperature controls output randomness. Zero means the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means the provider default.
	MaxTokens int

	// ReasoningEffort asks reasoning-capable models to spend more or less
	// effort before answering ("minimal", "low", "medium", "high"). Empty or
	// "none" leaves the model default. Providers without reasoning support
	// ignore it.
	ReasoningEffort string
}

// Usage holds token accounting returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the model's full reply.
type Response struct {
	// Content is the text of the reply.
	Content string

	// Usage contains token accounting for this request, when the backend
	// reports it.
	Usage Usage
}

// Provider is the abstraction over any text completion backend.
// Complete blocks until the full response arrives or ctx is cancelled.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
