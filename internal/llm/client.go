// Package llm provides clients for the external language model service.
package llm

import "context"

// Chat roles accepted by the completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat completion message.
type Message struct {
	Role    string
	Content string
}

// Response carries the model output and usage accounting.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client generates a completion for an ordered message list. Implementations
// must be safe for concurrent use; callers bound every call with a context
// deadline.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
