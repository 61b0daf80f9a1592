package llm

import (
	"context"
)

// Provider generates chat completions
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Factory builds a Provider bound to an API key. Keys are supplied per request
// so that each user can bring their own credential.
type Factory func(apiKey string) (Provider, error)

// Request describes what to send to the model
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Message is a single conversation message
type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the model output
type Response struct {
	Content    string
	Usage      Usage
	Model      string
	StopReason string
}

// Usage tracks token consumption for a single request
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
