package driver

import "context"

// Driver defines the interface for AI completion providers.
type Driver interface {
	// Complete sends a single-turn prompt and returns the generated text.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "gemini").
	Name() string
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model  string
	Prompt string
}

// Response is a provider-agnostic completion response.
type Response struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
