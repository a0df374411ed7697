package providers

import (
	"context"
	"encoding/json"
)

// ChatRequest is one chat-completion invocation.
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	JSONMode     bool
}

// ChatResult carries the raw model reply and the provider usage payload in
// whatever shape the backend returned it.
type ChatResult struct {
	Text     string
	RawUsage json.RawMessage
}

// ChatProvider issues one chat completion against a concrete backend model.
type ChatProvider interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResult, error)
}
