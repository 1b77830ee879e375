// Package llm provides the OpenAI-compatible classifier transport.
package llm

import (
	"context"
)

// ChatClient is the interface the interaction checker talks to. It is a dumb
// transport: it sends a system/user message pair, requests JSON-formatted
// output, and surfaces failures as errors. All response validation belongs to
// the caller. Use this interface for dependency injection to enable mocking
// in tests.
type ChatClient interface {
	// GenerateJSON sends the message pair and returns the raw completion with
	// token accounting. The response format is forced to a JSON object.
	GenerateJSON(ctx context.Context, prompt string, systemMessage string) (*GenerateResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// GenerateResult is one completion with usage stats.
type GenerateResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Ensure Client implements ChatClient at compile time.
var _ ChatClient = (*Client)(nil)
