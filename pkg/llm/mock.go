package llm

import (
	"context"
)

// MockChatClient is a configurable mock for testing classifier functionality.
// Set the function fields to control behavior in tests.
type MockChatClient struct {
	// GenerateJSONFunc is called when GenerateJSON is invoked.
	// If nil, returns an empty result and nil error.
	GenerateJSONFunc func(ctx context.Context, prompt string, systemMessage string) (*GenerateResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// Call tracking for verification
	GenerateJSONCalls int
	LastPrompt        string
	LastSystemMessage string
}

// NewMockChatClient creates a new mock with sensible defaults.
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// GenerateJSON implements ChatClient.
func (m *MockChatClient) GenerateJSON(ctx context.Context, prompt string, systemMessage string) (*GenerateResult, error) {
	m.GenerateJSONCalls++
	m.LastPrompt = prompt
	m.LastSystemMessage = systemMessage
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, systemMessage)
	}
	return &GenerateResult{}, nil
}

// GetModel implements ChatClient.
func (m *MockChatClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements ChatClient.
func (m *MockChatClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Reset clears call tracking.
func (m *MockChatClient) Reset() {
	m.GenerateJSONCalls = 0
	m.LastPrompt = ""
	m.LastSystemMessage = ""
}

// Ensure MockChatClient implements ChatClient at compile time.
var _ ChatClient = (*MockChatClient)(nil)
