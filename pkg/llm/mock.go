package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a configurable mock for testing model invocation.
// Set the function fields to control behavior in tests. Safe for concurrent use.
type MockLLMClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns an empty result and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64, thinking bool) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	mu                    sync.Mutex
	generateResponseCalls int
	prompts               []string
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// NewScriptedLLMClient returns a mock that replies with responses in order,
// each reporting the given token usage. Calls past the script repeat the last reply.
func NewScriptedLLMClient(promptTokens, completionTokens int, responses ...string) *MockLLMClient {
	m := NewMockLLMClient()
	m.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, thinking bool) (*GenerateResponseResult, error) {
		idx := m.GenerateResponseCalls() - 1
		if idx >= len(responses) {
			idx = len(responses) - 1
		}
		content := ""
		if idx >= 0 {
			content = responses[idx]
		}
		return &GenerateResponseResult{
			Content:          content,
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		}, nil
	}
	return m
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64, thinking bool) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.generateResponseCalls++
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateResponseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, systemMessage, temperature, thinking)
	}
	return &GenerateResponseResult{}, nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements LLMClient.
func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// GenerateResponseCalls returns how many times GenerateResponse was called.
func (m *MockLLMClient) GenerateResponseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateResponseCalls
}

// Prompts returns the prompts received, in call order.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Reset clears call tracking.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateResponseCalls = 0
	m.prompts = nil
}

var _ LLMClient = (*MockLLMClient)(nil)

// MockClientFactory is a configurable mock for testing client creation.
type MockClientFactory struct {
	// CreateForHandleFunc is called when CreateForHandle is invoked.
	// If nil, returns MockClient.
	CreateForHandleFunc func(handle ModelHandle) (LLMClient, error)

	// MockClient is the default client returned if CreateForHandleFunc is not set.
	MockClient *MockLLMClient

	mu      sync.Mutex
	handles []ModelHandle
}

// NewMockClientFactory creates a new mock client factory.
func NewMockClientFactory() *MockClientFactory {
	return &MockClientFactory{
		MockClient: NewMockLLMClient(),
	}
}

// CreateForHandle implements LLMClientFactory.
func (f *MockClientFactory) CreateForHandle(handle ModelHandle) (LLMClient, error) {
	f.mu.Lock()
	f.handles = append(f.handles, handle)
	f.mu.Unlock()

	if f.CreateForHandleFunc != nil {
		return f.CreateForHandleFunc(handle)
	}
	return f.MockClient, nil
}

// Handles returns the handles requested, in call order.
func (f *MockClientFactory) Handles() []ModelHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ModelHandle(nil), f.handles...)
}

var _ LLMClientFactory = (*MockClientFactory)(nil)
