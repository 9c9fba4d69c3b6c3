package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
)

func testProviderSettings() ProviderSettings {
	return ProviderSettings{
		OpenAIBaseURL:   "http://localhost:8000/v1",
		OpenAIAPIKey:    "openai-key",
		AnthropicAPIKey: "anthropic-key",
	}
}

func TestClientFactory_CreateForHandle(t *testing.T) {
	factory := NewClientFactory(testProviderSettings(), NewLimiter(5), CircuitBreakerConfig{}, zap.NewNop())

	openaiClient, err := factory.CreateForHandle(ModelHandle{Task: TaskDraft, Tier: TierCreative, Provider: ProviderOpenAI, Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", openaiClient.GetModel())
	assert.Equal(t, "http://localhost:8000/v1", openaiClient.GetEndpoint())
	assert.IsType(t, &RateLimitedClient{}, openaiClient)

	anthropicClient, err := factory.CreateForHandle(ModelHandle{Task: TaskStrategy, Tier: TierStrategic, Provider: ProviderAnthropic, Model: "claude-test"})
	require.NoError(t, err)
	assert.Equal(t, "claude-test", anthropicClient.GetModel())
	assert.Equal(t, anthropicDefaultEndpoint, anthropicClient.GetEndpoint())
}

func TestClientFactory_ReusesClients(t *testing.T) {
	factory := NewClientFactory(testProviderSettings(), nil, CircuitBreakerConfig{}, zap.NewNop())
	handle := ModelHandle{Provider: ProviderOpenAI, Model: "gpt-4o"}

	first, err := factory.CreateForHandle(handle)
	require.NoError(t, err)
	second, err := factory.CreateForHandle(handle)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.IsType(t, &Client{}, first)
}

func TestClientFactory_Errors(t *testing.T) {
	factory := NewClientFactory(ProviderSettings{}, nil, CircuitBreakerConfig{}, zap.NewNop())

	_, err := factory.CreateForHandle(ModelHandle{Provider: "gemini", Model: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))

	// Anthropic needs a key
	_, err = factory.CreateForHandle(ModelHandle{Provider: ProviderAnthropic, Model: "claude-test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create anthropic client")
}

func TestClientFactory_SharesCircuitPerProvider(t *testing.T) {
	factory := NewClientFactory(testProviderSettings(), nil, DefaultCircuitBreakerConfig(), zap.NewNop())

	gpt4o, err := factory.CreateForHandle(ModelHandle{Provider: ProviderOpenAI, Model: "gpt-4o"})
	require.NoError(t, err)
	_, err = factory.CreateForHandle(ModelHandle{Provider: ProviderOpenAI, Model: "gpt-4o-mini"})
	require.NoError(t, err)
	_, err = factory.CreateForHandle(ModelHandle{Provider: ProviderAnthropic, Model: "claude-test"})
	require.NoError(t, err)

	assert.IsType(t, &BreakerClient{}, gpt4o)
	require.NotNil(t, factory.Circuit(ProviderOpenAI))
	require.NotNil(t, factory.Circuit(ProviderAnthropic))
	assert.NotSame(t, factory.Circuit(ProviderOpenAI), factory.Circuit(ProviderAnthropic))
	assert.Same(t, factory.Circuit(ProviderOpenAI), gpt4o.(*BreakerClient).breaker)
}

func TestRateLimitedClient_WaitsAndDelegates(t *testing.T) {
	inner := NewScriptedLLMClient(10, 5, "ok")
	client := NewRateLimitedClient(inner, NewLimiter(1000))

	result, err := client.GenerateResponse(context.Background(), "p", "s", 0.5, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Content)
	assert.Equal(t, 1, inner.GenerateResponseCalls())
	assert.Equal(t, "mock-model", client.GetModel())
}

func TestRateLimitedClient_CancelledWait(t *testing.T) {
	inner := NewMockLLMClient()
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow())

	client := NewRateLimitedClient(inner, limiter)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GenerateResponse(ctx, "p", "s", 0.5, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrProvider))
	assert.Equal(t, ErrorTypeRateLimit, GetErrorType(err))
	assert.Equal(t, 0, inner.GenerateResponseCalls())
}

func TestNewRateLimitedClient_NilLimiter(t *testing.T) {
	inner := NewMockLLMClient()
	assert.Same(t, LLMClient(inner), NewRateLimitedClient(inner, nil))
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, NewLimiter(0).Limit())
	limiter := NewLimiter(2.5)
	assert.Equal(t, rate.Limit(2.5), limiter.Limit())
	assert.Equal(t, 3, limiter.Burst())
}

func TestScriptedLLMClient_RepeatsLastResponse(t *testing.T) {
	client := NewScriptedLLMClient(1, 1, "a", "b")
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		result, err := client.GenerateResponse(ctx, "p", "s", 0, false)
		require.NoError(t, err)
		got = append(got, result.Content)
	}
	assert.Equal(t, []string{"a", "b", "b"}, got)
	assert.Len(t, client.Prompts(), 3)
}
