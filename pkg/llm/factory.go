package llm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
)

// LLMClientFactory is the interface for creating model clients.
// Use this interface for dependency injection and testing.
type LLMClientFactory interface {
	CreateForHandle(handle ModelHandle) (LLMClient, error)
}

// ProviderSettings holds the connection settings for each provider family.
type ProviderSettings struct {
	OpenAIBaseURL    string
	OpenAIAPIKey     string
	AnthropicBaseURL string
	AnthropicAPIKey  string
}

// ClientFactory creates provider clients for routed handles. Clients are
// built once per provider and model and share one rate limiter. Clients of
// the same provider share one circuit breaker.
type ClientFactory struct {
	settings ProviderSettings
	limiter  *rate.Limiter
	breakers CircuitBreakerConfig
	logger   *zap.Logger

	mu       sync.Mutex
	clients  map[string]LLMClient
	circuits map[Provider]*CircuitBreaker
}

// NewClientFactory creates a new factory. A nil limiter disables rate limiting
// and a non-positive breaker threshold disables circuit breaking.
func NewClientFactory(settings ProviderSettings, limiter *rate.Limiter, breakers CircuitBreakerConfig, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{
		settings: settings,
		limiter:  limiter,
		breakers: breakers,
		logger:   logger,
		clients:  make(map[string]LLMClient),
		circuits: make(map[Provider]*CircuitBreaker),
	}
}

// Circuit returns the breaker guarding a provider, or nil if none was built.
func (f *ClientFactory) Circuit(provider Provider) *CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.circuits[provider]
}

// CreateForHandle returns a client for the handle's provider and model.
func (f *ClientFactory) CreateForHandle(handle ModelHandle) (LLMClient, error) {
	key := string(handle.Provider) + "/" + handle.Model

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[key]; ok {
		return client, nil
	}

	var (
		client LLMClient
		err    error
	)
	switch handle.Provider {
	case ProviderOpenAI:
		client, err = NewClient(&Config{
			Endpoint: f.settings.OpenAIBaseURL,
			Model:    handle.Model,
			APIKey:   f.settings.OpenAIAPIKey,
		}, f.logger)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(&Config{
			Endpoint: f.settings.AnthropicBaseURL,
			Model:    handle.Model,
			APIKey:   f.settings.AnthropicAPIKey,
		}, f.logger)
	default:
		return nil, apperrors.NewConfigurationError("provider", fmt.Sprintf("unknown provider %q", handle.Provider))
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", handle.Provider, err)
	}

	breaker, ok := f.circuits[handle.Provider]
	if !ok {
		breaker = NewCircuitBreaker(f.breakers)
		f.circuits[handle.Provider] = breaker
	}

	client = NewBreakerClient(NewRateLimitedClient(client, f.limiter), breaker)
	f.clients[key] = client
	return client, nil
}

var _ LLMClientFactory = (*ClientFactory)(nil)
