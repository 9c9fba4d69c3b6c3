package llm

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// NewLimiter builds the shared provider limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(math.Ceil(requestsPerSecond))
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// RateLimitedClient waits on a shared limiter before each model call.
type RateLimitedClient struct {
	inner   LLMClient
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps a client. A nil limiter returns the client unchanged.
func NewRateLimitedClient(inner LLMClient, limiter *rate.Limiter) LLMClient {
	if limiter == nil {
		return inner
	}
	return &RateLimitedClient{inner: inner, limiter: limiter}
}

// GenerateResponse waits for a token and delegates. A wait aborted by the
// context is reported as a retryable provider error.
func (c *RateLimitedClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
	thinking bool,
) (*GenerateResponseResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewErrorWithContext(ErrorTypeRateLimit, "rate limiter wait aborted", true, err,
			c.inner.GetModel(), c.inner.GetEndpoint(), 0)
	}
	return c.inner.GenerateResponse(ctx, prompt, systemMessage, temperature, thinking)
}

// GetModel returns the wrapped client's model.
func (c *RateLimitedClient) GetModel() string {
	return c.inner.GetModel()
}

// GetEndpoint returns the wrapped client's endpoint.
func (c *RateLimitedClient) GetEndpoint() string {
	return c.inner.GetEndpoint()
}

var _ LLMClient = (*RateLimitedClient)(nil)
