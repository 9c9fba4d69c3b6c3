package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the current state of a provider circuit.
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until the reset window has passed.
	CircuitOpen
	// CircuitHalfOpen has one probe call in flight.
	CircuitHalfOpen
)

// String returns the state name used in logs.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for a provider circuit.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive provider failures that trips the circuit.
	// Zero or less disables the breaker.
	Threshold int
	// ResetAfter is how long an open circuit waits before admitting a probe.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig trips after 5 failures and probes again after 30s.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker tracks consecutive failures for one provider.
type CircuitBreaker struct {
	mu               sync.Mutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	openedAt         time.Time
	state            CircuitState
	now              func() time.Time
}

// NewCircuitBreaker creates a closed breaker. It returns nil when the
// threshold disables breaking; a nil breaker allows every call.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold <= 0 {
		return nil
	}
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed. An open circuit whose reset window
// has passed admits exactly one probe and moves to half-open.
func (cb *CircuitBreaker) Allow() error {
	if cb == nil {
		return nil
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		since := cb.now().Sub(cb.openedAt)
		if since >= cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return fmt.Errorf("circuit open after %d consecutive failures, retry in %v",
			cb.consecutiveFails, (cb.resetAfter - since).Round(time.Second))
	default:
		return errors.New("circuit half-open, probe in flight")
	}
}

// Record updates the circuit with the outcome of an admitted call.
// Caller cancellation is not counted; a deadline, including the stage
// timeout, counts as a failure.
func (cb *CircuitBreaker) Record(err error) {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && errors.Is(err, context.Canceled) {
		// A cancelled probe releases the half-open slot without a verdict.
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitOpen
		}
		return
	}

	if err == nil {
		cb.consecutiveFails = 0
		cb.state = CircuitClosed
		return
	}

	cb.consecutiveFails++
	if cb.state == CircuitHalfOpen || cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
		cb.openedAt = cb.now()
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	if cb == nil {
		return CircuitClosed
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// ConsecutiveFailures returns the current count of consecutive failures.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	if cb == nil {
		return 0
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFails
}

// BreakerClient rejects calls while its provider's circuit is open.
type BreakerClient struct {
	inner   LLMClient
	breaker *CircuitBreaker
}

// NewBreakerClient wraps a client. A nil breaker returns the client unchanged.
func NewBreakerClient(inner LLMClient, breaker *CircuitBreaker) LLMClient {
	if breaker == nil {
		return inner
	}
	return &BreakerClient{inner: inner, breaker: breaker}
}

// GenerateResponse delegates when the circuit allows it. A rejected call is a
// non-retryable endpoint error and never reaches the provider.
func (c *BreakerClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
	thinking bool,
) (*GenerateResponseResult, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, NewErrorWithContext(ErrorTypeEndpoint, "provider unavailable", false, err,
			c.inner.GetModel(), c.inner.GetEndpoint(), 0)
	}
	result, err := c.inner.GenerateResponse(ctx, prompt, systemMessage, temperature, thinking)
	c.breaker.Record(err)
	return result, err
}

// GetModel returns the wrapped client's model.
func (c *BreakerClient) GetModel() string {
	return c.inner.GetModel()
}

// GetEndpoint returns the wrapped client's endpoint.
func (c *BreakerClient) GetEndpoint() string {
	return c.inner.GetEndpoint()
}

var _ LLMClient = (*BreakerClient)(nil)
