package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestConfigurationError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("chunk: %w", NewConfigurationError("overlap", "must be smaller than size"))

	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "invalid overlap: must be smaller than size")

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "overlap", cfgErr.Field)
}

func TestBudgetExceededError_UnwrapsToSentinel(t *testing.T) {
	principal := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	err := &BudgetExceededError{PrincipalID: principal, LimitCents: 100, SpentCents: 100}

	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "spent 100.0000 of 100.0000 cents")
}
