package apperrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrConfiguration  = errors.New("configuration error")
	ErrBudgetExceeded = errors.New("budget exceeded")
	ErrProvider       = errors.New("generation failed")
	ErrContractParse  = errors.New("contract parse failure")
	ErrInvalidRequest = errors.New("invalid request")
)

// ConfigurationError reports an invalid parameter or missing setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError for the given field.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// BudgetExceededError is returned by the admission gate when a principal's
// recorded spend has reached its limit.
type BudgetExceededError struct {
	PrincipalID uuid.UUID
	LimitCents  float64
	SpentCents  float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded for principal %s: spent %.4f of %.4f cents",
		e.PrincipalID, e.SpentCents, e.LimitCents)
}

func (e *BudgetExceededError) Unwrap() error {
	return ErrBudgetExceeded
}
