package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one priced model invocation. Records are append-only:
// budget checks sum them and never update them.
type UsageRecord struct {
	ID           uuid.UUID `json:"id"`
	PrincipalID  uuid.UUID `json:"principal_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Model        string    `json:"model"`
	Route        string    `json:"route"` // Logical operation, e.g. "pipeline.draft"
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostCents    float64   `json:"cost_cents"` // Fractional cents
	CreatedAt    time.Time `json:"created_at"`
}

// BudgetStatus is the result of an admission check.
type BudgetStatus struct {
	Allowed        bool    `json:"allowed"`
	Unlimited      bool    `json:"unlimited"`
	LimitCents     float64 `json:"limit_cents"`
	SpentCents     float64 `json:"spent_cents"`
	RemainingCents float64 `json:"remaining_cents"`
}
