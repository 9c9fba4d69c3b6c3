package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConfidenceTier is the ordered confidence of a Learning.
type ConfidenceTier string

const (
	ConfidenceLow       ConfidenceTier = "low"
	ConfidenceMedium    ConfidenceTier = "medium"
	ConfidenceHigh      ConfidenceTier = "high"
	ConfidenceValidated ConfidenceTier = "validated"
)

// Weight returns the ranking bonus for the tier (low=1 … validated=4).
// Unknown tiers rank like low.
func (c ConfidenceTier) Weight() int {
	switch c {
	case ConfidenceValidated:
		return 4
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// ParseConfidence converts a stored or user-supplied value to a ConfidenceTier.
func ParseConfidence(s string) (ConfidenceTier, error) {
	switch c := ConfidenceTier(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceValidated:
		return c, nil
	default:
		return "", fmt.Errorf("unknown confidence tier %q", s)
	}
}

// Learning is a durable behavioral insight used to bias future generation.
// Learnings are never deleted by the core.
type Learning struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id" validate:"required"`
	Category   string         `json:"category" validate:"required"`
	Insight    string         `json:"insight" validate:"required"`
	Confidence ConfidenceTier `json:"confidence" validate:"required,oneof=low medium high validated"`
	Weight     float64        `json:"weight" validate:"gte=0"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Preference is a tenant-level generation preference, e.g. "emoji_usage" = "sparingly".
type Preference struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Key      string    `json:"key"`
	Value    string    `json:"value"`
}
