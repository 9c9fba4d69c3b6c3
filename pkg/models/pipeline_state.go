package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem is a piece of content already in a tenant's pipeline.
// Read-only from the core's perspective.
type ContentItem struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Platform    string     `json:"platform"`
	Status      string     `json:"status"`
	Pillar      string     `json:"pillar,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Campaign is a tenant's marketing campaign.
type Campaign struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Objective string    `json:"objective"`
	Platforms []string  `json:"platforms"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}
