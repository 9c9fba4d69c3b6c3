package models

import (
	"time"

	"github.com/google/uuid"
)

// BrandProfile is a tenant's identity used to steer generation.
// A tenant has at most one profile; saving a second one replaces the first.
type BrandProfile struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenant_id" validate:"required"`
	Name             string          `json:"name" validate:"required"`
	Voice            string          `json:"voice"`
	Tone             string          `json:"tone"`
	MessagingPillars []string        `json:"messaging_pillars"` // Ordered
	ContentPillars   []ContentPillar `json:"content_pillars" validate:"dive"`
	TargetAudience   TargetAudience  `json:"target_audience"`
	Guidelines       string          `json:"guidelines"`
	Competitors      []string        `json:"competitors"`
	Hashtags         []string        `json:"hashtags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContentPillar is a named content category with a target share of output.
// Target percentages across pillars are not required to sum to 100.
type ContentPillar struct {
	Name             string  `json:"name" validate:"required"`
	TargetPercentage float64 `json:"target_percentage"`
	Description      string  `json:"description,omitempty"`
}

// TargetAudience describes who the brand is speaking to.
type TargetAudience struct {
	Demographics   string   `json:"demographics,omitempty"`
	Psychographics string   `json:"psychographics,omitempty"`
	PainPoints     []string `json:"pain_points,omitempty"`
	Goals          []string `json:"goals,omitempty"`
}

// PillarByName returns the content pillar with exactly the given name.
func (p *BrandProfile) PillarByName(name string) (ContentPillar, bool) {
	for _, pillar := range p.ContentPillars {
		if pillar.Name == name {
			return pillar, true
		}
	}
	return ContentPillar{}, false
}
