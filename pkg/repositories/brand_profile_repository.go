package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/database"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// BrandProfileRepository provides data access for tenant brand profiles.
type BrandProfileRepository interface {
	// Get returns apperrors.ErrNotFound when the tenant has no profile.
	Get(ctx context.Context, tenantID uuid.UUID) (*models.BrandProfile, error)
	// Upsert creates the tenant's profile or replaces the existing one.
	Upsert(ctx context.Context, profile *models.BrandProfile) error
}

type brandProfileRepository struct {
	db *database.DB
}

// NewBrandProfileRepository creates a new BrandProfileRepository.
func NewBrandProfileRepository(db *database.DB) BrandProfileRepository {
	return &brandProfileRepository{db: db}
}

var _ BrandProfileRepository = (*brandProfileRepository)(nil)

func (r *brandProfileRepository) Get(ctx context.Context, tenantID uuid.UUID) (*models.BrandProfile, error) {
	scope, err := r.db.WithTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	query := `
		SELECT id, tenant_id, name, voice, tone, messaging_pillars, content_pillars,
		       target_audience, guidelines, competitors, hashtags, created_at, updated_at
		FROM brand_profiles
		WHERE tenant_id = $1`

	var p models.BrandProfile
	err = scope.Conn.QueryRow(ctx, query, tenantID).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Voice, &p.Tone, &p.MessagingPillars, &p.ContentPillars,
		&p.TargetAudience, &p.Guidelines, &p.Competitors, &p.Hashtags, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get brand profile: %w", err)
	}

	return &p, nil
}

func (r *brandProfileRepository) Upsert(ctx context.Context, profile *models.BrandProfile) error {
	scope, err := r.db.WithTenant(ctx, profile.TenantID)
	if err != nil {
		return fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	now := time.Now().UTC()
	profile.UpdatedAt = now
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
		profile.CreatedAt = now
	}

	pillars := profile.ContentPillars
	if pillars == nil {
		pillars = []models.ContentPillar{}
	}

	query := `
		INSERT INTO brand_profiles (
			id, tenant_id, name, voice, tone, messaging_pillars, content_pillars,
			target_audience, guidelines, competitors, hashtags, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tenant_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			voice = EXCLUDED.voice,
			tone = EXCLUDED.tone,
			messaging_pillars = EXCLUDED.messaging_pillars,
			content_pillars = EXCLUDED.content_pillars,
			target_audience = EXCLUDED.target_audience,
			guidelines = EXCLUDED.guidelines,
			competitors = EXCLUDED.competitors,
			hashtags = EXCLUDED.hashtags,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err = scope.Conn.QueryRow(ctx, query,
		profile.ID, profile.TenantID, profile.Name, profile.Voice, profile.Tone,
		nonNilStrings(profile.MessagingPillars), pillars, profile.TargetAudience,
		profile.Guidelines, nonNilStrings(profile.Competitors), nonNilStrings(profile.Hashtags),
		profile.CreatedAt, profile.UpdatedAt,
	).Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert brand profile: %w", err)
	}

	return nil
}

// nonNilStrings keeps jsonb list columns as [] rather than null.
func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
