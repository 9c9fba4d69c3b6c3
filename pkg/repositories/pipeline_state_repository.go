package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-studio/pkg/database"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// PipelineStateRepository reads the tenant's scheduled content and campaigns.
// The core never writes these tables.
type PipelineStateRepository interface {
	// RecentContent returns up to limit content items, newest first.
	RecentContent(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.ContentItem, error)
	// ActiveCampaigns returns campaigns whose window contains at.
	ActiveCampaigns(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]models.Campaign, error)
	// PillarCounts counts content items created in [from, to) per pillar.
	// Items without a pillar are counted under "".
	PillarCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[string]int, error)
}

type pipelineStateRepository struct {
	db *database.DB
}

// NewPipelineStateRepository creates a new PipelineStateRepository.
func NewPipelineStateRepository(db *database.DB) PipelineStateRepository {
	return &pipelineStateRepository{db: db}
}

var _ PipelineStateRepository = (*pipelineStateRepository)(nil)

func (r *pipelineStateRepository) RecentContent(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.ContentItem, error) {
	scope, err := r.db.WithTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, tenant_id, platform, status, pillar, scheduled_at, created_at
		FROM content_items
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent content: %w", err)
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var it models.ContentItem
		if err := rows.Scan(&it.ID, &it.TenantID, &it.Platform, &it.Status, &it.Pillar, &it.ScheduledAt, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content items: %w", err)
	}

	return items, nil
}

func (r *pipelineStateRepository) ActiveCampaigns(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]models.Campaign, error) {
	scope, err := r.db.WithTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, tenant_id, name, objective, platforms, starts_at, ends_at
		FROM campaigns
		WHERE tenant_id = $1 AND starts_at <= $2 AND ends_at >= $2
		ORDER BY starts_at, name`, tenantID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]models.Campaign, 0)
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Objective, &c.Platforms, &c.StartsAt, &c.EndsAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

func (r *pipelineStateRepository) PillarCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[string]int, error) {
	scope, err := r.db.WithTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	rows, err := scope.Conn.Query(ctx, `
		SELECT pillar, count(*)
		FROM content_items
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY pillar`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count pillars: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var pillar string
		var n int64
		if err := rows.Scan(&pillar, &n); err != nil {
			return nil, fmt.Errorf("failed to scan pillar count: %w", err)
		}
		counts[pillar] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pillar counts: %w", err)
	}

	return counts, nil
}
