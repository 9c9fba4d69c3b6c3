package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-studio/pkg/database"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// LearningRepository provides data access for tenant learnings.
type LearningRepository interface {
	Create(ctx context.Context, learning *models.Learning) error
	// ListRecent returns up to limit learnings, most recently updated first.
	ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Learning, error)
}

type learningRepository struct {
	db *database.DB
}

// NewLearningRepository creates a new LearningRepository.
func NewLearningRepository(db *database.DB) LearningRepository {
	return &learningRepository{db: db}
}

var _ LearningRepository = (*learningRepository)(nil)

func (r *learningRepository) Create(ctx context.Context, learning *models.Learning) error {
	scope, err := r.db.WithTenant(ctx, learning.TenantID)
	if err != nil {
		return fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	now := time.Now().UTC()
	if learning.ID == uuid.Nil {
		learning.ID = uuid.New()
	}
	learning.CreatedAt = now
	learning.UpdatedAt = now

	query := `
		INSERT INTO learnings (id, tenant_id, category, insight, confidence, weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = scope.Conn.Exec(ctx, query,
		learning.ID, learning.TenantID, learning.Category, learning.Insight,
		string(learning.Confidence), learning.Weight, learning.CreatedAt, learning.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create learning: %w", err)
	}

	return nil
}

func (r *learningRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Learning, error) {
	scope, err := r.db.WithTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	query := `
		SELECT id, tenant_id, category, insight, confidence, weight, created_at, updated_at
		FROM learnings
		WHERE tenant_id = $1
		ORDER BY updated_at DESC, id
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list learnings: %w", err)
	}
	defer rows.Close()

	learnings := make([]models.Learning, 0)
	for rows.Next() {
		l, err := scanLearningRows(rows)
		if err != nil {
			return nil, err
		}
		learnings = append(learnings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learnings: %w", err)
	}

	return learnings, nil
}

func scanLearningRows(rows pgx.Rows) (models.Learning, error) {
	var l models.Learning
	var confidence string

	err := rows.Scan(&l.ID, &l.TenantID, &l.Category, &l.Insight, &confidence, &l.Weight, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return l, fmt.Errorf("failed to scan learning: %w", err)
	}

	// Unknown stored tiers rank like low.
	if tier, err := models.ParseConfidence(confidence); err == nil {
		l.Confidence = tier
	} else {
		l.Confidence = models.ConfidenceLow
	}

	return l, nil
}
