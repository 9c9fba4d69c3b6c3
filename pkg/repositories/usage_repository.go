package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-studio/pkg/database"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// UsageRepository is the append-only usage ledger. There is no update or
// delete; budget checks sum what is inserted.
type UsageRepository interface {
	Insert(ctx context.Context, record *models.UsageRecord) error
	// SumCostByPrincipal returns the principal's total recorded spend in cents.
	SumCostByPrincipal(ctx context.Context, principalID uuid.UUID) (float64, error)
	// ListByPrincipal returns up to limit records, newest first.
	ListByPrincipal(ctx context.Context, principalID uuid.UUID, limit int) ([]models.UsageRecord, error)
}

type usageRepository struct {
	db *database.DB
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(db *database.DB) UsageRepository {
	return &usageRepository{db: db}
}

var _ UsageRepository = (*usageRepository)(nil)

func (r *usageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	scope, err := r.db.WithoutTenant(ctx)
	if err != nil {
		return fmt.Errorf("acquire scope: %w", err)
	}
	defer scope.Close()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO usage_records (
			id, principal_id, tenant_id, model, route, input_tokens, output_tokens, cost_cents, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.PrincipalID, record.TenantID, record.Model, record.Route,
		record.InputTokens, record.OutputTokens, record.CostCents, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	return nil
}

func (r *usageRepository) SumCostByPrincipal(ctx context.Context, principalID uuid.UUID) (float64, error) {
	scope, err := r.db.WithoutTenant(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire scope: %w", err)
	}
	defer scope.Close()

	var total float64
	err = scope.Conn.QueryRow(ctx, `
		SELECT COALESCE(SUM(cost_cents), 0)::double precision
		FROM usage_records
		WHERE principal_id = $1`, principalID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum usage: %w", err)
	}

	return total, nil
}

func (r *usageRepository) ListByPrincipal(ctx context.Context, principalID uuid.UUID, limit int) ([]models.UsageRecord, error) {
	scope, err := r.db.WithoutTenant(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire scope: %w", err)
	}
	defer scope.Close()

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, principal_id, tenant_id, model, route, input_tokens, output_tokens, cost_cents, created_at
		FROM usage_records
		WHERE principal_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`, principalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer rows.Close()

	records := make([]models.UsageRecord, 0)
	for rows.Next() {
		var u models.UsageRecord
		if err := rows.Scan(&u.ID, &u.PrincipalID, &u.TenantID, &u.Model, &u.Route,
			&u.InputTokens, &u.OutputTokens, &u.CostCents, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}

	return records, nil
}
