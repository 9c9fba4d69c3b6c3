package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-studio/pkg/database"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// PreferenceRepository provides data access for tenant content preferences.
type PreferenceRepository interface {
	// List returns all preferences ordered by key.
	List(ctx context.Context, tenantID uuid.UUID) ([]models.Preference, error)
	Set(ctx context.Context, pref models.Preference) error
}

type preferenceRepository struct {
	db *database.DB
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(db *database.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

var _ PreferenceRepository = (*preferenceRepository)(nil)

func (r *preferenceRepository) List(ctx context.Context, tenantID uuid.UUID) ([]models.Preference, error) {
	scope, err := r.db.WithTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	rows, err := scope.Conn.Query(ctx, `
		SELECT tenant_id, key, value
		FROM content_preferences
		WHERE tenant_id = $1
		ORDER BY key`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	prefs := make([]models.Preference, 0)
	for rows.Next() {
		var p models.Preference
		if err := rows.Scan(&p.TenantID, &p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}

	return prefs, nil
}

func (r *preferenceRepository) Set(ctx context.Context, pref models.Preference) error {
	scope, err := r.db.WithTenant(ctx, pref.TenantID)
	if err != nil {
		return fmt.Errorf("acquire tenant scope: %w", err)
	}
	defer scope.Close()

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO content_preferences (tenant_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		pref.TenantID, pref.Key, pref.Value)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}

	return nil
}
