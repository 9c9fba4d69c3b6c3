package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
	"github.com/ekaya-inc/ekaya-studio/pkg/repositories"
)

// BrandProfileService reads and saves tenant brand profiles.
type BrandProfileService interface {
	// Get returns apperrors.ErrNotFound when the tenant has no profile.
	Get(ctx context.Context, tenantID uuid.UUID) (*models.BrandProfile, error)
	// Save validates the profile and replaces any existing one for the tenant.
	Save(ctx context.Context, profile *models.BrandProfile) error
}

type brandProfileService struct {
	repo     repositories.BrandProfileRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBrandProfileService creates a BrandProfileService.
func NewBrandProfileService(repo repositories.BrandProfileRepository, logger *zap.Logger) BrandProfileService {
	return &brandProfileService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("brand-profile-service"),
	}
}

var _ BrandProfileService = (*brandProfileService)(nil)

func (s *brandProfileService) Get(ctx context.Context, tenantID uuid.UUID) (*models.BrandProfile, error) {
	return s.repo.Get(ctx, tenantID)
}

func (s *brandProfileService) Save(ctx context.Context, profile *models.BrandProfile) error {
	profile.Name = strings.TrimSpace(profile.Name)
	if err := s.validate.Struct(profile); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err)
	}

	seen := make(map[string]bool, len(profile.ContentPillars))
	for _, p := range profile.ContentPillars {
		if p.TargetPercentage < 0 || p.TargetPercentage > 100 {
			return fmt.Errorf("%w: pillar %q target must be between 0 and 100", apperrors.ErrInvalidRequest, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate pillar %q", apperrors.ErrInvalidRequest, p.Name)
		}
		seen[p.Name] = true
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return err
	}

	s.logger.Info("Saved brand profile",
		zap.String("tenant_id", profile.TenantID.String()),
		zap.Int("content_pillars", len(profile.ContentPillars)))
	return nil
}
