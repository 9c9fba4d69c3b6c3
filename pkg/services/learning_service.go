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

// LearningService records behavioral insights for a tenant.
type LearningService interface {
	// Record validates and stores a learning. Negative weights are stored as 0.
	Record(ctx context.Context, learning *models.Learning) error
	// Recent returns the tenant's newest learnings.
	Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Learning, error)
}

type learningService struct {
	repo     repositories.LearningRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewLearningService creates a LearningService.
func NewLearningService(repo repositories.LearningRepository, logger *zap.Logger) LearningService {
	return &learningService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("learning-service"),
	}
}

var _ LearningService = (*learningService)(nil)

func (s *learningService) Record(ctx context.Context, learning *models.Learning) error {
	learning.Category = strings.TrimSpace(learning.Category)
	learning.Insight = strings.TrimSpace(learning.Insight)
	if learning.Confidence == "" {
		learning.Confidence = models.ConfidenceLow
	} else if tier, err := models.ParseConfidence(string(learning.Confidence)); err == nil {
		learning.Confidence = tier
	}
	if learning.Weight < 0 {
		learning.Weight = 0
	}

	if err := s.validate.Struct(learning); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err)
	}

	if err := s.repo.Create(ctx, learning); err != nil {
		return err
	}

	s.logger.Debug("Recorded learning",
		zap.String("tenant_id", learning.TenantID.String()),
		zap.String("category", learning.Category),
		zap.String("confidence", string(learning.Confidence)))
	return nil
}

func (s *learningService) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Learning, error) {
	if limit <= 0 {
		return []models.Learning{}, nil
	}
	return s.repo.ListRecent(ctx, tenantID, limit)
}
