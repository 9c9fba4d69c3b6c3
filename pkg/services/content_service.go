package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// ContentService turns a generation request into a finished artifact:
// budget admission, context assembly, then the pipeline.
type ContentService interface {
	// Generate refuses over-budget principals before any model call and
	// returns *apperrors.BudgetExceededError in that case.
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.ContentArtifact, error)
}

type contentService struct {
	meter        UsageMeter
	assembler    ContextAssembler
	pipeline     ContentPipeline
	defaultLimit float64
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewContentService creates a ContentService. defaultLimitCents applies to
// requests that carry no limit; 0 means unlimited.
func NewContentService(meter UsageMeter, assembler ContextAssembler, pipeline ContentPipeline, defaultLimitCents float64, logger *zap.Logger) ContentService {
	return &contentService{
		meter:        meter,
		assembler:    assembler,
		pipeline:     pipeline,
		defaultLimit: defaultLimitCents,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger.Named("content-service"),
	}
}

var _ ContentService = (*contentService)(nil)

func (s *contentService) Generate(ctx context.Context, in *models.GenerationRequest) (*models.ContentArtifact, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: request is required", apperrors.ErrInvalidRequest)
	}
	// Normalized copy; the caller's request is left as given.
	normalized := *in
	req := &normalized
	req.Topic = strings.TrimSpace(req.Topic)
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err)
	}

	limit := s.defaultLimit
	if req.BudgetLimitCents != nil {
		limit = *req.BudgetLimitCents
	}

	if _, err := s.meter.Admit(ctx, req.PrincipalID, limit); err != nil {
		return nil, err
	}

	bundle, err := s.assembler.Assemble(ctx, req.TenantID, req.Topic)
	if err != nil {
		return nil, fmt.Errorf("assemble context: %w", err)
	}

	artifact, err := s.pipeline.Run(ctx, req, bundle)
	if err != nil {
		return nil, err
	}

	return artifact, nil
}
