package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

func TestLearningService_Record(t *testing.T) {
	repo := &fakeLearningRepo{}
	svc := NewLearningService(repo, zap.NewNop())
	tenant := uuid.New()

	learning := &models.Learning{
		TenantID:   tenant,
		Category:   "  hooks ",
		Insight:    "Questions outperform statements",
		Confidence: "HIGH",
		Weight:     -2,
	}
	require.NoError(t, svc.Record(context.Background(), learning))

	require.Len(t, repo.learnings, 1)
	stored := repo.learnings[0]
	assert.Equal(t, "hooks", stored.Category)
	assert.Equal(t, models.ConfidenceHigh, stored.Confidence)
	assert.Equal(t, 0.0, stored.Weight)
}

func TestLearningService_DefaultsConfidence(t *testing.T) {
	repo := &fakeLearningRepo{}
	svc := NewLearningService(repo, zap.NewNop())

	require.NoError(t, svc.Record(context.Background(), &models.Learning{
		TenantID: uuid.New(), Category: "timing", Insight: "Post before noon",
	}))
	assert.Equal(t, models.ConfidenceLow, repo.learnings[0].Confidence)
}

func TestLearningService_RejectsInvalid(t *testing.T) {
	svc := NewLearningService(&fakeLearningRepo{}, zap.NewNop())

	tests := []struct {
		name     string
		learning models.Learning
	}{
		{"missing insight", models.Learning{TenantID: uuid.New(), Category: "hooks"}},
		{"missing tenant", models.Learning{Category: "hooks", Insight: "x"}},
		{"unknown confidence", models.Learning{TenantID: uuid.New(), Category: "hooks", Insight: "x", Confidence: "certain"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.learning
			assert.ErrorIs(t, svc.Record(context.Background(), &l), apperrors.ErrInvalidRequest)
		})
	}
}

func TestLearningService_Recent(t *testing.T) {
	tenant := uuid.New()
	repo := &fakeLearningRepo{learnings: []models.Learning{
		{TenantID: tenant, Insight: "a"}, {TenantID: tenant, Insight: "b"}, {TenantID: uuid.New(), Insight: "c"},
	}}
	svc := NewLearningService(repo, zap.NewNop())

	got, err := svc.Recent(context.Background(), tenant, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := svc.Recent(context.Background(), tenant, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
