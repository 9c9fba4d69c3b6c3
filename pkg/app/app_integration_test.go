//go:build integration

package app

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/llm"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
	"github.com/ekaya-inc/ekaya-studio/pkg/testhelpers"
)

func TestNew_GeneratesAgainstPostgres(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	host, err := testDB.Container.Host(ctx)
	require.NoError(t, err)
	port, err := testDB.Container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := defaultConfig(t)
	cfg.Database.Host = host
	cfg.Database.Port = portNum
	cfg.Database.User = "ekaya"
	cfg.Database.Password = "test_password"
	cfg.Database.Database = "ekaya_studio_test"
	cfg.Corpus.Root = filepath.Join(t.TempDir(), "knowledge")

	factory := llm.NewMockClientFactory()
	factory.MockClient = llm.NewScriptedLLMClient(100, 50,
		`{"angle": "tiny habits", "key_messages": ["weekly savings tip"]}`,
		`{"hook": "Stop wasting $5", "body": "Skip one coffee."}`,
		`{"overall_assessment": "Good.", "should_revise": false}`,
		`{"overall": 80, "brand_alignment": 85, "engagement_potential": 75, "clarity": 90, "cta_strength": 70, "platform_fit": 80, "reasoning": "Clear."}`)

	a, err := New(ctx, cfg, zap.NewNop(),
		WithRegisterer(prometheus.NewRegistry()),
		WithClientFactory(factory))
	require.NoError(t, err)
	defer a.Close()

	tenant, principal := uuid.New(), uuid.New()
	require.NoError(t, a.BrandProfiles.Save(ctx, &models.BrandProfile{
		TenantID: tenant,
		Name:     "Penny",
		ContentPillars: []models.ContentPillar{
			{Name: "Education", TargetPercentage: 40},
			{Name: "Community", TargetPercentage: 30},
			{Name: "Product", TargetPercentage: 30},
		},
	}))

	artifact, err := a.Content.Generate(ctx, &models.GenerationRequest{
		TenantID:    tenant,
		PrincipalID: principal,
		Topic:       "weekly savings tip",
		Platform:    "tiktok",
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, artifact.Score.Overall)
	assert.False(t, artifact.Degraded)

	status, err := a.Meter.CheckBudget(ctx, principal, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, artifact.TotalCostCents(), status.SpentCents, 1e-6)
}
