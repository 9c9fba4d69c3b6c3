package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/config"
	"github.com/ekaya-inc/ekaya-studio/pkg/llm"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestNewRouter_FromConfig(t *testing.T) {
	cfg := defaultConfig(t)

	router, err := NewRouter(cfg.LLM)
	require.NoError(t, err)

	plan := router.Route(llm.TaskStrategy)
	assert.Equal(t, llm.TierStrategic, plan.Tier)
	assert.Equal(t, llm.ProviderAnthropic, plan.Provider)
	assert.Equal(t, "claude-sonnet-4-5", plan.Model)

	hashtags := router.Route(llm.TaskHashtags)
	assert.Equal(t, "gpt-4o-mini", hashtags.Model)
}

func TestNewRouter_RejectsMissingModel(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.LLM.BulkModel = ""

	_, err := NewRouter(cfg.LLM)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestNewRateTable(t *testing.T) {
	table, err := NewRateTable(config.PricingConfig{})
	require.NoError(t, err)
	assert.Equal(t, 250.0, table["gpt-4o"].InputCentsPerMillion)

	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gpt-4o:\n  input_cents_per_million: 1\n  output_cents_per_million: 2\n"), 0o644))

	table, err = NewRateTable(config.PricingConfig{RateTablePath: path})
	require.NoError(t, err)
	assert.Equal(t, 1.0, table["gpt-4o"].InputCentsPerMillion)
	assert.Contains(t, table, "gpt-4o-mini")
}
