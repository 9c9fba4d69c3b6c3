package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/config"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
	"github.com/ekaya-inc/ekaya-studio/pkg/repositories"
)

// Rate is a model price in cents per million tokens.
type Rate struct {
	InputCentsPerMillion  float64
	OutputCentsPerMillion float64
}

// RateTable maps model names to prices.
type RateTable map[string]Rate

// DefaultRate prices models missing from the table. It matches the most
// expensive tier in DefaultRateTable so unknown models are never undercharged.
var DefaultRate = Rate{InputCentsPerMillion: 300, OutputCentsPerMillion: 1500}

// DefaultRateTable holds list prices for the models the router ships with.
func DefaultRateTable() RateTable {
	return RateTable{
		"gpt-4o":            {InputCentsPerMillion: 250, OutputCentsPerMillion: 1000},
		"gpt-4o-mini":       {InputCentsPerMillion: 15, OutputCentsPerMillion: 60},
		"gpt-4.1":           {InputCentsPerMillion: 200, OutputCentsPerMillion: 800},
		"gpt-4.1-mini":      {InputCentsPerMillion: 40, OutputCentsPerMillion: 160},
		"claude-sonnet-4-5": {InputCentsPerMillion: 300, OutputCentsPerMillion: 1500},
		"claude-haiku-4-5":  {InputCentsPerMillion: 100, OutputCentsPerMillion: 500},
	}
}

// WithOverrides returns a copy of t with the configured prices applied.
func (t RateTable) WithOverrides(overrides map[string]config.ModelRate) RateTable {
	merged := make(RateTable, len(t)+len(overrides))
	for model, rate := range t {
		merged[model] = rate
	}
	for model, rate := range overrides {
		merged[model] = Rate{
			InputCentsPerMillion:  rate.InputCentsPerMillion,
			OutputCentsPerMillion: rate.OutputCentsPerMillion,
		}
	}
	return merged
}

// UsageRecorder prices and records model calls.
type UsageRecorder interface {
	EstimateCost(model string, inputTokens, outputTokens int) float64
	Record(ctx context.Context, principalID, tenantID uuid.UUID, model, route string, inputTokens, outputTokens int) (*models.UsageRecord, error)
}

// UsageMeter is the budget gate and usage ledger writer.
type UsageMeter interface {
	UsageRecorder

	// CheckBudget reports whether the principal may start new paid work.
	// A limit of exactly 0 means unlimited and does not read the ledger.
	CheckBudget(ctx context.Context, principalID uuid.UUID, limitCents float64) (*models.BudgetStatus, error)

	// Admit is CheckBudget that returns *apperrors.BudgetExceededError when
	// the principal is over budget.
	Admit(ctx context.Context, principalID uuid.UUID, limitCents float64) (*models.BudgetStatus, error)
}

type usageMeter struct {
	repo    repositories.UsageRepository
	rates   RateTable
	metrics *PipelineMetrics
	logger  *zap.Logger

	warnedMu sync.Mutex
	warned   map[string]bool
}

// NewUsageMeter creates a UsageMeter. A nil rates uses DefaultRateTable.
func NewUsageMeter(repo repositories.UsageRepository, rates RateTable, metrics *PipelineMetrics, logger *zap.Logger) UsageMeter {
	if rates == nil {
		rates = DefaultRateTable()
	}
	return &usageMeter{
		repo:    repo,
		rates:   rates,
		metrics: metrics,
		logger:  logger.Named("usage-meter"),
		warned:  make(map[string]bool),
	}
}

var _ UsageMeter = (*usageMeter)(nil)

func (m *usageMeter) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	rate, ok := m.rates[model]
	if !ok {
		m.warnUnknownModel(model)
		rate = DefaultRate
	}

	in := float64(max(inputTokens, 0))
	out := float64(max(outputTokens, 0))
	return (in*rate.InputCentsPerMillion + out*rate.OutputCentsPerMillion) / 1_000_000
}

// warnUnknownModel logs once per model to keep hot paths quiet.
func (m *usageMeter) warnUnknownModel(model string) {
	m.warnedMu.Lock()
	defer m.warnedMu.Unlock()
	if m.warned[model] {
		return
	}
	m.warned[model] = true
	m.logger.Warn("No rate configured for model, using default rate",
		zap.String("model", model),
		zap.Float64("input_cents_per_million", DefaultRate.InputCentsPerMillion),
		zap.Float64("output_cents_per_million", DefaultRate.OutputCentsPerMillion))
}

func (m *usageMeter) CheckBudget(ctx context.Context, principalID uuid.UUID, limitCents float64) (*models.BudgetStatus, error) {
	if limitCents < 0 {
		return nil, apperrors.NewConfigurationError("budget limit", "must not be negative")
	}
	if limitCents == 0 {
		return &models.BudgetStatus{Allowed: true, Unlimited: true}, nil
	}

	spent, err := m.repo.SumCostByPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	return &models.BudgetStatus{
		Allowed:        spent < limitCents,
		LimitCents:     limitCents,
		SpentCents:     spent,
		RemainingCents: max(limitCents-spent, 0),
	}, nil
}

func (m *usageMeter) Admit(ctx context.Context, principalID uuid.UUID, limitCents float64) (*models.BudgetStatus, error) {
	status, err := m.CheckBudget(ctx, principalID, limitCents)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		m.metrics.RecordBudgetRejection()
		m.logger.Info("Budget exceeded, request refused",
			zap.String("principal_id", principalID.String()),
			zap.Float64("limit_cents", status.LimitCents),
			zap.Float64("spent_cents", status.SpentCents))
		return status, &apperrors.BudgetExceededError{
			PrincipalID: principalID,
			LimitCents:  status.LimitCents,
			SpentCents:  status.SpentCents,
		}
	}
	return status, nil
}

func (m *usageMeter) Record(ctx context.Context, principalID, tenantID uuid.UUID, model, route string, inputTokens, outputTokens int) (*models.UsageRecord, error) {
	inputTokens = max(inputTokens, 0)
	outputTokens = max(outputTokens, 0)

	record := &models.UsageRecord{
		PrincipalID:  principalID,
		TenantID:     tenantID,
		Model:        model,
		Route:        route,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostCents:    m.EstimateCost(model, inputTokens, outputTokens),
	}

	if err := m.repo.Insert(ctx, record); err != nil {
		return nil, err
	}
	m.metrics.RecordCost(model, record.CostCents)

	return record, nil
}
