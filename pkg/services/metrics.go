package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// PipelineMetrics holds the Prometheus metrics for content generation.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	StageDuration    *prometheus.HistogramVec
	Tokens           *prometheus.CounterVec
	CostCents        *prometheus.CounterVec
	Fallbacks        *prometheus.CounterVec
	BudgetRejections prometheus.Counter
	Runs             *prometheus.CounterVec
}

// NewPipelineMetrics registers the metrics with reg. A nil reg creates
// unregistered metrics.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)

	return &PipelineMetrics{
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ekaya_studio_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120}, // model calls dominate
		}, []string{"stage"}),

		Tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ekaya_studio_pipeline_tokens_total",
			Help: "Model tokens consumed by pipeline stages",
		}, []string{"stage", "direction"}), // direction: "input" or "output"

		CostCents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ekaya_studio_usage_cost_cents_total",
			Help: "Estimated model spend in cents by model",
		}, []string{"model"}),

		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ekaya_studio_pipeline_fallbacks_total",
			Help: "Stage outputs that failed their contract and were replaced by a default",
		}, []string{"stage"}),

		BudgetRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "ekaya_studio_budget_rejections_total",
			Help: "Generation requests refused by the budget gate",
		}),

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ekaya_studio_pipeline_runs_total",
			Help: "Pipeline runs by outcome",
		}, []string{"outcome"}), // outcome: "ok", "degraded", "failed", "cancelled"
	}
}

// RecordStage records latency and token usage for one completed model call.
func (m *PipelineMetrics) RecordStage(stage models.PipelineStage, d time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	m.Tokens.WithLabelValues(string(stage), "input").Add(float64(inputTokens))
	m.Tokens.WithLabelValues(string(stage), "output").Add(float64(outputTokens))
}

// RecordCost adds spend for a model.
func (m *PipelineMetrics) RecordCost(model string, cents float64) {
	if m == nil || cents <= 0 {
		return
	}
	m.CostCents.WithLabelValues(model).Add(cents)
}

// RecordFallback counts a contract fallback.
func (m *PipelineMetrics) RecordFallback(stage models.PipelineStage) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(string(stage)).Inc()
}

// RecordBudgetRejection counts a refused request.
func (m *PipelineMetrics) RecordBudgetRejection() {
	if m == nil {
		return
	}
	m.BudgetRejections.Inc()
}

// RecordRun counts a finished run.
func (m *PipelineMetrics) RecordRun(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}
