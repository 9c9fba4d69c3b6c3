package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-studio/pkg/llm"
	"github.com/ekaya-inc/ekaya-studio/pkg/logging"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
	"github.com/ekaya-inc/ekaya-studio/pkg/prompts"
)

// ScoreFallbackValue is the flat score used when the Score stage output
// cannot be parsed.
const ScoreFallbackValue = 70

// PipelineConfig controls stage execution.
type PipelineConfig struct {
	// StageTimeout bounds each model call. It is measured from the start of
	// the call and is independent of the caller's context.
	StageTimeout time.Duration

	PlanTemperature     float64
	DraftTemperature    float64
	CritiqueTemperature float64
	ScoreTemperature    float64
}

// DefaultPipelineConfig returns the documented defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		StageTimeout:        90 * time.Second,
		PlanTemperature:     0.7,
		DraftTemperature:    0.8,
		CritiqueTemperature: 0.3,
		ScoreTemperature:    0.2,
	}
}

// ContentPipeline runs Plan, Draft, Critique and Score for one request.
type ContentPipeline interface {
	// Run executes the stages in order. Malformed stage output is replaced by
	// that stage's default; a failed model call aborts the run. When ctx is
	// cancelled the call in flight completes and no further stage starts.
	Run(ctx context.Context, req *models.GenerationRequest, bundle *models.ContextBundle) (*models.ContentArtifact, error)
}

type contentPipeline struct {
	router   *llm.Router
	factory  llm.LLMClientFactory
	recorder UsageRecorder
	metrics  *PipelineMetrics
	cfg      PipelineConfig
	logger   *zap.Logger
}

// NewContentPipeline creates a ContentPipeline.
func NewContentPipeline(
	router *llm.Router,
	factory llm.LLMClientFactory,
	recorder UsageRecorder,
	metrics *PipelineMetrics,
	cfg PipelineConfig,
	logger *zap.Logger,
) ContentPipeline {
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultPipelineConfig().StageTimeout
	}
	return &contentPipeline{
		router:   router,
		factory:  factory,
		recorder: recorder,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger.Named("content-pipeline"),
	}
}

var _ ContentPipeline = (*contentPipeline)(nil)

// stageSpec binds a stage to its routed task and sampling settings.
type stageSpec struct {
	stage         models.PipelineStage
	task          llm.TaskType
	systemMessage string
	temperature   float64
}

func (p *contentPipeline) spec(stage models.PipelineStage) stageSpec {
	switch stage {
	case models.StagePlan:
		return stageSpec{stage, llm.TaskStrategy, prompts.PlanSystemMessage, p.cfg.PlanTemperature}
	case models.StageDraft:
		return stageSpec{stage, llm.TaskDraft, prompts.DraftSystemMessage, p.cfg.DraftTemperature}
	case models.StageCritique:
		return stageSpec{stage, llm.TaskCritique, prompts.CritiqueSystemMessage, p.cfg.CritiqueTemperature}
	default:
		return stageSpec{models.StageScore, llm.TaskScoring, prompts.ScoreSystemMessage, p.cfg.ScoreTemperature}
	}
}

// run is the state of one pipeline execution. It is never shared.
type run struct {
	id       uuid.UUID
	req      *models.GenerationRequest
	input    prompts.Input
	artifact *models.ContentArtifact
	logger   *zap.Logger
}

func (p *contentPipeline) Run(ctx context.Context, req *models.GenerationRequest, bundle *models.ContextBundle) (*models.ContentArtifact, error) {
	if bundle == nil {
		bundle = &models.ContextBundle{}
	}

	r := &run{
		id:  uuid.New(),
		req: req,
		input: prompts.Input{
			Topic:    req.Topic,
			Platform: req.Platform,
			Context:  *bundle,
		},
		artifact: &models.ContentArtifact{Usage: make([]models.StageUsage, 0, len(models.PipelineStages))},
	}
	r.logger = p.logger.With(
		zap.String("run_id", r.id.String()),
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("platform", req.Platform))

	ctx = llm.WithRunContext(ctx, r.id, req.TenantID, req.PrincipalID)

	if err := p.plan(ctx, r); err != nil {
		return nil, p.fail(ctx, r, err)
	}
	if err := p.draft(ctx, r); err != nil {
		return nil, p.fail(ctx, r, err)
	}
	if err := p.critique(ctx, r); err != nil {
		return nil, p.fail(ctx, r, err)
	}
	if err := p.score(ctx, r); err != nil {
		return nil, p.fail(ctx, r, err)
	}

	outcome := "ok"
	if r.artifact.Degraded {
		outcome = "degraded"
	}
	p.metrics.RecordRun(outcome)

	r.logger.Info("Content pipeline completed",
		zap.Bool("revised", r.artifact.Revised),
		zap.Bool("degraded", r.artifact.Degraded),
		zap.Float64("score", r.artifact.Score.Overall),
		zap.Int("total_tokens", r.artifact.TotalTokens),
		zap.Float64("cost_cents", r.artifact.TotalCostCents()))

	return r.artifact, nil
}

func (p *contentPipeline) fail(ctx context.Context, r *run, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		p.metrics.RecordRun("cancelled")
		r.logger.Info("Content pipeline cancelled",
			zap.Int("completed_stages", len(r.artifact.Usage)))
	} else {
		p.metrics.RecordRun("failed")
	}
	return err
}

func (p *contentPipeline) plan(ctx context.Context, r *run) error {
	response, err := p.call(ctx, r, p.spec(models.StagePlan), prompts.BuildPlanPrompt(r.input))
	if err != nil {
		return err
	}

	def := models.ContentBrief{
		Angle:          "direct approach",
		KeyMessages:    jsonutil.StringList{r.req.Topic},
		CTAStrategy:    "Invite the audience to engage with the post.",
		ToneNotes:      "Follow the brand voice.",
		TargetEmotion:  "curiosity",
		Differentiator: "",
	}
	brief, err := llm.ParseOrDefault("content_brief", response, def)
	if err != nil {
		p.fallback(r, models.StagePlan, response, err)
	}
	r.artifact.Brief = brief
	return nil
}

func (p *contentPipeline) draft(ctx context.Context, r *run) error {
	response, err := p.call(ctx, r, p.spec(models.StageDraft), prompts.BuildDraftPrompt(r.input, r.artifact.Brief))
	if err != nil {
		return err
	}

	// The raw response is still usable copy when it is not JSON.
	def := models.DraftOutput{Body: response}
	draft, err := llm.ParseOrDefault("draft_output", response, def)
	if err != nil {
		p.fallback(r, models.StageDraft, response, err)
	}
	r.artifact.OriginalDraft = draft
	r.artifact.FinalDraft = draft
	return nil
}

func (p *contentPipeline) critique(ctx context.Context, r *run) error {
	response, err := p.call(ctx, r, p.spec(models.StageCritique),
		prompts.BuildCritiquePrompt(r.input, r.artifact.Brief, r.artifact.OriginalDraft))
	if err != nil {
		return err
	}

	def := models.CriticFeedback{
		OverallAssessment: "No structured critique was available; the draft stands as written.",
		ShouldRevise:      false,
	}
	feedback, err := llm.ParseOrDefault("critic_feedback", response, def)
	if err != nil {
		p.fallback(r, models.StageCritique, response, err)
	}

	if feedback.ShouldRevise && feedback.RevisedDraft != nil {
		if verr := llm.ValidateContract(feedback.RevisedDraft); verr == nil {
			r.artifact.FinalDraft = *feedback.RevisedDraft
			r.artifact.Revised = true
		} else {
			r.logger.Warn("Ignoring invalid revised draft", zap.Error(verr))
		}
	}

	r.artifact.Critique = feedback
	return nil
}

func (p *contentPipeline) score(ctx context.Context, r *run) error {
	response, err := p.call(ctx, r, p.spec(models.StageScore),
		prompts.BuildScorePrompt(r.input, r.artifact.Brief, r.artifact.FinalDraft, r.artifact.Critique))
	if err != nil {
		return err
	}

	def := models.ScoreResult{
		Overall:             ScoreFallbackValue,
		BrandAlignment:      ScoreFallbackValue,
		EngagementPotential: ScoreFallbackValue,
		Clarity:             ScoreFallbackValue,
		CTAStrength:         ScoreFallbackValue,
		PlatformFit:         ScoreFallbackValue,
		Reasoning:           "Scoring output could not be parsed; a neutral default score was assigned.",
	}
	parsed, err := llm.ParseOrDefault("score_result", response, models.ScoreResponse{})
	if err != nil {
		p.fallback(r, models.StageScore, response, err)
		r.artifact.Score = def
		return nil
	}
	r.artifact.Score = parsed.Result()
	return nil
}

// call runs one model call for a stage and records its usage. The parent
// context is checked first so a cancelled run starts no new stage; the call
// itself runs detached from cancellation and bounded by StageTimeout.
func (p *contentPipeline) call(ctx context.Context, r *run, spec stageSpec, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s stage not started: %w", spec.stage, err)
	}

	handle := p.router.Route(spec.task)
	client, err := p.factory.CreateForHandle(handle)
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", spec.stage, err)
	}

	stageCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.StageTimeout)
	defer cancel()
	stageCtx = llm.WithStage(stageCtx, string(spec.stage), spec.task)

	start := time.Now()
	result, err := client.GenerateResponse(stageCtx, prompt, spec.systemMessage, spec.temperature, false)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("Model call failed",
			zap.String("stage", string(spec.stage)),
			zap.String("model", handle.Model),
			zap.Duration("elapsed", elapsed),
			zap.String("error", logging.SanitizeError(err)))
		return "", fmt.Errorf("%s stage: %w", spec.stage, err)
	}

	p.recordUsage(ctx, r, spec.stage, handle.Model, result, elapsed)
	return result.Content, nil
}

// recordUsage appends the call to the run ledger and the usage store. The
// cost was incurred whether or not the output parses, so this always runs.
func (p *contentPipeline) recordUsage(ctx context.Context, r *run, stage models.PipelineStage, model string, result *llm.GenerateResponseResult, elapsed time.Duration) {
	in := max(result.PromptTokens, 0)
	out := max(result.CompletionTokens, 0)

	usage := models.StageUsage{
		Stage:        stage,
		Model:        model,
		InputTokens:  in,
		OutputTokens: out,
	}

	record, err := p.recorder.Record(context.WithoutCancel(ctx), r.req.PrincipalID, r.req.TenantID, model, stage.Route(), in, out)
	if err != nil {
		usage.CostCents = p.recorder.EstimateCost(model, in, out)
		r.logger.Error("Failed to record usage",
			zap.String("stage", string(stage)),
			zap.String("model", model),
			zap.Float64("cost_cents", usage.CostCents),
			zap.Error(err))
	} else {
		usage.CostCents = record.CostCents
	}

	r.artifact.Usage = append(r.artifact.Usage, usage)
	r.artifact.TotalTokens += in + out
	p.metrics.RecordStage(stage, elapsed, in, out)

	r.logger.Debug("Stage completed",
		zap.String("stage", string(stage)),
		zap.String("model", model),
		zap.Int("input_tokens", in),
		zap.Int("output_tokens", out),
		zap.Duration("elapsed", elapsed))
}

// fallback marks the stage's ledger entry and the artifact as degraded.
func (p *contentPipeline) fallback(r *run, stage models.PipelineStage, response string, err error) {
	if n := len(r.artifact.Usage); n > 0 && r.artifact.Usage[n-1].Stage == stage {
		r.artifact.Usage[n-1].Fallback = true
	}
	r.artifact.Degraded = true
	r.artifact.FallbackStages = append(r.artifact.FallbackStages, stage)
	p.metrics.RecordFallback(stage)

	r.logger.Warn("Stage output failed its contract, using default",
		zap.String("stage", string(stage)),
		zap.String("response_excerpt", logging.Excerpt(response)),
		zap.Error(err))
}
