package models

import (
	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-studio/pkg/jsonutil"
)

// PipelineStage names one step of the generation pipeline.
type PipelineStage string

const (
	StagePlan     PipelineStage = "plan"
	StageDraft    PipelineStage = "draft"
	StageCritique PipelineStage = "critique"
	StageScore    PipelineStage = "score"
)

// PipelineStages lists the stages in execution order.
var PipelineStages = []PipelineStage{StagePlan, StageDraft, StageCritique, StageScore}

// Route returns the usage-ledger route name for the stage.
func (s PipelineStage) Route() string {
	return "pipeline." + string(s)
}

// GenerationRequest asks for one piece of publish-ready copy.
type GenerationRequest struct {
	TenantID    uuid.UUID `json:"tenant_id" validate:"required"`
	PrincipalID uuid.UUID `json:"principal_id" validate:"required"`
	Topic       string    `json:"topic" validate:"required"`
	Platform    string    `json:"platform" validate:"required"`
	// BudgetLimitCents caps the principal's total spend. 0 means unlimited;
	// nil uses the configured default.
	BudgetLimitCents *float64 `json:"budget_limit_cents,omitempty"`
}

// ContextBundle is the flattened, prompt-ready context for one request.
type ContextBundle struct {
	BrandText       string `json:"brand_text"`
	KnowledgeText   string `json:"knowledge_text"`
	LearningsText   string `json:"learnings_text"`
	PreferencesText string `json:"preferences_text"`
	StateText       string `json:"state_text"`
}

// ContentBrief is the Plan stage contract. It lives only for one run.
type ContentBrief struct {
	Angle          string              `json:"angle" validate:"required"`
	KeyMessages    jsonutil.StringList `json:"key_messages" validate:"min=1"`
	CTAStrategy    string              `json:"cta_strategy"`
	ToneNotes      string              `json:"tone_notes"`
	TargetEmotion  string              `json:"target_emotion"`
	Differentiator string              `json:"differentiator"`
}

// DraftOutput is the Draft stage contract, also used for critic revisions.
type DraftOutput struct {
	Hook         string              `json:"hook"`
	Body         string              `json:"body" validate:"required"`
	CallToAction string              `json:"cta"`
	Hashtags     jsonutil.StringList `json:"hashtags"`
	PillarName   string              `json:"pillar_name"`
}

// CriticFeedback is the Critique stage contract.
type CriticFeedback struct {
	OverallAssessment string              `json:"overall_assessment" validate:"required"`
	BrandAlignment    string              `json:"brand_alignment"`
	PlatformFit       string              `json:"platform_fit"`
	Suggestions       jsonutil.StringList `json:"suggestions"`
	ShouldRevise      bool                `json:"should_revise"`
	// RevisedDraft is validated separately; an invalid revision is ignored.
	RevisedDraft *DraftOutput `json:"revised_draft,omitempty" validate:"-"`
}

// ScoreResult is the scored outcome of a run. All scores are 0-100.
type ScoreResult struct {
	Overall             float64 `json:"overall"`
	BrandAlignment      float64 `json:"brand_alignment"`
	EngagementPotential float64 `json:"engagement_potential"`
	Clarity             float64 `json:"clarity"`
	CTAStrength         float64 `json:"cta_strength"`
	PlatformFit         float64 `json:"platform_fit"`
	Reasoning           string  `json:"reasoning"`
}

// ScoreResponse is the Score stage contract as the model returns it.
// Pointers let validation tell an omitted dimension from a real 0.
type ScoreResponse struct {
	Overall             *float64 `json:"overall" validate:"required,gte=0,lte=100"`
	BrandAlignment      *float64 `json:"brand_alignment" validate:"required,gte=0,lte=100"`
	EngagementPotential *float64 `json:"engagement_potential" validate:"required,gte=0,lte=100"`
	Clarity             *float64 `json:"clarity" validate:"required,gte=0,lte=100"`
	CTAStrength         *float64 `json:"cta_strength" validate:"required,gte=0,lte=100"`
	PlatformFit         *float64 `json:"platform_fit" validate:"required,gte=0,lte=100"`
	Reasoning           string   `json:"reasoning" validate:"required"`
}

// Result converts a validated response. Omitted dimensions read as 0.
func (r ScoreResponse) Result() ScoreResult {
	value := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	return ScoreResult{
		Overall:             value(r.Overall),
		BrandAlignment:      value(r.BrandAlignment),
		EngagementPotential: value(r.EngagementPotential),
		Clarity:             value(r.Clarity),
		CTAStrength:         value(r.CTAStrength),
		PlatformFit:         value(r.PlatformFit),
		Reasoning:           r.Reasoning,
	}
}

// StageUsage is one line of a run's cost ledger.
type StageUsage struct {
	Stage        PipelineStage `json:"stage"`
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	CostCents    float64       `json:"cost_cents"`
	Fallback     bool          `json:"fallback"` // Output failed its contract and a default was used
}

// ContentArtifact is the terminal output of a pipeline run.
type ContentArtifact struct {
	Brief         ContentBrief   `json:"brief"`
	OriginalDraft DraftOutput    `json:"original_draft"`
	Critique      CriticFeedback `json:"critique"`
	Score         ScoreResult    `json:"score"`
	FinalDraft    DraftOutput    `json:"final_draft"`
	Revised       bool           `json:"revised"`
	TotalTokens   int            `json:"total_tokens"`
	Usage         []StageUsage   `json:"usage"`

	// Degraded is true when at least one stage fell back to its default.
	Degraded       bool            `json:"degraded"`
	FallbackStages []PipelineStage `json:"fallback_stages,omitempty"`
}

// TotalCostCents sums the run ledger.
func (a *ContentArtifact) TotalCostCents() float64 {
	var total float64
	for _, u := range a.Usage {
		total += u.CostCents
	}
	return total
}
