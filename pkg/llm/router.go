package llm

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/retrieval"
)

// TaskType is the kind of work a model call performs.
type TaskType int

const (
	TaskChat TaskType = iota
	TaskCampaign
	TaskAnalysis
	TaskStrategy
	TaskCritique
	TaskScoring
	TaskHashtags
	TaskReformat
	TaskDraft
)

// String returns the task name used in logs and metrics.
func (t TaskType) String() string {
	switch t {
	case TaskCampaign:
		return "campaign"
	case TaskAnalysis:
		return "analysis"
	case TaskStrategy:
		return "strategy"
	case TaskCritique:
		return "critique"
	case TaskScoring:
		return "scoring"
	case TaskHashtags:
		return "hashtags"
	case TaskReformat:
		return "reformat"
	case TaskDraft:
		return "draft"
	case TaskChat:
		return "chat"
	default:
		return fmt.Sprintf("task(%d)", int(t))
	}
}

// Tier is a model capability class.
type Tier string

const (
	// TierStrategic is the high-capability tier for strategic and analytical work.
	TierStrategic Tier = "strategic"
	// TierCreative is the mid tier for creative drafting.
	TierCreative Tier = "creative"
	// TierBulk is the low-cost, high-throughput tier for mechanical transforms.
	TierBulk Tier = "bulk"
)

// Tiers lists every tier a Router must have a model for.
var Tiers = []Tier{TierStrategic, TierCreative, TierBulk}

// Provider names a model API family.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider validates a configured provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderOpenAI, ProviderAnthropic:
		return p, nil
	default:
		return "", apperrors.NewConfigurationError("provider", fmt.Sprintf("unknown provider %q", s))
	}
}

// ModelSpec is the model configured for one tier.
type ModelSpec struct {
	Provider Provider
	Model    string
}

// ModelHandle is the routing decision for one task.
type ModelHandle struct {
	Task     TaskType
	Tier     Tier
	Provider Provider
	Model    string
}

type keywordRule struct {
	task     TaskType
	keywords []string
}

// classifyRules are evaluated in order; the first rule with a matching
// keyword wins. Specific intents come before the generic writing verbs.
// A keyword matches a whole word; a trailing "*" makes it a word prefix.
var classifyRules = []keywordRule{
	{TaskCampaign, []string{"campaign*"}},
	{TaskAnalysis, []string{"analy*", "report*", "performance", "insight*"}},
	{TaskStrategy, []string{"strategy", "strategies", "strategic", "plan", "plans", "planning", "planned"}},
	{TaskCritique, []string{"critique*", "review", "reviews", "reviewing", "evaluate*", "evaluation"}},
	{TaskScoring, []string{"score", "scores", "scored", "scoring", "rate", "rates", "rating"}},
	{TaskHashtags, []string{"hashtag*"}},
	{TaskReformat, []string{"reformat*", "rewrite*", "rewriting", "convert*", "summar*", "translat*"}},
	{TaskDraft, []string{"write", "writes", "writing", "draft*", "post", "posts", "caption*", "create*"}},
}

// keywordMatches reports whether word satisfies a rule keyword.
func keywordMatches(keyword, word string) bool {
	if stem, ok := strings.CutSuffix(keyword, "*"); ok {
		return strings.HasPrefix(word, stem)
	}
	return word == keyword
}

// Classify maps free text to a task by keyword. Text matching no rule is TaskChat.
func Classify(text string) TaskType {
	words := retrieval.Tokenize(text)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			for _, word := range words {
				if keywordMatches(kw, word) {
					return rule.task
				}
			}
		}
	}
	return TaskChat
}

// TierFor returns the capability tier a task runs on.
func TierFor(task TaskType) Tier {
	switch task {
	case TaskCampaign, TaskAnalysis, TaskStrategy, TaskCritique:
		return TierStrategic
	case TaskDraft, TaskChat, TaskScoring:
		return TierCreative
	case TaskHashtags, TaskReformat:
		return TierBulk
	default:
		return TierCreative
	}
}

// Router resolves tasks to concrete models. It holds no mutable state.
type Router struct {
	models map[Tier]ModelSpec
}

// NewRouter builds a router. Every tier must have a provider and model.
func NewRouter(models map[Tier]ModelSpec) (*Router, error) {
	copied := make(map[Tier]ModelSpec, len(Tiers))
	for _, tier := range Tiers {
		spec, ok := models[tier]
		if !ok || strings.TrimSpace(spec.Model) == "" {
			return nil, apperrors.NewConfigurationError("llm.tiers."+string(tier), "no model configured")
		}
		provider, err := ParseProvider(string(spec.Provider))
		if err != nil {
			return nil, apperrors.NewConfigurationError("llm.tiers."+string(tier)+".provider", err.Error())
		}
		copied[tier] = ModelSpec{Provider: provider, Model: spec.Model}
	}
	return &Router{models: copied}, nil
}

// Route returns the model handle for a task.
func (r *Router) Route(task TaskType) ModelHandle {
	tier := TierFor(task)
	spec := r.models[tier]
	return ModelHandle{
		Task:     task,
		Tier:     tier,
		Provider: spec.Provider,
		Model:    spec.Model,
	}
}

// RouteText classifies free text and routes the resulting task.
func (r *Router) RouteText(text string) ModelHandle {
	return r.Route(Classify(text))
}
