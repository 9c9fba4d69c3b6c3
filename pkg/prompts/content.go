// Package prompts builds the system messages and prompts for each stage of
// the content pipeline.
package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// System messages for each pipeline stage.
const (
	PlanSystemMessage = `You are a senior content strategist for a brand. You turn a topic into a focused creative brief that fits the brand voice, the content pillar balance and what has worked before. You respond only with JSON.`

	DraftSystemMessage = `You are a social media copywriter. You write publish-ready copy that follows the brief, the brand voice and the platform rules exactly. You respond only with JSON.`

	CritiqueSystemMessage = `You are a demanding brand editor. You review a draft against the brief, the brand profile and the platform rules. When the draft needs changes you supply a complete revised draft. You respond only with JSON.`

	ScoreSystemMessage = `You are an impartial content quality judge. You score copy from 0 to 100 on each dimension and explain the overall score briefly. You respond only with JSON.`
)

// Input is the per-request data shared by every stage prompt.
type Input struct {
	Topic    string
	Platform string
	Context  models.ContextBundle
}

// BuildPlanPrompt asks for a ContentBrief.
func BuildPlanPrompt(in Input) string {
	var prompt strings.Builder

	prompt.WriteString("# Content Brief\n\n")
	prompt.WriteString(fmt.Sprintf("Plan one piece of content about: %s\n", in.Topic))
	prompt.WriteString(fmt.Sprintf("Target platform: %s\n\n", RulesFor(in.Platform).Name))

	writeContext(&prompt, in.Context)

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("1. Choose an angle that fits the brand and is not repeated in recent content.\n")
	prompt.WriteString("2. Prefer an under-represented pillar when the pillar report shows drift.\n")
	prompt.WriteString("3. Apply the learnings; higher confidence learnings matter more.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "angle": "the creative angle in one sentence",
  "key_messages": ["message 1", "message 2"],
  "cta_strategy": "what the reader should do next",
  "tone_notes": "how the voice should sound here",
  "target_emotion": "the feeling to leave the reader with",
  "differentiator": "what makes this different from competitors"
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// BuildDraftPrompt asks for a DraftOutput following the brief.
func BuildDraftPrompt(in Input, brief models.ContentBrief) string {
	var prompt strings.Builder

	prompt.WriteString("# Draft\n\n")
	prompt.WriteString(fmt.Sprintf("Topic: %s\n\n", in.Topic))

	writeBrief(&prompt, brief)
	prompt.WriteString(RulesFor(in.Platform).Render())
	prompt.WriteString("\n")
	writeContext(&prompt, in.Context)

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "hook": "opening line",
  "body": "main copy",
  "cta": "call to action",
  "hashtags": ["#tag"],
  "pillar_name": "the content pillar this serves"
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// BuildCritiquePrompt asks for CriticFeedback on a draft.
func BuildCritiquePrompt(in Input, brief models.ContentBrief, draft models.DraftOutput) string {
	var prompt strings.Builder

	prompt.WriteString("# Critique\n\n")
	prompt.WriteString(fmt.Sprintf("Topic: %s\n\n", in.Topic))

	writeBrief(&prompt, brief)
	writeDraft(&prompt, "Draft Under Review", draft)
	prompt.WriteString(RulesFor(in.Platform).Render())
	prompt.WriteString("\n")
	writeContext(&prompt, in.Context)

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("Set should_revise to true only if the draft misses the brief, breaks a platform rule or is off-brand. ")
	prompt.WriteString("When should_revise is true, revised_draft must be a complete draft in the same shape as the original.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "overall_assessment": "one paragraph",
  "brand_alignment": "notes",
  "platform_fit": "notes",
  "suggestions": ["suggestion"],
  "should_revise": false,
  "revised_draft": {"hook": "", "body": "", "cta": "", "hashtags": [], "pillar_name": ""}
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// BuildScorePrompt asks for a ScoreResult for the final draft.
func BuildScorePrompt(in Input, brief models.ContentBrief, draft models.DraftOutput, critique models.CriticFeedback) string {
	var prompt strings.Builder

	prompt.WriteString("# Score\n\n")
	prompt.WriteString(fmt.Sprintf("Topic: %s\n", in.Topic))
	prompt.WriteString(fmt.Sprintf("Platform: %s\n\n", RulesFor(in.Platform).Name))

	writeBrief(&prompt, brief)
	writeDraft(&prompt, "Final Draft", draft)

	prompt.WriteString("## Editor Assessment\n\n")
	prompt.WriteString(critique.OverallAssessment + "\n\n")

	prompt.WriteString("## Brand\n\n")
	prompt.WriteString(in.Context.BrandText + "\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("All scores are integers from 0 to 100.\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "overall": 0,
  "brand_alignment": 0,
  "engagement_potential": 0,
  "clarity": 0,
  "cta_strength": 0,
  "platform_fit": 0,
  "reasoning": "why the overall score"
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}

func writeContext(prompt *strings.Builder, bundle models.ContextBundle) {
	sections := []struct {
		title string
		body  string
	}{
		{"Brand", bundle.BrandText},
		{"Knowledge", bundle.KnowledgeText},
		{"Learnings", bundle.LearningsText},
		{"Preferences", bundle.PreferencesText},
		{"Pipeline State", bundle.StateText},
	}
	for _, s := range sections {
		if strings.TrimSpace(s.body) == "" {
			continue
		}
		prompt.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", s.title, strings.TrimSpace(s.body)))
	}
}

func writeBrief(prompt *strings.Builder, brief models.ContentBrief) {
	prompt.WriteString("## Brief\n\n")
	prompt.WriteString(fmt.Sprintf("- Angle: %s\n", brief.Angle))
	if len(brief.KeyMessages) > 0 {
		prompt.WriteString("- Key messages:\n")
		for _, msg := range brief.KeyMessages {
			prompt.WriteString(fmt.Sprintf("  - %s\n", msg))
		}
	}
	optional := []struct{ label, value string }{
		{"CTA strategy", brief.CTAStrategy},
		{"Tone", brief.ToneNotes},
		{"Target emotion", brief.TargetEmotion},
		{"Differentiator", brief.Differentiator},
	}
	for _, o := range optional {
		if o.value != "" {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", o.label, o.value))
		}
	}
	prompt.WriteString("\n")
}

func writeDraft(prompt *strings.Builder, title string, draft models.DraftOutput) {
	prompt.WriteString(fmt.Sprintf("## %s\n\n", title))
	if draft.Hook != "" {
		prompt.WriteString(fmt.Sprintf("Hook: %s\n\n", draft.Hook))
	}
	prompt.WriteString(draft.Body + "\n\n")
	if draft.CallToAction != "" {
		prompt.WriteString(fmt.Sprintf("CTA: %s\n", draft.CallToAction))
	}
	if len(draft.Hashtags) > 0 {
		prompt.WriteString(fmt.Sprintf("Hashtags: %s\n", strings.Join(draft.Hashtags, " ")))
	}
	prompt.WriteString("\n")
}
