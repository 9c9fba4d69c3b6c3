package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
)

func testRouterModels() map[Tier]ModelSpec {
	return map[Tier]ModelSpec{
		TierStrategic: {Provider: ProviderAnthropic, Model: "claude-opus"},
		TierCreative:  {Provider: ProviderOpenAI, Model: "gpt-4o"},
		TierBulk:      {Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want TaskType
	}{
		{"Write a campaign for spring launch", TaskCampaign},
		{"Analyze last month", TaskAnalysis},
		{"Give me a performance report", TaskAnalysis},
		{"Build a content strategy", TaskStrategy},
		{"plan next week", TaskStrategy},
		{"Please review this caption", TaskCritique},
		{"score this post", TaskScoring},
		{"suggest hashtags", TaskHashtags},
		{"rewrite this in French", TaskReformat},
		{"summarize the thread", TaskReformat},
		{"write a post about savings", TaskDraft},
		{"draft an email", TaskDraft},
		{"hello there", TaskChat},
		{"generate hashtags for my reel", TaskHashtags},
		{"corporate blog post", TaskDraft},
		{"preview this", TaskChat},
		{"an accurate and moderate tone", TaskChat},
		{"postpone the launch", TaskChat},
		{"facts about the planet", TaskChat},
		{"rate this caption", TaskScoring},
		{"Reviewing my captions, please", TaskCritique},
		{"translate to Spanish", TaskReformat},
		{"", TaskChat},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassify_HashtagRequestRoutesToBulkTier(t *testing.T) {
	task := Classify("generate hashtags for my reel")
	assert.Equal(t, TaskHashtags, task)
	assert.Equal(t, TierBulk, TierFor(task))
}

func TestClassify_CampaignBeatsWrite(t *testing.T) {
	assert.Equal(t, TaskCampaign, Classify("write posts for the campaign"))
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		task TaskType
		want Tier
	}{
		{TaskCampaign, TierStrategic},
		{TaskAnalysis, TierStrategic},
		{TaskStrategy, TierStrategic},
		{TaskCritique, TierStrategic},
		{TaskDraft, TierCreative},
		{TaskChat, TierCreative},
		{TaskScoring, TierCreative},
		{TaskHashtags, TierBulk},
		{TaskReformat, TierBulk},
	}

	for _, tt := range tests {
		t.Run(tt.task.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TierFor(tt.task))
		})
	}
}

func TestRouter_Route(t *testing.T) {
	router, err := NewRouter(testRouterModels())
	require.NoError(t, err)

	handle := router.Route(TaskStrategy)
	assert.Equal(t, ModelHandle{Task: TaskStrategy, Tier: TierStrategic, Provider: ProviderAnthropic, Model: "claude-opus"}, handle)

	handle = router.Route(TaskHashtags)
	assert.Equal(t, "gpt-4o-mini", handle.Model)

	handle = router.RouteText("draft a linkedin post")
	assert.Equal(t, TaskDraft, handle.Task)
	assert.Equal(t, "gpt-4o", handle.Model)
}

func TestNewRouter_MissingTier(t *testing.T) {
	models := testRouterModels()
	delete(models, TierBulk)

	_, err := NewRouter(models)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	assert.Contains(t, err.Error(), "llm.tiers.bulk")
}

func TestNewRouter_UnknownProvider(t *testing.T) {
	models := testRouterModels()
	models[TierCreative] = ModelSpec{Provider: "gemini", Model: "x"}

	_, err := NewRouter(models)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" OpenAI ")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p)

	_, err = ParseProvider("")
	assert.Error(t, err)
}
