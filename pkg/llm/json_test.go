package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain object", `{"hook": "Stop scrolling", "n": 1}`, `{"hook": "Stop scrolling", "n": 1}`},
		{"plain array", `[{"a": 1}, {"a": 2}]`, `[{"a": 1}, {"a": 2}]`},
		{"think tags", "<think>\nconsidering tone\n</think>\n{\"angle\": \"x\"}", `{"angle": "x"}`},
		{"markdown fence", "```json\n{\"body\": \"text\"}\n```", `{"body": "text"}`},
		{"prose before and after", "Here you go:\n{\"body\": \"b\"}\nAnything else?", `{"body": "b"}`},
		{"brackets in strings", `{"body": "use {braces} and [brackets]"}`, `{"body": "use {braces} and [brackets]"}`},
		{"escaped quotes", `{"body": "she said \"save\""}`, `{"body": "she said \"save\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Failures(t *testing.T) {
	for _, input := range []string{"", "plain text with no JSON", `{"unclosed": "object"`} {
		_, err := ExtractJSON(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseJSONResponse_Array(t *testing.T) {
	type item struct {
		ID string `json:"id"`
	}

	result, err := ParseJSONResponse[[]item](`[{"id": "a"}, {"id": "b"}]`)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "a", result[0].ID)
}

func TestParseOrDefault_Valid(t *testing.T) {
	def := models.DraftOutput{Body: "fallback"}
	response := `{"hook": "Save $5 a day", "body": "Skip one coffee.", "cta": "Follow", "hashtags": ["#money", "savings"]}`

	got, err := ParseOrDefault("draft", response, def)
	require.NoError(t, err)
	assert.Equal(t, "Save $5 a day", got.Hook)
	assert.Equal(t, "Skip one coffee.", got.Body)
	assert.Equal(t, []string{"#money", "savings"}, []string(got.Hashtags))
}

func TestParseOrDefault_ReturnsDefault(t *testing.T) {
	def := models.DraftOutput{Body: "fallback"}

	tests := []struct {
		name     string
		response string
	}{
		{"not json", "Here is a great post about saving money."},
		{"wrong type", `{"body": 42}`},
		{"missing required field", `{"hook": "only a hook"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrDefault("draft", tt.response, def)
			require.Error(t, err)
			assert.Equal(t, def, got)
			assert.True(t, errors.Is(err, apperrors.ErrContractParse))

			var contractErr *ContractError
			require.True(t, errors.As(err, &contractErr))
			assert.Equal(t, "draft", contractErr.Contract)
		})
	}
}

func TestParseOrDefault_ScoreRange(t *testing.T) {
	_, err := ParseOrDefault("score", `{"overall": 140, "brand_alignment": 80, "engagement_potential": 80,
		"clarity": 80, "cta_strength": 80, "platform_fit": 80, "reasoning": "too generous"}`, models.ScoreResponse{})
	assert.Error(t, err)

	got, err := ParseOrDefault("score", `{"overall": 85.5, "brand_alignment": 0, "engagement_potential": 70,
		"clarity": 90, "cta_strength": 60, "platform_fit": 75, "reasoning": "clear"}`, models.ScoreResponse{})
	require.NoError(t, err)
	result := got.Result()
	assert.InDelta(t, 85.5, result.Overall, 0.001)
	assert.Equal(t, 0.0, result.BrandAlignment, "an explicit zero is a real score")
}

func TestParseOrDefault_ScoreMissingDimensions(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"reasoning only", `{"reasoning": "looks fine"}`},
		{"overall only", `{"overall": 80, "reasoning": "Clear."}`},
		{"one dimension missing", `{"overall": 80, "brand_alignment": 80, "engagement_potential": 80,
			"clarity": 80, "cta_strength": 80, "reasoning": "no platform fit"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrDefault("score_result", tt.response, models.ScoreResponse{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrContractParse))
		})
	}
}

func TestParseOrDefault_BriefNeedsKeyMessages(t *testing.T) {
	def := models.ContentBrief{Angle: "direct approach"}

	_, err := ParseOrDefault("brief", `{"angle": "myth busting", "key_messages": []}`, def)
	assert.Error(t, err)

	got, err := ParseOrDefault("brief", `{"angle": "myth busting", "key_messages": "one message"}`, def)
	require.NoError(t, err)
	assert.Equal(t, []string{"one message"}, []string(got.KeyMessages))
}
