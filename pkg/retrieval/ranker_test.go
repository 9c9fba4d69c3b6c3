package retrieval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

func learning(category, insight string, confidence models.ConfidenceTier, weight float64) models.Learning {
	return models.Learning{Category: category, Insight: insight, Confidence: confidence, Weight: weight}
}

func TestScoreLearning(t *testing.T) {
	tests := []struct {
		name  string
		l     models.Learning
		query string
		want  float64
	}{
		{
			name:  "confidence only",
			l:     learning("tone", "Keep it light", models.ConfidenceLow, 0),
			query: "",
			want:  1,
		},
		{
			name:  "overlap plus tier plus weight",
			l:     learning("hooks", "Questions about savings perform well on tiktok", models.ConfidenceHigh, 1.5),
			query: "weekly savings tip for tiktok",
			want:  2 + 3 + 1.5,
		},
		{
			name:  "category tokens count",
			l:     learning("hashtags", "Use three at most", models.ConfidenceMedium, 0),
			query: "hashtags",
			want:  1 + 2,
		},
		{
			name:  "repeated query token counts once",
			l:     learning("cta", "savings savings", models.ConfidenceValidated, 0),
			query: "savings savings",
			want:  1 + 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreLearning(tt.l, tt.query), 1e-9)
		})
	}
}

func TestRankLearnings_ValidatedOutranksLow(t *testing.T) {
	low := learning("tone", "Use short sentences", models.ConfidenceLow, 0)
	validated := learning("tone", "Use short sentences", models.ConfidenceValidated, 0)

	ranked := RankLearnings([]models.Learning{low, validated}, "short sentences", 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, models.ConfidenceValidated, ranked[0].Confidence)
	assert.Equal(t, models.ConfidenceLow, ranked[1].Confidence)
}

func TestRankLearnings_RelevanceAndWeight(t *testing.T) {
	items := []models.Learning{
		learning("format", "Carousel posts get saves", models.ConfidenceMedium, 0),
		learning("savings", "Weekly savings tips drive shares", models.ConfidenceMedium, 0),
		learning("timing", "Post before 9am", models.ConfidenceMedium, 5),
	}

	ranked := RankLearnings(items, "weekly savings tip", 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, "timing", ranked[0].Category)  // 0 + 2 + 5
	assert.Equal(t, "savings", ranked[1].Category) // 2 + 2 + 0
	assert.Equal(t, "format", ranked[2].Category)  // 0 + 2 + 0
}

func TestRankLearnings_StableAndTruncated(t *testing.T) {
	items := []models.Learning{
		learning("a", "same", models.ConfidenceLow, 0),
		learning("b", "same", models.ConfidenceLow, 0),
		learning("c", "same", models.ConfidenceLow, 0),
	}

	ranked := RankLearnings(items, "unrelated", 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Category)
	assert.Equal(t, "b", ranked[1].Category)
}

func TestRankLearnings_PoolIsCapped(t *testing.T) {
	items := make([]models.Learning, 0, DefaultLearningPool+1)
	for i := 0; i < DefaultLearningPool; i++ {
		items = append(items, learning(fmt.Sprintf("c%d", i), "insight", models.ConfidenceLow, 0))
	}
	items = append(items, learning("stale", "insight", models.ConfidenceValidated, 100))

	ranked := RankLearnings(items, "", 5)

	for _, l := range ranked {
		assert.NotEqual(t, "stale", l.Category)
	}
}

func TestRankLearnings_EmptyInputs(t *testing.T) {
	assert.Empty(t, RankLearnings(nil, "query", 5))
	assert.Empty(t, RankLearnings([]models.Learning{learning("a", "b", models.ConfidenceLow, 0)}, "query", 0))
}
