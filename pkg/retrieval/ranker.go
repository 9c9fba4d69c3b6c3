package retrieval

import (
	"sort"

	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// DefaultLearningPool bounds how many of a tenant's most recently updated
// learnings are considered per query.
const DefaultLearningPool = 100

// ScoreLearning returns the relevance of a learning to the query: distinct
// query tokens found in its category and insight, plus the confidence tier
// weight, plus the learning's own weight.
func ScoreLearning(l models.Learning, query string) float64 {
	return scoreLearning(l, uniqueTokens(query))
}

func scoreLearning(l models.Learning, terms []string) float64 {
	vocabulary := tokenSet(l.Category + " " + l.Insight)

	overlap := 0
	for _, term := range terms {
		if _, ok := vocabulary[term]; ok {
			overlap++
		}
	}
	return float64(overlap) + float64(l.Confidence.Weight()) + l.Weight
}

// RankLearnings orders learnings by ScoreLearning, highest first with ties in
// input order, and returns at most limit of them. The input is expected most
// recent first; anything past DefaultLearningPool is ignored.
func RankLearnings(learnings []models.Learning, query string, limit int) []models.Learning {
	if limit <= 0 || len(learnings) == 0 {
		return []models.Learning{}
	}
	if len(learnings) > DefaultLearningPool {
		learnings = learnings[:DefaultLearningPool]
	}

	terms := uniqueTokens(query)
	type scored struct {
		learning models.Learning
		score    float64
	}
	candidates := make([]scored, len(learnings))
	for i, l := range learnings {
		candidates[i] = scored{learning: l, score: scoreLearning(l, terms)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	ranked := make([]models.Learning, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.learning
	}
	return ranked
}
