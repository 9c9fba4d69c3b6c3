package retrieval

import (
	"sort"
	"strings"

	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

// titleMatchWeight is the score added when a query token appears in the
// source title, versus 1 for a body match.
const titleMatchWeight = 2

// Search scores chunks by query-token overlap and returns the best limit
// results, highest score first with ties kept in corpus order.
//
// A token counts once per chunk if it occurs as a substring of the body and
// twice more if it occurs in the title. Chunks scoring zero are dropped.
// A query with no usable tokens scores the first chunk of every document 1
// and everything else 0, and keeps all chunks, so vague queries still return
// an overview of the corpus.
func Search(chunks []models.KnowledgeChunk, query string, limit int) []models.SearchResult {
	if limit <= 0 || len(chunks) == 0 {
		return []models.SearchResult{}
	}

	terms := uniqueTokens(query)
	results := make([]models.SearchResult, 0, len(chunks))

	if len(terms) == 0 {
		for _, c := range chunks {
			score := 0
			if c.Index == 0 {
				score = 1
			}
			results = append(results, models.SearchResult{Chunk: c, Score: score})
		}
	} else {
		for _, c := range chunks {
			if score := scoreChunk(c, terms); score > 0 {
				results = append(results, models.SearchResult{Chunk: c, Score: score})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func scoreChunk(c models.KnowledgeChunk, terms []string) int {
	body := strings.ToLower(c.Text)
	title := strings.ToLower(c.SourceTitle)

	score := 0
	for _, term := range terms {
		if strings.Contains(body, term) {
			score++
		}
		if strings.Contains(title, term) {
			score += titleMatchWeight
		}
	}
	return score
}
