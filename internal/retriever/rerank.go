package retriever

import (
	"sort"
	"strings"

	"github.com/raglite/raglite/pkg/types"
)

// rerank adjusts vector scores with lexical signals and re-sorts. Scores
// stay in [0,1] afterward; ties break on chunk ID for determinism.
func rerank(results []*types.SearchResult, query string) {
	queryLower := strings.ToLower(query)
	terms := strings.Fields(queryLower)

	for _, res := range results {
		score := res.Score

		contentLower := strings.ToLower(res.Chunk.Content)
		if strings.Contains(contentLower, queryLower) {
			score *= exactMatchBoost
		}
		if res.Chunk.Name != "" && nameMatchesTerm(res.Chunk.Name, terms) {
			score *= nameMatchBoost
		}
		if res.Chunk.TokenCount > longContentTokens {
			score *= longContentDecay
		}

		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		res.Score = score
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

// nameMatchesTerm reports whether any query term appears in the chunk's
// declaration or section name.
func nameMatchesTerm(name string, terms []string) bool {
	nameLower := strings.ToLower(name)
	for _, term := range terms {
		if strings.Contains(nameLower, term) {
			return true
		}
	}
	return false
}
