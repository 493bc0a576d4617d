// Package retriever answers semantic queries over the vector store: embed
// the query once, over-fetch candidates, re-rank with lexical signals, apply
// score and token-budget constraints, and return ranked results.
package retriever

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/raglite/raglite/internal/config"
	"github.com/raglite/raglite/internal/embedding"
	"github.com/raglite/raglite/internal/logger"
	"github.com/raglite/raglite/internal/vectorstore"
	"github.com/raglite/raglite/pkg/types"
)

const (
	// Over-fetch factor: re-ranking and budget trimming need slack beyond
	// the requested result count.
	candidateMultiplier = 3
	maxCandidates       = 100

	snippetMaxChars = 200

	docCacheSize = 1024
)

// Re-ranking factors. Lexical boosts are small multiplicative nudges on the
// vector score, never enough to promote an unrelated chunk.
const (
	exactMatchBoost   = 1.10
	nameMatchBoost    = 1.05
	longContentDecay  = 0.95
	longContentTokens = 1000
)

// Retriever executes searches. It is stateless apart from a document view
// cache and safe for concurrent use.
type Retriever struct {
	cfg      *config.Config
	provider embedding.Provider
	store    vectorstore.Store
	docCache *lru.Cache[string, *types.Document]
}

// New creates a Retriever.
func New(cfg *config.Config, provider embedding.Provider, store vectorstore.Store) (*Retriever, error) {
	cache, err := lru.New[string, *types.Document](docCacheSize)
	if err != nil {
		return nil, err
	}
	return &Retriever{cfg: cfg, provider: provider, store: store, docCache: cache}, nil
}

// Search runs one retrieval pass. A nil filter applies the configured
// defaults; empty results are a valid outcome, not an error.
func (r *Retriever) Search(ctx context.Context, query string, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	maxResults, minScore, maxTokens := r.limits(filter)

	vector, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	k := maxResults * candidateMultiplier
	if k > maxCandidates {
		k = maxCandidates
	}
	matches, err := r.store.Search(ctx, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	// Greedy acceptance walks matches in vector-store score order: drop
	// below the score floor, stop at the result cap or when the next
	// candidate would blow the token budget. Re-ranking then reorders only
	// the accepted set.
	results := make([]*types.SearchResult, 0, maxResults)
	totalTokens := 0
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		if len(results) >= maxResults {
			break
		}
		chunk, err := r.store.GetChunk(ctx, m.ChunkID)
		if err != nil {
			logger.Debug("candidate %s vanished during search: %v", m.ChunkID, err)
			continue
		}
		if maxTokens > 0 && totalTokens+chunk.TokenCount > maxTokens {
			break
		}
		totalTokens += chunk.TokenCount
		results = append(results, &types.SearchResult{
			Chunk:    chunk,
			Document: r.documentFor(chunk),
			Score:    m.Score,
			Snippet:  makeSnippet(chunk.Content),
		})
	}

	rerank(results, query)

	for i, res := range results {
		res.Rank = i + 1
	}
	logger.Debug("query %q: %d candidates, %d results", query, len(matches), len(results))
	return results, nil
}

// SearchCode restricts results to code documents.
func (r *Retriever) SearchCode(ctx context.Context, query string, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	return r.Search(ctx, query, withDocTypes(filter, types.DocTypeCode))
}

// SearchDocs restricts results to documentation.
func (r *Retriever) SearchDocs(ctx context.Context, query string, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	return r.Search(ctx, query, withDocTypes(filter, types.DocTypeDocumentation))
}

// SearchByType restricts results to the given document types.
func (r *Retriever) SearchByType(ctx context.Context, query string, docTypes []types.DocumentType, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	return r.Search(ctx, query, withDocTypes(filter, docTypes...))
}

func withDocTypes(filter *types.SearchFilter, docTypes ...types.DocumentType) *types.SearchFilter {
	var f types.SearchFilter
	if filter != nil {
		f = *filter
	}
	f.DocumentTypes = docTypes
	return &f
}

// limits resolves effective constraints from the filter with config
// fallbacks.
func (r *Retriever) limits(filter *types.SearchFilter) (maxResults int, minScore float64, maxTokens int) {
	maxResults = r.cfg.MaxResults
	minScore = r.cfg.MinScore
	if filter != nil {
		if filter.MaxResults > 0 {
			maxResults = filter.MaxResults
		}
		if filter.MinScore > 0 {
			minScore = filter.MinScore
		}
		maxTokens = filter.MaxTokens
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	return maxResults, minScore, maxTokens
}

// documentFor reconstructs (and caches) the document view for a chunk.
func (r *Retriever) documentFor(chunk *types.Chunk) *types.Document {
	if doc, ok := r.docCache.Get(chunk.DocumentID); ok {
		return doc
	}
	doc := vectorstore.DocumentFromChunk(chunk)
	r.docCache.Add(chunk.DocumentID, doc)
	return doc
}

func makeSnippet(content string) string {
	s := strings.TrimSpace(content)
	if i := strings.IndexByte(s, '\n'); i >= 0 && i < snippetMaxChars {
		firstLine := strings.TrimSpace(s[:i])
		if firstLine != "" {
			return firstLine
		}
	}
	if len(s) > snippetMaxChars {
		return s[:snippetMaxChars] + "..."
	}
	return s
}
