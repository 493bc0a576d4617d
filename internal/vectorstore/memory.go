package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/raglite/raglite/pkg/types"
)

// MemoryStore keeps chunks in a map and computes exact cosine similarity
// per query. O(n) per search; intended for tests and small corpora.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]*types.Chunk
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]*types.Chunk)}
}

// Add implements Store.
func (s *MemoryStore) Add(_ context.Context, chunks []*types.Chunk) (int, error) {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return 0, fmt.Errorf("chunk %s: %w", c.ID, types.ErrMissingEmbedding)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = copyChunk(c)
	}
	return len(chunks), nil
}

// Search implements Store.
func (s *MemoryStore) Search(_ context.Context, vector []float32, k int, filter *types.SearchFilter) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]candidate, 0, len(s.chunks))
	for id, c := range s.chunks {
		if !matchesFilter(c, filter) {
			continue
		}
		candidates = append(candidates, candidate{id: id, score: cosineSimilarity(vector, c.Embedding)})
	}
	return topK(candidates, k), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.chunks[id]; ok {
			delete(s.chunks, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteByDocument implements Store.
func (s *MemoryStore) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, c := range s.chunks {
		if c.DocumentID == documentID {
			delete(s.chunks, id)
			deleted++
		}
	}
	return deleted, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]*types.Chunk)
	return nil
}

// GetChunk implements Store.
func (s *MemoryStore) GetChunk(_ context.Context, id string) (*types.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chunks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return copyChunk(c), nil
}

// AllChunkIDs implements Store.
func (s *MemoryStore) AllChunkIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	return ids, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make(map[string]bool)
	tokens := 0
	for _, c := range s.chunks {
		docs[c.DocumentID] = true
		tokens += c.TokenCount
	}
	return &Stats{
		Backend:        "memory",
		TotalChunks:    len(s.chunks),
		TotalDocuments: len(docs),
		TotalTokens:    tokens,
	}, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
