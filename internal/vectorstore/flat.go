package vectorstore

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/raglite/raglite/pkg/types"
)

// FlatStore keeps every chunk in memory with an L2-normalized copy of its
// embedding, so a search is a single inner-product sweep. The whole store is
// persisted to disk as one gob file on every mutation. Raw embeddings are
// retained alongside the normalized matrix so deletion can rebuild it
// without re-embedding.
type FlatStore struct {
	mu   sync.RWMutex
	path string

	chunks map[string]*types.Chunk // raw embeddings preserved
	order  []string                // matrix row i holds chunk order[i]
	matrix [][]float32             // normalized vectors, parallel to order
}

// flatRecord is the on-disk shape. Normalized vectors are derived, not
// persisted.
type flatRecord struct {
	Chunks map[string]*types.Chunk
}

// NewFlatStore opens the flat store at path, loading the prior snapshot if
// one exists.
func NewFlatStore(path string) (*FlatStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &types.InitializationError{Component: "flat store", Err: err}
	}

	s := &FlatStore{path: path, chunks: make(map[string]*types.Chunk)}
	if err := s.load(); err != nil {
		return nil, &types.InitializationError{Component: "flat store", Err: err}
	}
	s.rebuildMatrix()
	return s, nil
}

func (s *FlatStore) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var rec flatRecord
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	if rec.Chunks != nil {
		s.chunks = rec.Chunks
	}
	return nil
}

// persist writes the snapshot atomically via temp file and rename. Caller
// holds the write lock.
func (s *FlatStore) persist() error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(flatRecord{Chunks: s.chunks}); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

// rebuildMatrix recomputes the normalized search matrix from the raw
// embeddings. Caller holds the write lock (or is the constructor).
func (s *FlatStore) rebuildMatrix() {
	s.order = make([]string, 0, len(s.chunks))
	s.matrix = make([][]float32, 0, len(s.chunks))
	for id, c := range s.chunks {
		s.order = append(s.order, id)
		s.matrix = append(s.matrix, normalizeVector(c.Embedding))
	}
}

// Add implements Store.
func (s *FlatStore) Add(_ context.Context, chunks []*types.Chunk) (int, error) {
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
	s.rebuildMatrix()
	if err := s.persist(); err != nil {
		return 0, fmt.Errorf("persist flat store: %w", err)
	}
	return len(chunks), nil
}

// Search implements Store. Normalized vectors make the inner product equal
// to cosine similarity.
func (s *FlatStore) Search(_ context.Context, vector []float32, k int, filter *types.SearchFilter) ([]Match, error) {
	query := normalizeVector(vector)

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]candidate, 0, len(s.order))
	for i, id := range s.order {
		if filter != nil && !matchesFilter(s.chunks[id], filter) {
			continue
		}
		candidates = append(candidates, candidate{id: id, score: dotProduct(query, s.matrix[i])})
	}
	return topK(candidates, k), nil
}

// Delete implements Store. The normalized matrix is rebuilt from the
// retained raw embeddings of the survivors.
func (s *FlatStore) Delete(_ context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.chunks[id]; ok {
			delete(s.chunks, id)
			deleted++
		}
	}
	if deleted > 0 {
		s.rebuildMatrix()
		if err := s.persist(); err != nil {
			return deleted, fmt.Errorf("persist flat store: %w", err)
		}
	}
	return deleted, nil
}

// DeleteByDocument implements Store.
func (s *FlatStore) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, c := range s.chunks {
		if c.DocumentID == documentID {
			delete(s.chunks, id)
			deleted++
		}
	}
	if deleted > 0 {
		s.rebuildMatrix()
		if err := s.persist(); err != nil {
			return deleted, fmt.Errorf("persist flat store: %w", err)
		}
	}
	return deleted, nil
}

// Clear implements Store.
func (s *FlatStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = make(map[string]*types.Chunk)
	s.rebuildMatrix()
	return s.persist()
}

// GetChunk implements Store.
func (s *FlatStore) GetChunk(_ context.Context, id string) (*types.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chunks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return copyChunk(c), nil
}

// AllChunkIDs implements Store.
func (s *FlatStore) AllChunkIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	return ids, nil
}

// Stats implements Store.
func (s *FlatStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make(map[string]bool)
	tokens := 0
	for _, c := range s.chunks {
		docs[c.DocumentID] = true
		tokens += c.TokenCount
	}
	return &Stats{
		Backend:        "flat",
		TotalChunks:    len(s.chunks),
		TotalDocuments: len(docs),
		TotalTokens:    tokens,
	}, nil
}

// Close implements Store.
func (s *FlatStore) Close() error { return nil }
