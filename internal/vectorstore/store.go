// Package vectorstore provides pluggable chunk storage with similarity
// search. Three interchangeable backends implement one contract: a
// persistent SQLite store (default), a disk-resident flat store using
// normalized inner product, and an exact in-memory store for tests and
// small corpora.
package vectorstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/raglite/raglite/internal/config"
	"github.com/raglite/raglite/pkg/types"
)

// Match is one similarity hit, sorted by the store in descending score
// order. Scores are cosine similarity clamped to [0,1].
type Match struct {
	ChunkID string
	Score   float64
}

// Stats summarizes store contents.
type Stats struct {
	Backend        string
	TotalChunks    int
	TotalDocuments int
	TotalTokens    int
}

// Store is the vector storage contract. Add rejects chunks without
// embeddings; GetChunk misses return types.ErrNotFound.
type Store interface {
	Add(ctx context.Context, chunks []*types.Chunk) (int, error)
	Search(ctx context.Context, vector []float32, k int, filter *types.SearchFilter) ([]Match, error)
	Delete(ctx context.Context, ids []string) (int, error)
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
	Clear(ctx context.Context) error
	GetChunk(ctx context.Context, id string) (*types.Chunk, error)
	AllChunkIDs(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// New constructs the configured backend. The set is closed; selection
// happens once at construction time.
func New(cfg *config.Config) (Store, error) {
	switch cfg.VectorStore {
	case config.StoreSQLite:
		return NewSQLiteStore(filepath.Join(cfg.IndexDir, "vectors.db"))
	case config.StoreFlat:
		return NewFlatStore(filepath.Join(cfg.IndexDir, "vectors.flat"))
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStore)
	}
}

// Chunk metadata keys used to reconstruct document views at query time.
// Documents are not stored separately by the vector layer.
const (
	MetaPath     = "path"
	MetaAbsPath  = "abs_path"
	MetaDocType  = "doc_type"
	MetaLanguage = "language"
	MetaHash     = "content_hash"
	MetaFileSize = "file_size"
	MetaTags     = "tags"
)

// DocumentFromChunk rebuilds the owning document view from a chunk's
// metadata.
func DocumentFromChunk(c *types.Chunk) *types.Document {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	size, _ := strconv.ParseInt(meta[MetaFileSize], 10, 64)
	var tags []string
	if meta[MetaTags] != "" {
		tags = strings.Split(meta[MetaTags], ",")
	}
	return &types.Document{
		ID:          c.DocumentID,
		Path:        meta[MetaPath],
		AbsPath:     meta[MetaAbsPath],
		Type:        types.DocumentType(meta[MetaDocType]),
		ContentHash: meta[MetaHash],
		FileSize:    size,
		Language:    meta[MetaLanguage],
		Tags:        tags,
	}
}

// matchesFilter applies the filter's document predicates to a chunk via its
// reconstructed document view. Score and budget constraints are the
// retriever's job.
func matchesFilter(c *types.Chunk, filter *types.SearchFilter) bool {
	if filter == nil {
		return true
	}
	return filter.Matches(DocumentFromChunk(c))
}

// copyChunk returns a defensive copy so callers cannot mutate stored data.
func copyChunk(c *types.Chunk) *types.Chunk {
	out := *c
	if c.Embedding != nil {
		out.Embedding = make([]float32, len(c.Embedding))
		copy(out.Embedding, c.Embedding)
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
