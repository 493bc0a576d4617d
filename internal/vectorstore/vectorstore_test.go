package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglite/raglite/pkg/types"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStore(filepath.Join(dir, "vectors.db"))
	require.NoError(t, err)
	flat, err := NewFlatStore(filepath.Join(dir, "vectors.flat"))
	require.NoError(t, err)

	stores := map[string]Store{
		"sqlite": sqlite,
		"flat":   flat,
		"memory": NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func testChunk(docID string, n int, embedding []float32) *types.Chunk {
	return &types.Chunk{
		ID:         types.ChunkID(docID, n),
		DocumentID: docID,
		Type:       types.ChunkFunction,
		Content:    "func Example() {}",
		StartLine:  1,
		EndLine:    3,
		TokenCount: 5,
		Embedding:  embedding,
		Metadata: map[string]string{
			MetaPath:     "pkg/example.go",
			MetaDocType:  string(types.DocTypeCode),
			MetaLanguage: "go",
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			chunk := testChunk("doc1", 0, []float32{1, 0, 0})
			added, err := store.Add(ctx, []*types.Chunk{chunk})
			require.NoError(t, err)
			assert.Equal(t, 1, added)

			got, err := store.GetChunk(ctx, chunk.ID)
			require.NoError(t, err)
			assert.Equal(t, chunk.ID, got.ID)
			assert.Equal(t, chunk.Content, got.Content)
			assert.Equal(t, chunk.Embedding, got.Embedding)
			assert.Equal(t, chunk.Metadata[MetaPath], got.Metadata[MetaPath])

			_, err = store.GetChunk(ctx, "doc1:9999")
			assert.ErrorIs(t, err, types.ErrNotFound)
		})
	}
}

func TestStoreRejectsMissingEmbedding(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Add(ctx, []*types.Chunk{testChunk("doc1", 0, nil)})
			assert.ErrorIs(t, err, types.ErrMissingEmbedding)
		})
	}
}

func TestStoreIdenticalVectorRanksFirst(t *testing.T) {
	ctx := context.Background()
	query := []float32{0.6, 0.8, 0}

	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			chunks := []*types.Chunk{
				testChunk("doc1", 0, []float32{0.6, 0.8, 0}), // identical to query
				testChunk("doc1", 1, []float32{0, 1, 0}),
				testChunk("doc1", 2, []float32{0, 0, 1}), // orthogonal
			}
			_, err := store.Add(ctx, chunks)
			require.NoError(t, err)

			matches, err := store.Search(ctx, query, 10, nil)
			require.NoError(t, err)
			require.NotEmpty(t, matches)

			assert.Equal(t, chunks[0].ID, matches[0].ChunkID)
			assert.InDelta(t, 1.0, matches[0].Score, 1e-5)
			for _, m := range matches {
				assert.GreaterOrEqual(t, m.Score, 0.0)
				assert.LessOrEqual(t, m.Score, 1.0)
			}
			for i := 1; i < len(matches); i++ {
				assert.LessOrEqual(t, matches[i].Score, matches[i-1].Score, "matches must be sorted descending")
			}
		})
	}
}

func TestStoreSearchRespectsK(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			var chunks []*types.Chunk
			for i := 0; i < 5; i++ {
				chunks = append(chunks, testChunk("doc1", i, []float32{1, float32(i), 0}))
			}
			_, err := store.Add(ctx, chunks)
			require.NoError(t, err)

			matches, err := store.Search(ctx, []float32{1, 0, 0}, 2, nil)
			require.NoError(t, err)
			assert.Len(t, matches, 2)
		})
	}
}

func TestStoreSearchFilter(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			code := testChunk("doc1", 0, []float32{1, 0, 0})
			doc := testChunk("doc2", 0, []float32{1, 0, 0})
			doc.Metadata[MetaDocType] = string(types.DocTypeDocumentation)
			doc.Metadata[MetaLanguage] = "markdown"

			_, err := store.Add(ctx, []*types.Chunk{code, doc})
			require.NoError(t, err)

			filter := &types.SearchFilter{
				DocumentTypes: []types.DocumentType{types.DocTypeDocumentation},
			}
			matches, err := store.Search(ctx, []float32{1, 0, 0}, 10, filter)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, doc.ID, matches[0].ChunkID)
		})
	}
}

func TestStoreDeleteByDocument(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Add(ctx, []*types.Chunk{
				testChunk("doc1", 0, []float32{1, 0, 0}),
				testChunk("doc1", 1, []float32{0, 1, 0}),
				testChunk("doc2", 0, []float32{0, 0, 1}),
			})
			require.NoError(t, err)

			deleted, err := store.DeleteByDocument(ctx, "doc1")
			require.NoError(t, err)
			assert.Equal(t, 2, deleted)

			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, stats.TotalChunks)
			assert.Equal(t, 1, stats.TotalDocuments)

			matches, err := store.Search(ctx, []float32{1, 0, 0}, 10, nil)
			require.NoError(t, err)
			for _, m := range matches {
				assert.NotContains(t, m.ChunkID, "doc1:")
			}
		})
	}
}

func TestStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			a := testChunk("doc1", 0, []float32{1, 0, 0})
			b := testChunk("doc1", 1, []float32{0, 1, 0})
			_, err := store.Add(ctx, []*types.Chunk{a, b})
			require.NoError(t, err)

			deleted, err := store.Delete(ctx, []string{a.ID, "doc9:0000"})
			require.NoError(t, err)
			assert.Equal(t, 1, deleted)

			ids, err := store.AllChunkIDs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{b.ID}, ids)

			require.NoError(t, store.Clear(ctx))
			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Zero(t, stats.TotalChunks)
		})
	}
}

func TestStoreAddOverwritesByID(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			first := testChunk("doc1", 0, []float32{1, 0, 0})
			_, err := store.Add(ctx, []*types.Chunk{first})
			require.NoError(t, err)

			second := testChunk("doc1", 0, []float32{0, 1, 0})
			second.Content = "updated"
			_, err = store.Add(ctx, []*types.Chunk{second})
			require.NoError(t, err)

			got, err := store.GetChunk(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "updated", got.Content)

			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, stats.TotalChunks)
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	chunk := testChunk("doc1", 0, []float32{1, 2, 3})
	_, err = store.Add(ctx, []*types.Chunk{chunk})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.Embedding, got.Embedding)
}

func TestFlatSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.flat")

	store, err := NewFlatStore(path)
	require.NoError(t, err)
	_, err = store.Add(ctx, []*types.Chunk{
		testChunk("doc1", 0, []float32{0.6, 0.8, 0}),
		testChunk("doc2", 0, []float32{0, 0, 1}),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewFlatStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	matches, err := reopened.Search(ctx, []float32{0.6, 0.8, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, types.ChunkID("doc1", 0), matches[0].ChunkID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-5)
}

func TestFlatSearchAfterDelete(t *testing.T) {
	// Deleting must rebuild the normalized matrix from retained raw vectors,
	// not leave a stale row behind.
	ctx := context.Background()
	store, err := NewFlatStore(filepath.Join(t.TempDir(), "vectors.flat"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	best := testChunk("doc1", 0, []float32{1, 0, 0})
	rest := testChunk("doc2", 0, []float32{0.9, 0.1, 0})
	_, err = store.Add(ctx, []*types.Chunk{best, rest})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, []string{best.ID})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, rest.ID, matches[0].ChunkID)
	assert.Greater(t, matches[0].Score, 0.9)
}

func TestDocumentFromChunk(t *testing.T) {
	c := testChunk("doc1", 0, []float32{1})
	c.Metadata[MetaAbsPath] = "/repo/pkg/example.go"
	c.Metadata[MetaHash] = "abc123"
	c.Metadata[MetaFileSize] = "2048"
	c.Metadata[MetaTags] = "core,api"

	doc := DocumentFromChunk(c)
	assert.Equal(t, "doc1", doc.ID)
	assert.Equal(t, "pkg/example.go", doc.Path)
	assert.Equal(t, "/repo/pkg/example.go", doc.AbsPath)
	assert.Equal(t, types.DocTypeCode, doc.Type)
	assert.Equal(t, "go", doc.Language)
	assert.Equal(t, "abc123", doc.ContentHash)
	assert.Equal(t, int64(2048), doc.FileSize)
	assert.Equal(t, []string{"core", "api"}, doc.Tags)
}

func TestVectorSerializationRoundTrip(t *testing.T) {
	v := []float32{0.1, -2.5, 3.14159, 0}
	assert.Equal(t, v, deserializeVector(serializeVector(v)))
}

func TestTopKDeterministicTieBreak(t *testing.T) {
	candidates := []candidate{
		{id: "b", score: 0.5},
		{id: "a", score: 0.5},
		{id: "c", score: 0.9},
	}
	matches := topK(candidates, 3)
	require.Len(t, matches, 3)
	assert.Equal(t, "c", matches[0].ChunkID)
	assert.Equal(t, "a", matches[1].ChunkID)
	assert.Equal(t, "b", matches[2].ChunkID)
}
