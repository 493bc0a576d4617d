package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDeterministic(t *testing.T) {
	m := NewMockProvider()
	ctx := context.Background()

	a, err := m.Embed(ctx, "hello world")
	require.NoError(t, err)
	b, err := m.Embed(ctx, "hello world")
	require.NoError(t, err)
	c, err := m.Embed(ctx, "something else")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, MockDimension)
}

func TestMockUnitLength(t *testing.T) {
	m := NewMockProvider()
	v, err := m.Embed(context.Background(), "normalize me")
	require.NoError(t, err)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestMockBatchPreservesOrder(t *testing.T) {
	m := NewMockProvider()
	ctx := context.Background()
	texts := []string{"alpha", "beta", "gamma"}

	vectors, err := m.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, text := range texts {
		single, err := m.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i], "batch result %d must match single embed", i)
	}
}

func TestMockRejectsEmpty(t *testing.T) {
	m := NewMockProvider()
	ctx := context.Background()

	_, err := m.Embed(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = m.EmbedBatch(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = m.EmbedBatch(ctx, []string{"ok", ""})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestCacheServesRepeats(t *testing.T) {
	m := NewMockProvider()
	p := WithCache(m, 100)
	ctx := context.Background()

	first, err := p.Embed(ctx, "cached text")
	require.NoError(t, err)
	second, err := p.Embed(ctx, "cached text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), m.EmbedCalls(), "second call must be served from cache")
}

func TestCacheBatchOnlySendsMisses(t *testing.T) {
	m := NewMockProvider()
	p := WithCache(m, 100)
	ctx := context.Background()

	_, err := p.Embed(ctx, "warm")
	require.NoError(t, err)

	vectors, err := p.EmbedBatch(ctx, []string{"warm", "cold"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	warm, err := p.Embed(ctx, "warm")
	require.NoError(t, err)
	assert.Equal(t, warm, vectors[0])
	assert.Equal(t, int64(1), m.BatchCalls())
}

func TestOllamaBatchUsesSingleRequest(t *testing.T) {
	// A file's chunks must cost one round trip, not one per chunk, and the
	// returned embeddings map back to inputs by position.
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		var req struct {
			Input any `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var inputs []string
		switch v := req.Input.(type) {
		case string:
			inputs = []string{v}
		case []any:
			for _, item := range v {
				inputs = append(inputs, item.(string))
			}
		}
		embeddings := make([][]float32, len(inputs))
		for i := range inputs {
			embeddings[i] = []float32{float32(i), 1, 0}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "test-model")
	require.NoError(t, err)

	vectors, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Equal(t, float32(i), v[0], "embedding %d out of position", i)
	}

	// One warmup request plus exactly one batch request.
	assert.Equal(t, int64(2), atomic.LoadInt64(&requests))
}

func TestOpenAIBatchReordersByIndex(t *testing.T) {
	// Serve the embeddings in reverse order; the provider must re-sort by
	// the returned index field.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Embedding: []float32{float32(i), 0, 0}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", "text-embedding-3-small")
	require.NoError(t, err)
	p.endpoint = srv.URL

	vectors, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, v := range vectors {
		assert.Equal(t, float32(i), v[0], "vector %d out of order", i)
	}
}

func TestOpenAIBatchFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", "")
	require.NoError(t, err)
	p.endpoint = srv.URL

	_, err = p.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err, "a failed batch call must propagate, not return partial results")
}

func TestOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestConcurrentEmbedsSafe(t *testing.T) {
	m := NewMockProvider()
	p := WithCache(m, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Embed(ctx, "same text from many goroutines")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
