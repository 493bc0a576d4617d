package embedding

import (
	"context"
	"crypto/sha256"
	"sync/atomic"
)

// MockDimension is the vector length the mock produces.
const MockDimension = 256

// MockProvider produces deterministic, hash-derived unit vectors. Identical
// text always yields an identical vector, so tests get reproducible
// similarity scores (self-similarity is exactly 1.0). The provider also
// counts its calls for assertions about incremental-indexing behavior.
type MockProvider struct {
	embedCalls int64
	batchCalls int64
}

// NewMockProvider creates the deterministic test provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Embed implements Provider.
func (m *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	atomic.AddInt64(&m.embedCalls, 1)
	return deriveVector(text), nil
}

// EmbedBatch implements Provider.
func (m *MockProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}
	atomic.AddInt64(&m.batchCalls, 1)

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deriveVector(text)
	}
	return vectors, nil
}

// deriveVector expands the text's SHA-256 digest with hash chaining until
// the dimension is filled, then normalizes to unit length.
func deriveVector(text string) []float32 {
	raw := make([]float32, 0, MockDimension)
	sum := sha256.Sum256([]byte(text))
	for len(raw) < MockDimension {
		for _, b := range sum {
			if len(raw) == MockDimension {
				break
			}
			raw = append(raw, float32(b)/255.0-0.5)
		}
		sum = sha256.Sum256(sum[:])
	}
	return Normalize(raw)
}

// Dimension implements Provider.
func (m *MockProvider) Dimension() int { return MockDimension }

// ModelName implements Provider.
func (m *MockProvider) ModelName() string { return "mock/deterministic" }

// Close implements Provider.
func (m *MockProvider) Close() error { return nil }

// EmbedCalls returns how many single-text embeds have run.
func (m *MockProvider) EmbedCalls() int64 { return atomic.LoadInt64(&m.embedCalls) }

// BatchCalls returns how many batch embeds have run.
func (m *MockProvider) BatchCalls() int64 { return atomic.LoadInt64(&m.batchCalls) }
