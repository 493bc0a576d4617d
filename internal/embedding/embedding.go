// Package embedding provides pluggable text-to-vector providers: a local
// Ollama backend, a remote OpenAI backend, and a deterministic mock for
// tests. The provider set is closed and selected from configuration.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// Common errors.
var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrEmptyBatch      = errors.New("batch contains no texts")
	ErrProviderFailed  = errors.New("embedding provider failed")
	ErrUnknownProvider = errors.New("unknown embedding provider")
)

// Provider is the embedding contract. EmbedBatch preserves input order:
// result[i] is always the vector for texts[i], even when a remote backend
// returns results out of order.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector length this provider produces.
	Dimension() int

	// ModelName identifies the embedding space. Vectors from different
	// model names are never comparable; the indexer rebuilds the whole
	// index when this changes.
	ModelName() string

	Close() error
}

func validateBatch(texts []string) error {
	if len(texts) == 0 {
		return ErrEmptyBatch
	}
	for i, t := range texts {
		if t == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrEmptyText, i)
		}
	}
	return nil
}

// ContentHash computes the SHA-256 hex digest used as the cache key.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Normalize scales a vector to unit L2 length. Callers of inner-product
// backends must normalize both stored and query vectors.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = val / norm
	}
	return out
}
