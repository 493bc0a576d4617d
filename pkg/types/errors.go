package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy.
var (
	// ErrDisabled is returned when an operation is invoked while the
	// retrieval feature is turned off in configuration.
	ErrDisabled = errors.New("retrieval is disabled in configuration")

	// ErrNotFound is returned by lookups that miss. Callers usually treat
	// this as an empty result rather than a failure.
	ErrNotFound = errors.New("not found")

	// ErrMissingEmbedding is returned when a chunk without an embedding
	// vector is handed to a vector store.
	ErrMissingEmbedding = errors.New("chunk has no embedding")
)

// InitializationError wraps a backend construction failure with the name of
// the component that failed, so the caller gets an actionable message.
type InitializationError struct {
	Component string
	Err       error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Component, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// EmbeddingError wraps an embedding provider failure. During a full index
// pass it aborts only the affected file, never the whole run.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
