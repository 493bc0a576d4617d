package types

import (
	"errors"
	"fmt"
)

// ChunkType describes the structural origin of a chunk.
type ChunkType string

const (
	ChunkFunction  ChunkType = "function"
	ChunkClass     ChunkType = "class"
	ChunkModule    ChunkType = "module"
	ChunkSection   ChunkType = "section"
	ChunkParagraph ChunkType = "paragraph"
	ChunkGeneric   ChunkType = "generic"
)

// Chunk is a contiguous span of a document's content, the atomic unit of
// embedding and retrieval. Chunks belonging to a document are always deleted
// and recreated together; there are no partial chunk updates.
type Chunk struct {
	ID         string
	DocumentID string
	Type       ChunkType
	Content    string
	StartLine  int // 1-indexed, inclusive
	EndLine    int // 1-indexed, inclusive
	TokenCount int
	Embedding  []float32 // Set once at creation, immutable afterwards
	Name       string    // Optional: function/class/section title
	Metadata   map[string]string
}

// ChunkID builds the deterministic chunk ID for the n-th chunk of a document.
// Determinism matters: re-chunking an unchanged file must reproduce the same
// IDs so untouched documents keep byte-identical chunks across index passes.
func ChunkID(documentID string, n int) string {
	return fmt.Sprintf("%s:%04d", documentID, n)
}

// EstimateTokens estimates the token count of a text using the chars/4
// heuristic, never returning less than 1 for non-empty input.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Validate checks chunk internal consistency.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	if c.DocumentID == "" {
		return errors.New("document ID is required")
	}
	if c.TokenCount < 0 {
		return errors.New("token count cannot be negative")
	}
	return nil
}
