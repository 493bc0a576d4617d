// Package chunking splits document content into chunks for embedding.
//
// Three strategies implement one contract: a generic sliding-window
// splitter, a structure-aware code splitter built on per-language parsers,
// and a section-based splitter for markdown documents. Strategy selection is
// by file extension.
package chunking

import (
	"path/filepath"
	"strings"

	"github.com/raglite/raglite/pkg/types"
)

// Strategy is the common chunking contract. Implementations return chunks
// with exact 1-indexed inclusive line spans and deterministic IDs derived
// from the document ID.
type Strategy interface {
	Chunk(content, path, documentID string) ([]*types.Chunk, error)
	Name() string
}

// Config carries the token-unit sizing knobs shared by the strategies.
type Config struct {
	ChunkSize    int // Target chunk size in tokens
	ChunkOverlap int // Overlap between consecutive generic chunks, in tokens
}

// Selector picks a strategy per file.
type Selector struct {
	generic  *Generic
	code     *Code
	markdown *Markdown
}

// NewSelector builds the fixed strategy set from config.
func NewSelector(cfg Config) *Selector {
	generic := NewGeneric(cfg)
	return &Selector{
		generic:  generic,
		code:     NewCode(generic),
		markdown: NewMarkdown(cfg, generic),
	}
}

// ForPath returns the strategy for a file path: structural for code files
// with a supported parser, section-based for markdown, generic otherwise.
func (s *Selector) ForPath(path string) Strategy {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case s.code.Supports(ext):
		return s.code
	case ext == ".md" || ext == ".markdown":
		return s.markdown
	default:
		return s.generic
	}
}

// assignIDs stamps deterministic sequential IDs and the owning document onto
// a chunk list.
func assignIDs(chunks []*types.Chunk, documentID string) {
	for i, c := range chunks {
		c.ID = types.ChunkID(documentID, i)
		c.DocumentID = documentID
	}
}

// splitLines splits content preserving the convention that line N of the
// file is lines[N-1]. A trailing newline does not produce a phantom line.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
