package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// DocumentType classifies an indexed file.
type DocumentType string

const (
	DocTypeCode          DocumentType = "code"
	DocTypeDocumentation DocumentType = "documentation"
	DocTypeConfig        DocumentType = "config"
	DocTypeOther         DocumentType = "other"
)

// Document represents one indexed file. Identity is the relative path; the
// ID is derived from it and stays stable across re-indexing. A document is
// replaced wholesale when its content hash changes, never patched.
type Document struct {
	ID          string
	Path        string // Relative to the project root
	AbsPath     string
	Type        DocumentType
	ContentHash string // SHA-256 hex of raw content
	FileSize    int64
	Language    string // Optional, e.g. "go", "python"
	Tags        []string
	Metadata    map[string]string
}

// DocumentID derives the stable document ID from a relative path.
func DocumentID(relPath string) string {
	sum := sha256.Sum256([]byte(relPath))
	return hex.EncodeToString(sum[:8])
}
