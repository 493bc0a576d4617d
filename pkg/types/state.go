package types

import "time"

// IndexState is the persisted incremental-indexing state: the set of known
// files with their content hashes, plus the identity of the embedding model
// the stored vectors came from.
//
// Invariant: when the active provider's model name differs from
// EmbeddingModel, the whole index must be invalidated and rebuilt. Vectors
// from different embedding spaces cannot be compared.
type IndexState struct {
	Files          map[string]string `json:"files"` // relative path -> sha256 hex
	LastFullIndex  *time.Time        `json:"last_full_index"`
	EmbeddingModel string            `json:"embedding_model"`
}

// NewIndexState returns an empty state.
func NewIndexState() *IndexState {
	return &IndexState{Files: make(map[string]string)}
}

// Hash returns the recorded content hash for a relative path.
func (s *IndexState) Hash(relPath string) (string, bool) {
	h, ok := s.Files[relPath]
	return h, ok
}

// SetHash records the content hash for a relative path.
func (s *IndexState) SetHash(relPath, hash string) {
	if s.Files == nil {
		s.Files = make(map[string]string)
	}
	s.Files[relPath] = hash
}

// Remove forgets a relative path.
func (s *IndexState) Remove(relPath string) {
	delete(s.Files, relPath)
}

// Reset drops all recorded files and the model identity.
func (s *IndexState) Reset() {
	s.Files = make(map[string]string)
	s.LastFullIndex = nil
	s.EmbeddingModel = ""
}

// IndexStats summarizes one indexing pass. The Total* fields are index-wide
// counts after the pass, not per-pass deltas: a pass that changes nothing
// reports the same totals as the pass that built the index.
type IndexStats struct {
	TotalDocuments  int
	TotalChunks     int
	TotalTokens     int
	IndexedFiles    int
	SkippedFiles    int
	DeletedFiles    int
	FailedFiles     int
	ByType          map[DocumentType]int
	Duration        time.Duration
	ErrorMessages   []string
	FullReindex     bool
	EmbeddingCalls  int
	EmbeddingModel  string
	VectorStoreSize int
}
