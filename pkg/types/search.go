package types

// SearchFilter narrows a retrieval query. It is a stateless parameter
// object; the zero value matches everything.
type SearchFilter struct {
	DocumentTypes []DocumentType
	Languages     []string
	Tags          []string
	MinScore      float64 // In [0,1]; candidates below are dropped
	MaxResults    int
	MaxTokens     int // Optional total token budget across results; 0 = unlimited
}

// Matches reports whether a document passes the filter's predicates.
// Score and budget constraints are applied by the retriever, not here.
func (f *SearchFilter) Matches(doc *Document) bool {
	if f == nil {
		return true
	}
	if len(f.DocumentTypes) > 0 && !containsDocType(f.DocumentTypes, doc.Type) {
		return false
	}
	if len(f.Languages) > 0 && !containsString(f.Languages, doc.Language) {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			if containsString(doc.Tags, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsDocType(list []DocumentType, v DocumentType) bool {
	for _, t := range list {
		if t == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// SearchResult is one ranked retrieval hit. Results are ephemeral and never
// persisted; the Document view is reconstructed from chunk metadata.
type SearchResult struct {
	Chunk    *Chunk
	Document *Document
	Score    float64 // In [0,1]
	Rank     int     // 1-indexed
	Snippet  string
}
