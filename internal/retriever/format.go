package retriever

import (
	"fmt"
	"strings"

	"github.com/raglite/raglite/pkg/types"
)

// FormatResultsForContext renders results as a plain text block suitable for
// prepending to a model prompt. Output is deterministic for a given result
// list.
func FormatResultsForContext(query string, results []*types.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Relevant context for: %s\n\n", query)
	for _, res := range results {
		fmt.Fprintf(&b, "`%s` (lines %d-%d, score %.2f):\n",
			res.Document.Path, res.Chunk.StartLine, res.Chunk.EndLine, res.Score)
		b.WriteString("```\n")
		b.WriteString(strings.TrimRight(res.Chunk.Content, "\n"))
		b.WriteString("\n```\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
