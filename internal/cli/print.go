package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/raglite/raglite/internal/manager"
	"github.com/raglite/raglite/pkg/types"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	pathColor   = color.New(color.FgGreen)
	scoreColor  = color.New(color.FgYellow)
	dimColor    = color.New(color.Faint)
	errorColor  = color.New(color.FgRed)
)

func printResults(w io.Writer, query string, results []*types.SearchResult) {
	if len(results) == 0 {
		dimColor.Fprintf(w, "no results for %q\n", query)
		return
	}

	headerColor.Fprintf(w, "%d results for %q\n\n", len(results), query)
	for _, res := range results {
		fmt.Fprintf(w, "%2d. ", res.Rank)
		pathColor.Fprintf(w, "%s", res.Document.Path)
		fmt.Fprintf(w, ":%d-%d ", res.Chunk.StartLine, res.Chunk.EndLine)
		scoreColor.Fprintf(w, "(%.2f)", res.Score)
		if res.Chunk.Name != "" {
			dimColor.Fprintf(w, "  %s %s", res.Chunk.Type, res.Chunk.Name)
		}
		fmt.Fprintln(w)
		if res.Snippet != "" {
			dimColor.Fprintf(w, "    %s\n", res.Snippet)
		}
	}
}

func printStats(w io.Writer, stats *types.IndexStats) {
	mode := "incremental"
	if stats.FullReindex {
		mode = "full"
	}
	headerColor.Fprintf(w, "%s index pass finished in %s\n", mode, stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  indexed: %d  skipped: %d  deleted: %d  failed: %d\n",
		stats.IndexedFiles, stats.SkippedFiles, stats.DeletedFiles, stats.FailedFiles)
	fmt.Fprintf(w, "  chunks: %d  tokens: %d  embedding calls: %d (%s)\n",
		stats.TotalChunks, stats.TotalTokens, stats.EmbeddingCalls, stats.EmbeddingModel)
	for docType, n := range stats.ByType {
		dimColor.Fprintf(w, "  %s: %d\n", docType, n)
	}
	for _, msg := range stats.ErrorMessages {
		errorColor.Fprintf(w, "  error: %s\n", msg)
	}
}

func printStatus(w io.Writer, status *manager.Status) {
	if !status.Enabled {
		errorColor.Fprintln(w, "retrieval is disabled in configuration")
		return
	}

	headerColor.Fprintln(w, "raglite index status")
	fmt.Fprintf(w, "  project root:    %s\n", status.ProjectRoot)
	fmt.Fprintf(w, "  store backend:   %s\n", status.StoreBackend)
	fmt.Fprintf(w, "  embedding model: %s\n", status.EmbeddingModel)
	fmt.Fprintf(w, "  indexed files:   %d\n", status.IndexedFiles)
	fmt.Fprintf(w, "  documents:       %d\n", status.TotalDocuments)
	fmt.Fprintf(w, "  chunks:          %d\n", status.TotalChunks)
	fmt.Fprintf(w, "  tokens:          %d\n", status.TotalTokens)
	if status.LastFullIndex != nil {
		fmt.Fprintf(w, "  last full index: %s\n", status.LastFullIndex.Format(time.RFC3339))
	} else {
		dimColor.Fprintln(w, "  last full index: never")
	}
}
