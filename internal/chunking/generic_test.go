package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglite/raglite/pkg/types"
)

func TestGenericSingleChunk(t *testing.T) {
	g := NewGeneric(Config{ChunkSize: 100, ChunkOverlap: 10})

	chunks, err := g.Chunk("line one\nline two\nline three\n", "notes.txt", "doc1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, "doc1:0000", c.ID)
	assert.Equal(t, "doc1", c.DocumentID)
	assert.Equal(t, types.ChunkGeneric, c.Type)
	assert.Equal(t, 1, c.StartLine)
	assert.Equal(t, 3, c.EndLine)
	assert.Equal(t, "line one\nline two\nline three", c.Content)
}

func TestGenericSplitsAtTarget(t *testing.T) {
	// 25-token target = 100 chars. Each line is 20 chars (incl newline), so
	// five lines fill a chunk.
	g := NewGeneric(Config{ChunkSize: 25, ChunkOverlap: 0})

	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "line %04d ........\n", i) // 19 chars + newline
	}

	chunks, err := g.Chunk(sb.String(), "big.txt", "doc2")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 5, chunks[0].EndLine)
	assert.Equal(t, 6, chunks[1].StartLine)
	assert.Equal(t, 10, chunks[1].EndLine)
}

func TestGenericOverlapWholeLines(t *testing.T) {
	// Overlap budget of 10 tokens = 40 chars: two 20-char lines carry over.
	g := NewGeneric(Config{ChunkSize: 25, ChunkOverlap: 10})

	var sb strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&sb, "line %04d ........\n", i)
	}

	chunks, err := g.Chunk(sb.String(), "big.txt", "doc3")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	first, second := chunks[0], chunks[1]
	assert.Equal(t, 5, first.EndLine)
	// Second chunk starts two lines back into the first chunk.
	assert.Equal(t, 4, second.StartLine)
	assert.True(t, strings.HasPrefix(second.Content, "line 0003"))
}

func TestGenericOverlapSkipsOversizedLine(t *testing.T) {
	// A single line longer than the overlap budget must contribute zero
	// overlap lines, not a truncated one.
	g := NewGeneric(Config{ChunkSize: 30, ChunkOverlap: 5}) // 20-char budget

	long := strings.Repeat("x", 110)
	content := long + "\nshort line here\nanother short one\n"

	chunks, err := g.Chunk(content, "big.txt", "doc4")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The oversized first line exceeds the 20-char overlap budget, so the
	// second chunk starts fresh on line 2.
	assert.Equal(t, 2, chunks[1].StartLine)
	assert.False(t, strings.Contains(chunks[1].Content, "x"))
}

func TestGenericEmptyContent(t *testing.T) {
	g := NewGeneric(Config{ChunkSize: 100})

	chunks, err := g.Chunk("", "empty.txt", "doc5")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = g.Chunk("\n\n\n", "blank.txt", "doc6")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
