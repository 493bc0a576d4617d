package chunking

import (
	"strings"

	"github.com/raglite/raglite/pkg/types"
)

// charsPerToken converts the token-unit config into character budgets.
const charsPerToken = 4

// Generic is the sliding-window strategy: it accumulates whole lines into a
// chunk until the character target is exceeded, then starts the next chunk
// seeded with an overlap of whole lines from the previous chunk's tail.
type Generic struct {
	targetChars  int
	overlapChars int
}

// NewGeneric creates the generic splitter from token-unit config.
func NewGeneric(cfg Config) *Generic {
	size := cfg.ChunkSize
	if size <= 0 {
		size = 512
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	return &Generic{
		targetChars:  size * charsPerToken,
		overlapChars: overlap * charsPerToken,
	}
}

// Name implements Strategy.
func (g *Generic) Name() string { return "generic" }

// Chunk implements Strategy.
func (g *Generic) Chunk(content, path, documentID string) ([]*types.Chunk, error) {
	chunks := g.split(content, 1)
	assignIDs(chunks, documentID)
	return chunks, nil
}

// split does the actual windowing. startLine is the absolute 1-indexed line
// number of the first line of content, so callers (the markdown splitter)
// can chunk a slice of a larger document and keep exact spans.
func (g *Generic) split(content string, startLine int) []*types.Chunk {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil
	}

	var chunks []*types.Chunk

	var cur []string
	curChars := 0
	curStart := startLine

	flush := func(endLine int) {
		text := strings.Join(cur, "\n")
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, &types.Chunk{
				Type:       types.ChunkGeneric,
				Content:    text,
				StartLine:  curStart,
				EndLine:    endLine,
				TokenCount: types.EstimateTokens(text),
			})
		}
	}

	for i, line := range lines {
		lineNo := startLine + i
		lineChars := len(line) + 1 // account for the joining newline

		if len(cur) > 0 && curChars+lineChars > g.targetChars {
			flush(lineNo - 1)

			// Seed the next chunk with whole trailing lines of the one just
			// closed, scanning backward until the overlap budget runs out. A
			// single line longer than the budget yields zero overlap lines
			// rather than a miscounted partial line.
			overlap := g.overlapLines(cur)
			cur = append([]string{}, overlap...)
			curChars = 0
			for _, l := range cur {
				curChars += len(l) + 1
			}
			curStart = lineNo - len(overlap)
		}

		cur = append(cur, line)
		curChars += lineChars
	}

	if len(cur) > 0 {
		flush(startLine + len(lines) - 1)
	}

	return chunks
}

// overlapLines returns the trailing whole lines of a closed chunk that fit
// the overlap character budget.
func (g *Generic) overlapLines(lines []string) []string {
	if g.overlapChars <= 0 {
		return nil
	}
	chars := 0
	i := len(lines)
	for i > 0 {
		next := len(lines[i-1]) + 1
		if chars+next > g.overlapChars {
			break
		}
		chars += next
		i--
	}
	return lines[i:]
}
