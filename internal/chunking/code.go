package chunking

import (
	"strings"

	"github.com/raglite/raglite/pkg/types"
)

const (
	// minDeclTokens is the noise floor: declarations estimating fewer
	// tokens (trivial getters and the like) are dropped outright.
	minDeclTokens = 10

	// minModuleTokens is the floor for the leftover module chunk.
	minModuleTokens = 5
)

// declaration is one top-level code construct found by a language parser.
// StartLine points at the first doc-comment/annotation line when present.
type declaration struct {
	Name      string
	Kind      types.ChunkType // ChunkFunction or ChunkClass
	StartLine int             // 1-indexed, inclusive
	EndLine   int             // 1-indexed, inclusive
}

// languageParser turns source into declaration spans. Keeping the parse step
// behind this interface keeps coverage tracking and chunk emission
// language-agnostic.
type languageParser interface {
	Parse(content string) ([]declaration, error)
}

// Code is the structure-aware strategy. It emits one chunk per top-level
// function/method and class, plus one "module" chunk covering every line not
// claimed by a declaration (imports, constants, top-level statements). On
// any parse failure it falls back entirely to the generic strategy.
type Code struct {
	parsers  map[string]languageParser
	fallback *Generic
}

// NewCode builds the structural chunker with the supported parser set.
func NewCode(fallback *Generic) *Code {
	return &Code{
		parsers: map[string]languageParser{
			".go": &goParser{},
		},
		fallback: fallback,
	}
}

// Name implements Strategy.
func (c *Code) Name() string { return "code" }

// Supports reports whether a parser exists for the extension.
func (c *Code) Supports(ext string) bool {
	_, ok := c.parsers[ext]
	return ok
}

// Chunk implements Strategy.
func (c *Code) Chunk(content, path, documentID string) ([]*types.Chunk, error) {
	ext := strings.ToLower(pathExt(path))
	parser, ok := c.parsers[ext]
	if !ok {
		return c.fallback.Chunk(content, path, documentID)
	}

	decls, err := parser.Parse(content)
	if err != nil {
		return c.fallback.Chunk(content, path, documentID)
	}

	lines := splitLines(content)
	covered := make([]bool, len(lines))
	var chunks []*types.Chunk

	for _, d := range decls {
		start, end := clampSpan(d.StartLine, d.EndLine, len(lines))
		if start == 0 {
			continue
		}

		text := strings.Join(lines[start-1:end], "\n")
		tokens := types.EstimateTokens(text)

		// Claim the lines regardless: a dropped declaration is noise and
		// must not leak into the module chunk either.
		for i := start - 1; i < end; i++ {
			covered[i] = true
		}

		if tokens < minDeclTokens {
			continue
		}

		chunks = append(chunks, &types.Chunk{
			Type:       d.Kind,
			Name:       d.Name,
			Content:    text,
			StartLine:  start,
			EndLine:    end,
			TokenCount: tokens,
		})
	}

	if mod := moduleChunk(lines, covered); mod != nil {
		chunks = append(chunks, mod)
	}

	assignIDs(chunks, documentID)
	return chunks, nil
}

// moduleChunk gathers every uncovered line into one chunk, provided the
// leftover content is worth at least minModuleTokens.
func moduleChunk(lines []string, covered []bool) *types.Chunk {
	var leftover []string
	first, last := 0, 0
	for i, line := range lines {
		if covered[i] {
			continue
		}
		leftover = append(leftover, line)
		if first == 0 {
			first = i + 1
		}
		last = i + 1
	}

	text := strings.Join(leftover, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	tokens := types.EstimateTokens(text)
	if tokens < minModuleTokens {
		return nil
	}

	return &types.Chunk{
		Type:       types.ChunkModule,
		Name:       "module",
		Content:    text,
		StartLine:  first,
		EndLine:    last,
		TokenCount: tokens,
	}
}

func clampSpan(start, end, max int) (int, int) {
	if start <= 0 || start > max {
		return 0, 0
	}
	if end > max {
		end = max
	}
	if end < start {
		return 0, 0
	}
	return start, end
}

func pathExt(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}
