package chunking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raglite/raglite/pkg/types"
)

// headingRe matches ATX headings; the hash run length is the nesting level.
var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

const (
	// defaultMinSectionTokens is the floor below which a section is
	// dropped. Undersized sections are dropped, not merged into a
	// neighbor; their lines do not appear in any chunk.
	defaultMinSectionTokens = 50
)

// Markdown is the section-based strategy for documentation files. Each
// section spans from its heading to the line before the next heading of any
// level (flat boundary rule). Content before the first heading becomes a
// preamble chunk when it meets the minimum size. Oversized sections are
// recursively split via the generic strategy.
type Markdown struct {
	minTokens int
	maxTokens int
	generic   *Generic
}

// NewMarkdown creates the section splitter. The max section size follows the
// configured chunk size.
func NewMarkdown(cfg Config, generic *Generic) *Markdown {
	max := cfg.ChunkSize
	if max <= 0 {
		max = 512
	}
	return &Markdown{
		minTokens: defaultMinSectionTokens,
		maxTokens: max,
		generic:   generic,
	}
}

// Name implements Strategy.
func (m *Markdown) Name() string { return "markdown" }

// section is a heading plus its body lines.
type section struct {
	title     string
	level     int
	startLine int // heading line, 1-indexed; 0-level preamble starts at 1
	endLine   int
}

// Chunk implements Strategy.
func (m *Markdown) Chunk(content, path, documentID string) ([]*types.Chunk, error) {
	lines := splitLines(content)
	sections := m.locateSections(lines)

	var chunks []*types.Chunk
	for _, sec := range sections {
		text := strings.Join(lines[sec.startLine-1:sec.endLine], "\n")
		tokens := types.EstimateTokens(text)

		if tokens < m.minTokens {
			continue
		}

		if tokens > m.maxTokens {
			chunks = append(chunks, m.splitOversized(sec, text)...)
			continue
		}

		chunks = append(chunks, &types.Chunk{
			Type:       types.ChunkSection,
			Name:       sec.title,
			Content:    text,
			StartLine:  sec.startLine,
			EndLine:    sec.endLine,
			TokenCount: tokens,
			Metadata:   map[string]string{"heading_level": fmt.Sprintf("%d", sec.level)},
		})
	}

	assignIDs(chunks, documentID)
	return chunks, nil
}

// locateSections finds heading boundaries. The boundary rule is flat: any
// heading closes the previous section, regardless of relative level.
func (m *Markdown) locateSections(lines []string) []section {
	var sections []section
	cur := section{title: "preamble", level: 0, startLine: 1}
	started := false

	for i, line := range lines {
		match := headingRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		if started || i > 0 {
			cur.endLine = i
			if cur.endLine >= cur.startLine {
				sections = append(sections, cur)
			}
		}

		cur = section{
			title:     match[2],
			level:     len(match[1]),
			startLine: i + 1,
		}
		started = true
	}

	cur.endLine = len(lines)
	if cur.endLine >= cur.startLine && (started || len(lines) > 0) {
		sections = append(sections, cur)
	}

	return sections
}

// splitOversized runs an oversized section through the generic splitter and
// tags the parts with the section title.
func (m *Markdown) splitOversized(sec section, text string) []*types.Chunk {
	parts := m.generic.split(text, sec.startLine)
	for i, part := range parts {
		part.Type = types.ChunkSection
		part.Name = fmt.Sprintf("%s (part %d)", sec.title, i+1)
		part.Metadata = map[string]string{"heading_level": fmt.Sprintf("%d", sec.level)}
	}
	return parts
}
