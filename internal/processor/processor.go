// Package processor handles file discovery for indexing: walking the
// project tree with include/exclude globs, size caps and .gitignore rules,
// reading file content, hashing it, and classifying document types.
package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/raglite/raglite/internal/logger"
)

// Processor decides which files enter the index and prepares their content.
// The .gitignore matcher is loaded once per indexing pass and cached.
type Processor struct {
	root         string
	includeGlobs []string
	excludeGlobs []string
	maxFileSize  int64
	gitignore    *ignore.GitIgnore
}

// Options configures a Processor.
type Options struct {
	Root             string
	IncludeGlobs     []string
	ExcludeGlobs     []string
	MaxFileSize      int64
	RespectGitignore bool
}

// New creates a Processor rooted at opts.Root. A missing or unreadable
// .gitignore simply disables gitignore filtering.
func New(opts Options) (*Processor, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	p := &Processor{
		root:         root,
		includeGlobs: opts.IncludeGlobs,
		excludeGlobs: opts.ExcludeGlobs,
		maxFileSize:  opts.MaxFileSize,
	}

	if opts.RespectGitignore {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
		if err == nil {
			p.gitignore = gi
		} else if !os.IsNotExist(err) {
			logger.Debug("could not load .gitignore: %v", err)
		}
	}

	return p, nil
}

// Root returns the absolute project root.
func (p *Processor) Root() string { return p.root }

// ShouldProcess reports whether a file at the given relative path with the
// given size should be indexed.
func (p *Processor) ShouldProcess(relPath string, size int64) bool {
	if p.maxFileSize > 0 && size > p.maxFileSize {
		return false
	}

	// Globs match against slash-separated relative paths.
	slashPath := filepath.ToSlash(relPath)

	if len(p.includeGlobs) > 0 && !matchAny(p.includeGlobs, slashPath) {
		return false
	}
	if matchAny(p.excludeGlobs, slashPath) {
		return false
	}
	if p.gitignore != nil && p.gitignore.MatchesPath(slashPath) {
		return false
	}
	return true
}

func matchAny(globs []string, path string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Discover walks the project tree and returns the relative paths of every
// file that passes ShouldProcess. Unreadable directory entries are skipped,
// never fatal.
func (p *Processor) Discover() ([]string, error) {
	var files []string

	err := filepath.Walk(p.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Debug("discovery skipping %s: %v", path, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path != p.root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(p.root, path)
		if err != nil {
			return nil
		}

		if p.ShouldProcess(relPath, info.Size()) {
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", p.root, err)
	}

	return files, nil
}

// ReadFile reads a file's content. It returns ok=false (without error) when
// the file cannot be read or does not decode as text; a single bad file must
// never abort discovery.
func (p *Processor) ReadFile(relPath string) (content string, ok bool) {
	data, err := os.ReadFile(filepath.Join(p.root, relPath))
	if err != nil {
		logger.Debug("skipping unreadable file %s: %v", relPath, err)
		return "", false
	}

	if !utf8.Valid(data) || isBinary(data) {
		logger.Debug("skipping non-text file %s", relPath)
		return "", false
	}

	return string(data), true
}

// isBinary uses a NUL-byte probe over the first 8KB, the same heuristic git
// applies.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return false
}

// ComputeHash returns the SHA-256 hex digest of raw content.
func ComputeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Stat returns the size of a file under the project root.
func (p *Processor) Stat(relPath string) (int64, error) {
	info, err := os.Stat(filepath.Join(p.root, relPath))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
