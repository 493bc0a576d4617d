package processor

import (
	"path/filepath"
	"strings"

	"github.com/raglite/raglite/pkg/types"
)

// languageByExt maps file extensions to language identifiers for code files.
var languageByExt = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
	".lua":   "lua",
	".zig":   "zig",
}

var docExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".rst":      true,
	".txt":      true,
	".adoc":     true,
}

var configExts = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".ini":  true,
	".env":  true,
	".cfg":  true,
}

// DetectType classifies a path into a document type by extension.
func DetectType(path string) types.DocumentType {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case languageByExt[ext] != "":
		return types.DocTypeCode
	case docExts[ext]:
		return types.DocTypeDocumentation
	case configExts[ext]:
		return types.DocTypeConfig
	default:
		return types.DocTypeOther
	}
}

// DetectLanguage returns the language identifier for a code file, or "" for
// non-code files.
func DetectLanguage(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}
