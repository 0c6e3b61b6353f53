// Package source handles BR file discovery and CP437-decoded reads.
package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/christopherroyshields/br-lsp/internal/encoding"
)

// IsBRFile reports whether path has a BR source extension (.brs or .wbs),
// case-insensitive.
func IsBRFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".brs" || ext == ".wbs"
}

// IsLayoutFile reports whether path is a record-layout file: extension
// .lay, or its parent directory is named "filelay" (case-insensitive).
func IsLayoutFile(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".lay") {
		return true
	}
	parent := filepath.Base(filepath.Dir(path))
	return strings.EqualFold(parent, "filelay")
}

// ReadBRFile reads a BR or layout source file from disk and strips the DOS
// end-of-file marker. Every other byte is kept as is: high bytes are not
// converted to Unicode here (encoding.DisplayString does that for display).
func ReadBRFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return encoding.Decode(raw), nil
}

// MatchesAny reports whether path matches any of the given doublestar glob
// patterns (used for watcher globs and workspace-scan filtering).
func MatchesAny(path string, patterns []string) bool {
	normalized := filepath.ToSlash(path)
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, normalized); ok {
			return true
		}
	}
	return false
}

// DefaultWatchGlobs are the globs the server registers file watchers for.
var DefaultWatchGlobs = []string{"**/*.brs", "**/*.wbs", "**/*.lay", "**/filelay/*"}
