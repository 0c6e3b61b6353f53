package lsp

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// uriToPath converts a file:// URI to a plain filesystem path. Non-file
// URIs are returned unchanged (the server never needs to read them).
func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	p := u.Path
	// A Windows drive-letter path ("/C:/foo") loses its leading slash.
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return p
}

// pathToURI converts a plain filesystem path to a file:// URI.
func pathToURI(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}

// lineAt returns source's line-th line (no trailing newline), or "" if out
// of range.
func lineAt(source string, line int) string {
	if line < 0 {
		return ""
	}
	start := 0
	cur := 0
	for cur < line {
		idx := strings.IndexByte(source[start:], '\n')
		if idx < 0 {
			return ""
		}
		start += idx + 1
		cur++
	}
	rest := source[start:]
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		return rest[:end]
	}
	return rest
}

// byteColFromUTF16 converts a UTF-16 code-unit offset within line into the
// matching byte offset — the column unit brparser's lexer actually counts
// in (one increment per byte, per internal/brparser/lexer.go). The two
// diverge only when line holds a CP437 glyph above U+007F, which decodes to
// a multi-byte UTF-8 rune but a single UTF-16 code unit.
func byteColFromUTF16(line string, utf16Col int) int {
	units := 0
	i := 0
	for i < len(line) {
		if units >= utf16Col {
			return i
		}
		r, size := utf8.DecodeRuneInString(line[i:])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		i += size
	}
	return len(line)
}

// utf16ColFromByteCol is byteColFromUTF16's inverse: the UTF-16 code-unit
// offset corresponding to byteCol bytes into line.
func utf16ColFromByteCol(line string, byteCol int) int {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	units := 0
	i := 0
	for i < byteCol {
		r, size := utf8.DecodeRuneInString(line[i:])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		i += size
	}
	return units
}

// lspPos is an LSP Position: zero-based line, UTF-16 character offset.
type lspPos struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// lspRange is an LSP Range.
type lspRange struct {
	Start lspPos `json:"start"`
	End   lspPos `json:"end"`
}

// toByteLineCol converts an LSP position (UTF-16) against source into the
// byte line/column brparser and document.Store expect.
func toByteLineCol(source string, p lspPos) (line, col int) {
	return p.Line, byteColFromUTF16(lineAt(source, p.Line), p.Character)
}

// brRangeToLSP converts a defs.Range (byte columns) to an lspRange (UTF-16
// columns), looking up each endpoint's line text in source.
func brRangeToLSP(source string, startLine, startCol, endLine, endCol int) lspRange {
	return lspRange{
		Start: lspPos{Line: startLine, Character: utf16ColFromByteCol(lineAt(source, startLine), startCol)},
		End:   lspPos{Line: endLine, Character: utf16ColFromByteCol(lineAt(source, endLine), endCol)},
	}
}
