// Package layout parses BR record-layout sidecar files: a small
// state-machine format describing a data file's header, optional keys,
// record length, and field list.
package layout

import (
	"strconv"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/christopherroyshields/br-lsp/internal/semtok"
)

// validForms is the fixed set of field spec codes a layout field line may
// use; anything else renders as an invalid token.
var validForms = map[string]bool{
	"BH": true, "BL": true, "B": true, "CC": true, "CR": true, "C": true,
	"DH": true, "DL": true, "DT": true, "D": true, "GF": true, "GZ": true,
	"G": true, "L": true, "NZ": true, "N": true, "PIC": true, "PD": true,
	"P": true, "SKIP": true, "S": true, "V": true, "X": true, "ZD": true,
}

func isValidForm(spec string) bool {
	return validForms[strings.ToUpper(spec)]
}

// Field is one field line: name, description, and form spec+length.
type Field struct {
	Name        string
	Description string
	Format      string
}

// Key is one key line: the key's own path and the field names composing it.
type Key struct {
	Path      string
	KeyFields []string
}

// Layout is one parsed .lay file.
type Layout struct {
	Path         string
	Prefix       string
	Version      *semver.Version
	RawVersion   string
	Keys         []Key
	Fields       []Field
	RecordLength int
	HasRecordLen bool
}

type parseState int

const (
	stateInitial parseState = iota
	stateHeader
	stateFields
	stateEOF
)

// Parse reads a layout file's source and returns its structure, or nil if
// source never yields a non-empty header line (e.g. the file is blank).
// Parsing is total: a malformed field or key line is dropped rather than
// aborting the rest of the file.
func Parse(source string) *Layout {
	state := stateInitial
	l := &Layout{}

	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))

		if state == stateEOF {
			break
		}
		if strings.HasPrefix(trimmed, "!") {
			continue
		}
		if strings.EqualFold(trimmed, "#eof#") {
			state = stateEOF
			continue
		}
		if trimmed == "" {
			continue
		}

		switch state {
		case stateInitial:
			parts := strings.SplitN(trimmed, ",", 3)
			l.Path = strings.TrimSpace(at(parts, 0))
			l.Prefix = strings.TrimSpace(at(parts, 1))
			if raw := strings.TrimSpace(at(parts, 2)); raw != "" {
				l.RawVersion = raw
				l.Version = parseVersion(raw)
			}
			state = stateHeader
		case stateHeader:
			switch {
			case isSeparator(trimmed):
				state = stateFields
			case strings.HasPrefix(strings.ToLower(trimmed), "recl"):
				if v, ok := parseRecl(trimmed); ok {
					l.RecordLength = v
					l.HasRecordLen = true
				}
			default:
				parts := strings.Split(trimmed, ",")
				key := Key{Path: strings.TrimSpace(parts[0])}
				for _, f := range parts[1:] {
					f = strings.TrimSpace(f)
					if f != "" {
						key.KeyFields = append(key.KeyFields, f)
					}
				}
				l.Keys = append(l.Keys, key)
			}
		case stateFields:
			parts := strings.SplitN(trimmed, ",", 4)
			if len(parts) >= 3 {
				l.Fields = append(l.Fields, Field{
					Name:        strings.TrimSpace(parts[0]),
					Description: strings.TrimSpace(at(parts, 1)),
					Format:      strings.TrimSpace(at(parts, 2)),
				})
			}
		}
	}

	if l.Path == "" {
		return nil
	}
	return l
}

func at(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func isSeparator(line string) bool {
	if line == "" {
		return false
	}
	for _, c := range line {
		if c != '-' && c != '=' {
			return false
		}
	}
	return true
}

func parseRecl(line string) (int, bool) {
	lower := strings.ToLower(line)
	after, ok := strings.CutPrefix(lower, "recl")
	if !ok {
		return 0, false
	}
	after = strings.TrimLeft(after, "= \t")
	v, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseVersion degrades to nil (RawVersion is still recorded) rather than
// failing the parse when the header's version field isn't valid semver —
// BR layouts commonly use a bare integer, which semver.NewVersion accepts,
// but hand-edited layouts occasionally carry something else.
func parseVersion(raw string) *semver.Version {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil
	}
	return v
}

// Index maps URI to its parsed Layout. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
}

// NewIndex builds an empty Index.
func NewIndex() *Index {
	return &Index{layouts: make(map[string]*Layout)}
}

// Add inserts or replaces uri's layout.
func (idx *Index) Add(uri string, l *Layout) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.layouts[uri] = l
}

// Update is an alias for Add, kept distinct for call-site clarity at
// did_change sites.
func (idx *Index) Update(uri string, l *Layout) {
	idx.Add(uri, l)
}

// Remove drops uri's layout.
func (idx *Index) Remove(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.layouts, uri)
}

// Get returns uri's layout, if indexed.
func (idx *Index) Get(uri string) (*Layout, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	l, ok := idx.layouts[uri]
	return l, ok
}

// All returns every indexed layout, across all URIs.
func (idx *Index) All() []*Layout {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*Layout, 0, len(idx.layouts))
	for _, l := range idx.layouts {
		out = append(out, l)
	}
	return out
}

// FieldCompletions returns every field name across all indexed layouts
// whose name starts with prefix, case-insensitive — used for completions
// within BR documents that reference record fields.
func (idx *Index) FieldCompletions(prefix string) []Field {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	lower := strings.ToLower(prefix)
	var out []Field
	for _, l := range idx.layouts {
		for _, f := range l.Fields {
			if strings.HasPrefix(strings.ToLower(f.Name), lower) {
				out = append(out, f)
			}
		}
	}
	return out
}

// CollectTokens walks source the same way Parse does, emitting one semantic
// token per syntactically meaningful run so clients can highlight .lay
// files without a real grammar.
func CollectTokens(source string) []semtok.Encoded {
	var raw []semtok.RawToken
	state := stateInitial

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		lineNum := uint32(i)
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))

		if state == stateEOF {
			if line != "" {
				raw = append(raw, semtok.RawToken{Line: lineNum, Start: 0, Length: uint32(len(line)), TokenType: semtok.TypeComment})
			}
			continue
		}
		if strings.HasPrefix(trimmed, "!") {
			off := leadingSpaces(line)
			raw = append(raw, semtok.RawToken{Line: lineNum, Start: uint32(off), Length: uint32(len(line) - off), TokenType: semtok.TypeComment})
			continue
		}
		if strings.EqualFold(trimmed, "#eof#") {
			off := leadingSpaces(line)
			raw = append(raw, semtok.RawToken{Line: lineNum, Start: uint32(off), Length: uint32(len(trimmed)), TokenType: semtok.TypeComment})
			state = stateEOF
			continue
		}
		if trimmed == "" {
			continue
		}

		switch state {
		case stateInitial:
			tokenizeHeaderLine(line, lineNum, &raw)
			state = stateHeader
		case stateHeader:
			switch {
			case isSeparator(trimmed):
				off := leadingSpaces(line)
				raw = append(raw, semtok.RawToken{Line: lineNum, Start: uint32(off), Length: uint32(len(trimmed)), TokenType: semtok.TypeComment})
				state = stateFields
			case strings.HasPrefix(strings.ToLower(trimmed), "recl"):
				tokenizeReclLine(line, lineNum, &raw)
			default:
				tokenizeKeyLine(line, lineNum, &raw)
			}
		case stateFields:
			tokenizeFieldLine(line, lineNum, &raw)
		}
	}

	return semtok.EncodeDeltas(raw)
}

func leadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func tokenizeHeaderLine(line string, lineNum uint32, tokens *[]semtok.RawToken) {
	var col uint32
	for i, part := range strings.SplitN(line, ",", 3) {
		start := col
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			trimStart := start + uint32(len(part)-len(strings.TrimLeft(part, " \t")))
			tt := uint32(semtok.TypeString)
			if i == 2 {
				tt = semtok.TypeNumber
			}
			*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: trimStart, Length: uint32(len(trimmed)), TokenType: tt})
		}
		col = start + uint32(len(part)) + 1
	}
}

func tokenizeKeyLine(line string, lineNum uint32, tokens *[]semtok.RawToken) {
	var col uint32
	for i, part := range strings.Split(line, ",") {
		start := col
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			trimStart := start + uint32(len(part)-len(strings.TrimLeft(part, " \t")))
			tt := uint32(semtok.TypeVariable)
			if i == 0 {
				tt = semtok.TypeString
			}
			*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: trimStart, Length: uint32(len(trimmed)), TokenType: tt})
		}
		col = start + uint32(len(part)) + 1
	}
}

func tokenizeReclLine(line string, lineNum uint32, tokens *[]semtok.RawToken) {
	off := uint32(leadingSpaces(line))
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "recl") {
		return
	}
	*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: off, Length: 4, TokenType: semtok.TypeKeyword})

	rest := trimmed[4:]
	restTrimmed := strings.TrimLeft(rest, "= \t")
	if restTrimmed == "" {
		return
	}
	numStart := off + 4 + uint32(len(rest)-len(restTrimmed))
	numEnd := len(restTrimmed)
	for i, c := range restTrimmed {
		if c < '0' || c > '9' {
			numEnd = i
			break
		}
	}
	if numEnd > 0 {
		*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: numStart, Length: uint32(numEnd), TokenType: semtok.TypeNumber})
	}
}

func tokenizeFieldLine(line string, lineNum uint32, tokens *[]semtok.RawToken) {
	var col uint32
	for i, part := range strings.SplitN(line, ",", 4) {
		start := col
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			trimStart := start + uint32(len(part)-len(strings.TrimLeft(part, " \t")))
			switch i {
			case 0:
				*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: trimStart, Length: uint32(len(trimmed)), TokenType: semtok.TypeVariable})
			case 1:
				*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: trimStart, Length: uint32(len(trimmed)), TokenType: semtok.TypeString})
			case 2:
				tokenizeSpecField(trimmed, lineNum, trimStart, tokens)
			case 3:
				*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: trimStart, Length: uint32(len(trimmed)), TokenType: semtok.TypeComment})
			}
		}
		col = start + uint32(len(part)) + 1
	}
}

// tokenizeSpecField splits a combined spec+length field like "C 8" or
// "BH 3.4" into a keyword (or invalid) token for the spec and a number
// token for the length.
func tokenizeSpecField(field string, lineNum uint32, fieldStart uint32, tokens *[]semtok.RawToken) {
	specEnd := len(field)
	for i, c := range field {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			specEnd = i
			break
		}
	}
	spec := field[:specEnd]
	rest := strings.TrimLeft(field[specEnd:], " \t")

	if spec != "" {
		tt := uint32(semtok.TypeInvalid)
		if isValidForm(spec) {
			tt = semtok.TypeKeyword
		}
		*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: fieldStart, Length: uint32(len(spec)), TokenType: tt})
	}
	if rest != "" {
		numStart := fieldStart + uint32(len(field)-len(rest))
		numLen := len(rest)
		for i, c := range rest {
			if !(c >= '0' && c <= '9') && c != '.' {
				numLen = i
				break
			}
		}
		if numLen > 0 {
			*tokens = append(*tokens, semtok.RawToken{Line: lineNum, Start: numStart, Length: uint32(numLen), TokenType: semtok.TypeNumber})
		}
	}
}
