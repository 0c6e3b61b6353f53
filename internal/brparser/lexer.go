package brparser

import (
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent // identifier, numeric or string ($) or array (MAT handled separately)
	tokString
	tokPunct
	tokSubOpen  // [[
	tokSubClose // ]]
	tokComment
	tokNewline
)

type token struct {
	kind       tokenKind
	text       string
	startByte  uint32
	endByte    uint32
	startPoint Point
	endPoint   Point
}

// lex tokenizes BR source into a flat token stream, one line at a time, so
// the parser can reason about line numbers/labels positionally. Strings use
// BR's doubled-quote escaping ("" inside a "..." literal is a literal
// quote); comments start with '!' and run to end of line.
func lex(source string) []token {
	var toks []token
	line, col := 0, 0
	i := 0
	n := len(source)

	for i < n {
		c := source[i]
		switch {
		case c == '\n':
			toks = append(toks, token{kind: tokNewline, text: "\n", startByte: uint32(i), endByte: uint32(i + 1),
				startPoint: Point{line, col}, endPoint: Point{line, col + 1}})
			i++
			line++
			col = 0
		case c == '\r':
			i++
			col++
		case c == ' ' || c == '\t':
			i++
			col++
		case c == '!':
			start := i
			startP := Point{line, col}
			for i < n && source[i] != '\n' {
				i++
				col++
			}
			toks = append(toks, token{kind: tokComment, text: source[start:i], startByte: uint32(start), endByte: uint32(i),
				startPoint: startP, endPoint: Point{line, col}})
		case c == '"':
			start := i
			startP := Point{line, col}
			i++
			col++
			for i < n {
				if source[i] == '"' {
					if i+1 < n && source[i+1] == '"' {
						i += 2
						col += 2
						continue
					}
					i++
					col++
					break
				}
				if source[i] == '\n' {
					break
				}
				i++
				col++
			}
			toks = append(toks, token{kind: tokString, text: source[start:i], startByte: uint32(start), endByte: uint32(i),
				startPoint: startP, endPoint: Point{line, col}})
		case c == '[' && i+1 < n && source[i+1] == '[':
			toks = append(toks, token{kind: tokSubOpen, text: "[[", startByte: uint32(i), endByte: uint32(i + 2),
				startPoint: Point{line, col}, endPoint: Point{line, col + 2}})
			i += 2
			col += 2
		case c == ']' && i+1 < n && source[i+1] == ']':
			toks = append(toks, token{kind: tokSubClose, text: "]]", startByte: uint32(i), endByte: uint32(i + 2),
				startPoint: Point{line, col}, endPoint: Point{line, col + 2}})
			i += 2
			col += 2
		case isDigit(c):
			start := i
			startP := Point{line, col}
			for i < n && (isDigit(source[i]) || source[i] == '.') {
				i++
				col++
			}
			toks = append(toks, token{kind: tokNumber, text: source[start:i], startByte: uint32(start), endByte: uint32(i),
				startPoint: startP, endPoint: Point{line, col}})
		case isIdentStart(c):
			start := i
			startP := Point{line, col}
			for i < n && isIdentPart(source[i]) {
				i++
				col++
			}
			if i < n && source[i] == '$' {
				i++
				col++
			}
			toks = append(toks, token{kind: tokIdent, text: source[start:i], startByte: uint32(start), endByte: uint32(i),
				startPoint: startP, endPoint: Point{line, col}})
		default:
			start := i
			startP := Point{line, col}
			i++
			col++
			toks = append(toks, token{kind: tokPunct, text: source[start:i], startByte: uint32(start), endByte: uint32(i),
				startPoint: startP, endPoint: Point{line, col}})
		}
	}
	toks = append(toks, token{kind: tokEOF, startByte: uint32(n), endByte: uint32(n), startPoint: Point{line, col}, endPoint: Point{line, col}})
	return toks
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isKeyword(text string, kw string) bool {
	return strings.EqualFold(text, kw)
}
