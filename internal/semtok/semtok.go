// Package semtok is the shared semantic-tokens encoding used by both the
// BR source walker and the layout sub-parser: a token-type/modifier legend
// plus the LSP delta-encoding pass.
package semtok

// Token type indices, matching the order advertised in Legend().
const (
	TypeFunction = iota
	TypeVariable
	TypeParameter
	TypeKeyword
	TypeComment
	TypeString
	TypeNumber
	TypeProperty
	TypeEnumMember
	TypeOperator
	TypeLineNumber
	TypeInvalid
)

// TokenTypeNames is the legend's tokenTypes array, in TypeXxx index order.
var TokenTypeNames = []string{
	"function",
	"variable",
	"parameter",
	"keyword",
	"comment",
	"string",
	"number",
	"property",
	"enumMember",
	"operator",
	"lineNumber",
	"invalid",
}

// Modifier bits, matching the order advertised in Legend().
const (
	ModDeclaration = 1 << iota
	ModDefaultLibrary
	ModDefinition
	ModControlFlow
)

// TokenModifierNames is the legend's tokenModifiers array, bit order.
var TokenModifierNames = []string{
	"declaration",
	"defaultLibrary",
	"definition",
	"controlFlow",
}

// RawToken is one semantic token before delta-encoding: absolute line/column
// position and length.
type RawToken struct {
	Line      uint32
	Start     uint32
	Length    uint32
	TokenType uint32
	Modifiers uint32
}

// Encoded is one delta-encoded LSP SemanticToken entry: five uint32s per the
// textDocument/semanticTokens/full wire format.
type Encoded struct {
	DeltaLine      uint32
	DeltaStart     uint32
	Length         uint32
	TokenType      uint32
	TokenModifiers uint32
}

// EncodeDeltas sorts tokens by (line, start) and converts each to a
// line/column delta relative to the previous token, per the LSP semantic
// tokens wire encoding.
func EncodeDeltas(tokens []RawToken) []Encoded {
	sortRawTokens(tokens)

	result := make([]Encoded, 0, len(tokens))
	var prevLine, prevStart uint32

	for _, tok := range tokens {
		deltaLine := tok.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = tok.Start - prevStart
		} else {
			deltaStart = tok.Start
		}
		result = append(result, Encoded{
			DeltaLine:      deltaLine,
			DeltaStart:     deltaStart,
			Length:         tok.Length,
			TokenType:      tok.TokenType,
			TokenModifiers: tok.Modifiers,
		})
		prevLine, prevStart = tok.Line, tok.Start
	}
	return result
}

// Flatten packs Encoded tokens into the flat []uint32 the LSP wire format
// actually sends (5 integers per token).
func Flatten(encoded []Encoded) []uint32 {
	out := make([]uint32, 0, len(encoded)*5)
	for _, e := range encoded {
		out = append(out, e.DeltaLine, e.DeltaStart, e.Length, e.TokenType, e.TokenModifiers)
	}
	return out
}

func sortRawTokens(tokens []RawToken) {
	// insertion sort: token counts per file are small (hundreds, not millions)
	// and the vast majority of input is already line-ordered from a
	// single top-to-bottom tree walk.
	for i := 1; i < len(tokens); i++ {
		j := i
		for j > 0 && less(tokens[j], tokens[j-1]) {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
			j--
		}
	}
}

func less(a, b RawToken) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Start < b.Start
}
