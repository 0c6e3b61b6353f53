package query

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/semtok"
)

// CollectSemanticTokens walks the tree once, classifying every token-shaped
// node into the semtok legend, then delta-encodes the result.
func CollectSemanticTokens(tree *brparser.Tree, source string) []semtok.Encoded {
	var raw []semtok.RawToken
	walkTokens(tree.Root, source, false, &raw)
	return semtok.EncodeDeltas(raw)
}

func walkTokens(n *brparser.Node, source string, inDim bool, out *[]semtok.RawToken) {
	childInDim := inDim || n.Kind == brparser.KindDimStatement

	if n.Kind == brparser.KindNumberArray || n.Kind == brparser.KindStringArray {
		emitMatKeyword(n, source, out)
	}

	if tokType, modifiers, ok := classifyNode(n, source, inDim); ok {
		emitSpan(n, tokType, modifiers, source, out)
	}

	for _, c := range n.Children {
		walkTokens(c, source, childInDim, out)
	}
}

// classifyNode returns the semtok type/modifiers for n, or ok=false if n
// contributes no token of its own (e.g. a wrapper like def_statement or
// parameter_list — its meaningful pieces are its children).
func classifyNode(n *brparser.Node, source string, inDim bool) (uint32, uint32, bool) {
	switch n.Kind {
	case brparser.KindFunctionName:
		var mods uint32
		if n.Parent != nil {
			switch n.Parent.Kind {
			case brparser.KindDefStatement:
				mods |= semtok.ModDeclaration
			case brparser.KindNumericSystemFunction, brparser.KindStringSystemFunction:
				mods |= semtok.ModDefaultLibrary
			}
		}
		return semtok.TypeFunction, mods, true
	case brparser.KindIdentifier:
		return semtok.TypeParameter, 0, true
	case brparser.KindNumberReference, brparser.KindStringReference,
		brparser.KindNumberArray, brparser.KindStringArray:
		var mods uint32
		if inDim {
			mods |= semtok.ModDeclaration
		}
		return semtok.TypeVariable, mods, true
	case brparser.KindKeyword:
		return semtok.TypeKeyword, semtok.ModControlFlow, true
	case brparser.KindComment, brparser.KindMultilineComment, brparser.KindDocComment:
		return semtok.TypeComment, 0, true
	case brparser.KindString, brparser.KindTemplateString:
		return semtok.TypeString, 0, true
	case brparser.KindNumber, brparser.KindInt:
		return semtok.TypeNumber, 0, true
	case brparser.KindLineNumber:
		return semtok.TypeLineNumber, 0, true
	case brparser.KindLabel:
		return semtok.TypeProperty, semtok.ModDefinition, true
	case brparser.KindLabelRef, brparser.KindLineRef:
		return semtok.TypeProperty, 0, true
	case brparser.KindErrorCondition:
		return semtok.TypeEnumMember, 0, true
	case brparser.KindOperator:
		if inDim {
			return semtok.TypeOperator, 0, true
		}
		return 0, 0, false
	default:
		return 0, 0, false
	}
}

// emitMatKeyword emits a synthetic token for the hidden "MAT" prefix on an
// array reference, since the grammar folds it into the reference's span
// rather than giving it a child node of its own.
func emitMatKeyword(n *brparser.Node, source string, out *[]semtok.RawToken) {
	if n.EndByte < n.StartByte+3 || n.StartByte >= uint32(len(source)) {
		return
	}
	text := source[n.StartByte:n.EndByte]
	if len(text) < 3 || !strings.EqualFold(text[:3], "mat") {
		return
	}
	*out = append(*out, semtok.RawToken{
		Line: uint32(n.StartPoint.Row), Start: uint32(n.StartPoint.Column),
		Length: 3, TokenType: semtok.TypeKeyword, Modifiers: semtok.ModControlFlow,
	})
}

func emitSpan(n *brparser.Node, tokType, modifiers uint32, source string, out *[]semtok.RawToken) {
	if n.StartPoint.Row == n.EndPoint.Row {
		if n.EndPoint.Column <= n.StartPoint.Column {
			return
		}
		*out = append(*out, semtok.RawToken{
			Line: uint32(n.StartPoint.Row), Start: uint32(n.StartPoint.Column),
			Length: uint32(n.EndPoint.Column - n.StartPoint.Column), TokenType: tokType, Modifiers: modifiers,
		})
		return
	}

	lines := strings.Split(source, "\n")
	for row := n.StartPoint.Row; row <= n.EndPoint.Row; row++ {
		colStart := 0
		if row == n.StartPoint.Row {
			colStart = n.StartPoint.Column
		}
		colEnd := 0
		if row == n.EndPoint.Row {
			colEnd = n.EndPoint.Column
		} else if row < len(lines) {
			colEnd = len([]rune(lines[row]))
		}
		if colEnd > colStart {
			*out = append(*out, semtok.RawToken{
				Line: uint32(row), Start: uint32(colStart),
				Length: uint32(colEnd - colStart), TokenType: tokType, Modifiers: modifiers,
			})
		}
	}
}
