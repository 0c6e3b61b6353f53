package query

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/defs"
)

// RenameTarget is what PrepareRename reports back to the client: the range
// to highlight and the current text to seed the rename input with.
type RenameTarget struct {
	Range       defs.Range
	Placeholder string
}

// PrepareRename reports whether the symbol under (line, col) can be
// renamed, and if so its current range/text. System functions and line
// numbers are not renameable.
func PrepareRename(tree *brparser.Tree, source string, line, col int) (RenameTarget, bool) {
	node := resolveNode(tree, line, col)
	if node == nil {
		return RenameTarget{}, false
	}

	text := node.Text(source)
	switch node.Kind {
	case brparser.KindFunctionName:
		if builtins.IsBuiltin(text) {
			return RenameTarget{}, false
		}
		return RenameTarget{Range: rangeOf(node), Placeholder: text}, true
	case brparser.KindIdentifier, brparser.KindNumberReference, brparser.KindStringReference,
		brparser.KindNumberArray, brparser.KindStringArray:
		return RenameTarget{Range: rangeOf(node), Placeholder: text}, true
	case brparser.KindLabel:
		return RenameTarget{Range: trimTrailingColon(node), Placeholder: strings.TrimSuffix(text, ":")}, true
	case brparser.KindLabelRef:
		return RenameTarget{Range: rangeOf(node), Placeholder: text}, true
	default:
		return RenameTarget{}, false
	}
}

// ComputeRenames returns the edit ranges that must change to newName for
// the rename to take effect; callers pair each with the new text.
func ComputeRenames(tree *brparser.Tree, source string, line, col int) []defs.Range {
	node := resolveNode(tree, line, col)
	if node == nil {
		return nil
	}

	text := node.Text(source)
	switch node.Kind {
	case brparser.KindFunctionName:
		if builtins.IsBuiltin(text) {
			return nil
		}
		return findFunctionRefs(tree, source, text)
	case brparser.KindLabel, brparser.KindLabelRef:
		return findLabelRefs(tree, source, text)
	case brparser.KindIdentifier, brparser.KindNumberReference, brparser.KindStringReference,
		brparser.KindNumberArray, brparser.KindStringArray:
		return findVariableRefs(tree, source, node)
	default:
		return nil
	}
}
