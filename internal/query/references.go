package query

import (
	"strconv"
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/defs"
)

// variableKinds are the node kinds a variable occurrence (declaration or
// use) can appear as.
var variableKinds = []string{
	brparser.KindIdentifier,
	brparser.KindNumberReference,
	brparser.KindStringReference,
	brparser.KindNumberArray,
	brparser.KindStringArray,
}

// FindReferences returns every occurrence of the symbol under (line, col).
func FindReferences(tree *brparser.Tree, source string, line, col int) []defs.Range {
	node := resolveNode(tree, line, col)
	if node == nil {
		return nil
	}

	switch node.Kind {
	case brparser.KindFunctionName:
		return findFunctionRefs(tree, source, node.Text(source))
	case brparser.KindLabel, brparser.KindLabelRef:
		return findLabelRefs(tree, source, node.Text(source))
	case brparser.KindLineNumber, brparser.KindLineRef:
		return findLineRefs(tree, source, node.Text(source))
	case brparser.KindIdentifier, brparser.KindNumberReference, brparser.KindStringReference,
		brparser.KindNumberArray, brparser.KindStringArray:
		return findVariableRefs(tree, source, node)
	default:
		return nil
	}
}

// FunctionNameAt reports the function name under (line, col), and whether
// the cursor resolved onto a function-name node at all. A workspace-wide
// caller uses this to decide whether a reference/rename search needs to
// widen beyond the current file: BR's label, line-number, and variable
// scoping is always file-local, so only function calls can cross a file
// boundary.
func FunctionNameAt(tree *brparser.Tree, source string, line, col int) (string, bool) {
	node := resolveNode(tree, line, col)
	if node == nil || node.Kind != brparser.KindFunctionName {
		return "", false
	}
	return node.Text(source), true
}

// FindFunctionReferencesInFile returns every call or definition occurrence
// of name within one already-parsed file. It is findFunctionRefs exported
// as the per-file unit of work a workspace-wide search fans out over.
func FindFunctionReferencesInFile(tree *brparser.Tree, source, name string) []defs.Range {
	return findFunctionRefs(tree, source, name)
}

func findFunctionRefs(tree *brparser.Tree, source, name string) []defs.Range {
	var out []defs.Range
	for _, n := range tree.Root.FindAll(brparser.KindFunctionName) {
		if strings.EqualFold(n.Text(source), name) {
			out = append(out, rangeOf(n))
		}
	}
	return out
}

func findLabelRefs(tree *brparser.Tree, source, text string) []defs.Range {
	name := strings.TrimSuffix(text, ":")
	var out []defs.Range
	for _, n := range tree.Root.FindAll(brparser.KindLabel) {
		if strings.EqualFold(strings.TrimSuffix(n.Text(source), ":"), name) {
			out = append(out, trimTrailingColon(n))
		}
	}
	for _, n := range tree.Root.FindAll(brparser.KindLabelRef) {
		if strings.EqualFold(n.Text(source), name) {
			out = append(out, rangeOf(n))
		}
	}
	return out
}

func findLineRefs(tree *brparser.Tree, source, text string) []defs.Range {
	target, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return nil
	}
	var out []defs.Range
	for _, kind := range []string{brparser.KindLineNumber, brparser.KindLineRef} {
		for _, n := range tree.Root.FindAll(kind) {
			if v, err := strconv.ParseInt(strings.TrimSpace(n.Text(source)), 10, 64); err == nil && v == target {
				out = append(out, rangeOf(n))
			}
		}
	}
	return out
}

// findVariableRefs gathers every occurrence of node's name across all
// variable-shaped node kinds, then applies function-scope filtering so
// that a DEF's parameters don't leak into, or collide with, a
// same-named variable elsewhere in the file.
func findVariableRefs(tree *brparser.Tree, source string, node *brparser.Node) []defs.Range {
	name := node.Text(source)
	var candidates []*brparser.Node
	for _, kind := range variableKinds {
		for _, n := range tree.Root.FindAll(kind) {
			if strings.EqualFold(n.Text(source), name) {
				candidates = append(candidates, n)
			}
		}
	}
	return filterByScope(tree, source, node, candidates)
}

// filterByScope mirrors original_source/references.rs's filter_by_scope: if
// the cursor is itself a function parameter, only occurrences inside that
// same function's body survive; otherwise every parameter occurrence
// (belonging to any function) is excluded, since a same-named parameter in
// another DEF is a distinct variable.
func filterByScope(tree *brparser.Tree, source string, node *brparser.Node, candidates []*brparser.Node) []defs.Range {
	ranges := functionRanges(tree)
	cursorFn := inFunction(node.StartByte, ranges)
	cursorIsParam := cursorFn >= 0 && isParamOfFunction(node, ranges[cursorFn], source)

	var out []defs.Range
	if cursorIsParam {
		fr := ranges[cursorFn]
		for _, c := range candidates {
			if c.StartByte >= fr.Def.StartByte && c.StartByte <= fr.BodyEndByte {
				out = append(out, rangeOf(c))
			}
		}
		return out
	}

	for _, c := range candidates {
		if idx := inFunction(c.StartByte, ranges); idx >= 0 && isParamOfFunction(c, ranges[idx], source) {
			continue
		}
		out = append(out, rangeOf(c))
	}
	return out
}
