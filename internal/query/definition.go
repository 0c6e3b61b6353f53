package query

import (
	"strconv"
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/defs"
)

// DefinitionKind discriminates the outcome of a FindDefinition call.
type DefinitionKind int

const (
	// DefNone means no definition could be located.
	DefNone DefinitionKind = iota
	// DefFound means Range holds the definition's location in this file.
	DefFound
	// DefLookupFunction means the cursor named a user function not defined
	// in this file; FunctionName must be resolved against the workspace
	// index.
	DefLookupFunction
)

// DefinitionResult is the outcome of a go-to-definition query.
type DefinitionResult struct {
	Kind         DefinitionKind
	Range        defs.Range
	FunctionName string
}

// FindDefinition resolves the symbol under (line, col) to its definition.
// localDefs is the current file's already-extracted function table.
func FindDefinition(tree *brparser.Tree, source string, line, col int, localDefs []defs.FunctionDef) DefinitionResult {
	node := resolveNode(tree, line, col)
	if node == nil {
		return DefinitionResult{Kind: DefNone}
	}

	switch node.Kind {
	case brparser.KindFunctionName:
		return findFunctionDef(node, source, localDefs)
	case brparser.KindLabelRef:
		return findLabelDef(tree, source, node.Text(source))
	case brparser.KindLineRef:
		return findLineDef(tree, source, node.Text(source))
	case brparser.KindIdentifier, brparser.KindNumberReference, brparser.KindStringReference,
		brparser.KindNumberArray, brparser.KindStringArray:
		if r, ok := findParamDef(tree, source, node); ok {
			return DefinitionResult{Kind: DefFound, Range: r}
		}
		if r, ok := findDimDef(tree, source, node.Text(source)); ok {
			return DefinitionResult{Kind: DefFound, Range: r}
		}
		return DefinitionResult{Kind: DefNone}
	default:
		return DefinitionResult{Kind: DefNone}
	}
}

// findFunctionDef skips calls to system functions (their function_name's
// parent is a system-function call node, never a user one) and otherwise
// matches the local function table case-insensitively, falling back to a
// cross-file lookup request.
func findFunctionDef(node *brparser.Node, source string, localDefs []defs.FunctionDef) DefinitionResult {
	if node.Parent != nil &&
		(node.Parent.Kind == brparser.KindNumericSystemFunction || node.Parent.Kind == brparser.KindStringSystemFunction) {
		return DefinitionResult{Kind: DefNone}
	}

	name := node.Text(source)
	for _, d := range localDefs {
		if !d.IsImportOnly && strings.EqualFold(d.Name, name) {
			return DefinitionResult{Kind: DefFound, Range: d.SelectionRange}
		}
	}
	return DefinitionResult{Kind: DefLookupFunction, FunctionName: name}
}

func findLabelDef(tree *brparser.Tree, source, refText string) DefinitionResult {
	name := strings.TrimSuffix(refText, ":")
	for _, n := range tree.Root.FindAll(brparser.KindLabel) {
		labelName := strings.TrimSuffix(n.Text(source), ":")
		if strings.EqualFold(labelName, name) {
			return DefinitionResult{Kind: DefFound, Range: trimTrailingColon(n)}
		}
	}
	return DefinitionResult{Kind: DefNone}
}

func findLineDef(tree *brparser.Tree, source, refText string) DefinitionResult {
	target, err := strconv.ParseInt(strings.TrimSpace(refText), 10, 64)
	if err != nil {
		return DefinitionResult{Kind: DefNone}
	}
	for _, n := range tree.Root.FindAll(brparser.KindLineNumber) {
		if v, err := strconv.ParseInt(strings.TrimSpace(n.Text(source)), 10, 64); err == nil && v == target {
			return DefinitionResult{Kind: DefFound, Range: rangeOf(n)}
		}
	}
	return DefinitionResult{Kind: DefNone}
}

// findParamDef looks up node as a parameter name of the function whose body
// encloses it.
func findParamDef(tree *brparser.Tree, source string, node *brparser.Node) (defs.Range, bool) {
	ranges := functionRanges(tree)
	idx := inFunction(node.StartByte, ranges)
	if idx < 0 {
		return defs.Range{}, false
	}
	name := node.Text(source)
	for _, pl := range ranges[idx].Def.ChildrenOfKind(brparser.KindParameterList) {
		for _, id := range pl.FindAll(brparser.KindIdentifier) {
			if strings.EqualFold(id.Text(source), name) {
				return rangeOf(id), true
			}
		}
	}
	return defs.Range{}, false
}

// findDimDef looks up name as a DIM-declared variable or array. Each
// variable in a DIM list is wrapped in its own node carrying the declared
// name as a "name"-field descendant, so this walks rather than checking
// direct children.
func findDimDef(tree *brparser.Tree, source, name string) (defs.Range, bool) {
	var found *brparser.Node
	for _, dim := range tree.Root.FindAll(brparser.KindDimStatement) {
		if found != nil {
			break
		}
		dim.Walk(func(c *brparser.Node) {
			if found == nil && c.Field == "name" && strings.EqualFold(c.Text(source), name) {
				found = c
			}
		})
	}
	if found == nil {
		return defs.Range{}, false
	}
	return rangeOf(found), true
}
