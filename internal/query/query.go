// Package query implements the server's navigation and analysis operations
// (go-to-definition, find-references, ...) directly over a parsed brparser
// tree, the way the rest of the corpus queries a tree-sitter tree.
package query

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/defs"
)

func rangeOf(n *brparser.Node) defs.Range {
	return defs.Range{
		StartByte: n.StartByte, EndByte: n.EndByte,
		StartLine: n.StartPoint.Row, StartCol: n.StartPoint.Column,
		EndLine: n.EndPoint.Row, EndCol: n.EndPoint.Column,
	}
}

// trimTrailingColon excludes a label node's trailing ":" from its range.
func trimTrailingColon(n *brparser.Node) defs.Range {
	r := rangeOf(n)
	if r.EndByte > r.StartByte {
		r.EndByte--
	}
	if r.EndCol > 0 {
		r.EndCol--
	}
	return r
}

// navigableKinds are the node kinds go-to-definition and find-references
// resolve a cursor onto.
var navigableKinds = map[string]bool{
	brparser.KindFunctionName:    true,
	brparser.KindLabel:           true,
	brparser.KindLabelRef:        true,
	brparser.KindLineNumber:      true,
	brparser.KindLineRef:         true,
	brparser.KindIdentifier:      true,
	brparser.KindNumberReference: true,
	brparser.KindStringReference: true,
	brparser.KindNumberArray:     true,
	brparser.KindStringArray:     true,
}

// resolveNode finds the node at (line, col), falling back to (line, col-1)
// when the cursor lands just past the end of a navigable token — the same
// end-of-token fallback the teacher's completion/hover handlers use.
func resolveNode(tree *brparser.Tree, line, col int) *brparser.Node {
	n := tree.NodeAt(line, col)
	if n != nil && navigableKinds[n.Kind] {
		return n
	}
	if col > 0 {
		if alt := tree.NodeAt(line, col-1); alt != nil && navigableKinds[alt.Kind] {
			return alt
		}
	}
	return n
}

// functionRange is one DEF's extent: from its def_statement's start byte to
// the FNEND that closes it. A def never closed by FNEND contributes no
// range — matching original_source/references.rs's get_function_ranges,
// which keys scoping on FNEND specifically (END DEF does not close a range
// for this purpose, since the original query never captured it either).
type functionRange struct {
	Def         *brparser.Node
	BodyEndByte uint32
}

func functionRanges(tree *brparser.Tree) []functionRange {
	type event struct {
		node  *brparser.Node
		isDef bool
	}
	var events []event
	for _, n := range tree.Root.FindAll(brparser.KindDefStatement) {
		events = append(events, event{n, true})
	}
	for _, n := range tree.Root.FindAll(brparser.KindFnEndStatement) {
		events = append(events, event{n, false})
	}
	for i := 1; i < len(events); i++ {
		j := i
		for j > 0 && events[j].node.StartByte < events[j-1].node.StartByte {
			events[j], events[j-1] = events[j-1], events[j]
			j--
		}
	}

	var ranges []functionRange
	var pending *brparser.Node
	for _, e := range events {
		if e.isDef {
			pending = e.node
			continue
		}
		if pending != nil {
			ranges = append(ranges, functionRange{Def: pending, BodyEndByte: e.node.StartByte})
			pending = nil
		}
	}
	return ranges
}

// inFunction returns the index of the functionRange containing byteOffset,
// or -1.
func inFunction(byteOffset uint32, ranges []functionRange) int {
	for i, r := range ranges {
		if byteOffset >= r.Def.StartByte && byteOffset <= r.BodyEndByte {
			return i
		}
	}
	return -1
}

// isParamOfFunction reports whether node's text names a parameter declared
// in fr's parameter list.
func isParamOfFunction(node *brparser.Node, fr functionRange, source string) bool {
	name := node.Text(source)
	for _, pl := range fr.Def.ChildrenOfKind(brparser.KindParameterList) {
		for _, id := range pl.FindAll(brparser.KindIdentifier) {
			if strings.EqualFold(id.Text(source), name) {
				return true
			}
		}
	}
	return false
}
