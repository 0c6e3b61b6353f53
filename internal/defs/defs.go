// Package defs extracts FunctionDef/ParamInfo records from a parsed BR tree.
package defs

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
)

// ParamKind classifies a parameter's (and argument's) coarse BR type.
type ParamKind int

const (
	KindNumeric ParamKind = iota
	KindString
	KindNumericArray
	KindStringArray
)

// ParamInfo describes one parameter of a function definition.
type ParamInfo struct {
	Name          string
	Kind          ParamKind
	IsOptional    bool
	IsReference   bool
	Documentation string
}

// FunctionDef is one function definition or library import entry.
type FunctionDef struct {
	Name                string
	Range               Range
	SelectionRange      Range
	IsLibrary           bool
	IsImportOnly        bool
	Params              []ParamInfo
	HasParamSubstitution bool
	Documentation        string
	ReturnDocumentation  string
}

// Range is a half-open byte/point span.
type Range struct {
	StartByte, EndByte uint32
	StartLine, StartCol int
	EndLine, EndCol     int
}

func rangeOf(n *brparser.Node) Range {
	return Range{
		StartByte: n.StartByte, EndByte: n.EndByte,
		StartLine: n.StartPoint.Row, StartCol: n.StartPoint.Column,
		EndLine: n.EndPoint.Row, EndCol: n.EndPoint.Column,
	}
}

// Extract walks tree's top-level statements and returns every FunctionDef
// found: one per def_statement (with a body) and one per name listed in a
// library_statement's import list.
func Extract(tree *brparser.Tree, source string) []FunctionDef {
	var out []FunctionDef
	defNodes := tree.Root.FindAll(brparser.KindDefStatement)
	for i, n := range defNodes {
		fd := extractDef(n, source)
		fd.Documentation, fd.ReturnDocumentation = associateDocComment(tree, n, fd.Params)
		out = append(out, fd)
		_ = i
	}

	for _, n := range tree.Root.FindAll(brparser.KindLibraryStatement) {
		for _, fnameNode := range n.ChildrenOfKind(brparser.KindFunctionName) {
			name := fnameNode.Text(source)
			out = append(out, FunctionDef{
				Name:         name,
				Range:        rangeOf(n),
				SelectionRange: rangeOf(fnameNode),
				IsLibrary:    true,
				IsImportOnly: true,
			})
		}
	}
	return out
}

func extractDef(n *brparser.Node, source string) FunctionDef {
	fnameNode := n.ChildByField("function_name")
	name := ""
	var sel Range
	if fnameNode != nil {
		name = fnameNode.Text(source)
		sel = rangeOf(fnameNode)
	}

	var params []ParamInfo
	hasSub := false
	for _, pl := range n.ChildrenOfKind(brparser.KindParameterList) {
		optional := false
		for _, c := range pl.Children {
			if c.Kind == brparser.KindOperator && c.Text(source) == ";" {
				optional = true
				continue
			}
			p, ok := paramInfoFromNode(c, source)
			if !ok {
				continue
			}
			p.IsOptional = optional
			params = append(params, p)
			if hasSubstitutionDescendant(c) {
				hasSub = true
			}
		}
	}

	isLibrary := false
	for _, c := range n.ChildrenOfKind(brparser.KindKeyword) {
		if strings.EqualFold(c.Text(source), "library") {
			isLibrary = true
		}
	}

	return FunctionDef{
		Name:                 name,
		Range:                rangeOf(n),
		SelectionRange:       sel,
		IsLibrary:            isLibrary,
		Params:               params,
		HasParamSubstitution: hasSub,
	}
}

func hasSubstitutionDescendant(n *brparser.Node) bool {
	found := false
	n.Walk(func(c *brparser.Node) {
		if c.Kind == brparser.KindSubstitution {
			found = true
		}
	})
	return found
}

func paramInfoFromNode(n *brparser.Node, source string) (ParamInfo, bool) {
	var kind ParamKind
	switch n.Kind {
	case brparser.KindNumericParameter:
		kind = KindNumeric
	case brparser.KindStringParameter:
		kind = KindString
	case brparser.KindNumericArrayParameter:
		kind = KindNumericArray
	case brparser.KindStringArrayParameter:
		kind = KindStringArray
	default:
		return ParamInfo{}, false
	}

	isRef := false
	var name string
	for _, c := range n.Children {
		if c.Kind == brparser.KindOperator && c.Text(source) == "&" {
			isRef = true
		}
		if c.Field == "name" {
			name = c.Text(source)
		}
	}
	return ParamInfo{Name: name, Kind: kind, IsReference: isRef}, true
}

// associateDocComment looks at the source line immediately preceding def's
// line number for a doc_comment node and parses it JSDoc-lite: free text
// before any @tag becomes the description, "@param NAME text" attaches to
// the matching parameter (case-insensitive), "@return(s) text" fills the
// return doc.
func associateDocComment(tree *brparser.Tree, def *brparser.Node, params []ParamInfo) (description, returnDoc string) {
	idx := -1
	siblings := tree.Root.Children
	for i, c := range siblings {
		if nodeContains(c, def) {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return "", ""
	}
	var lines []string
	for j := idx - 1; j >= 0; j-- {
		c := findDocComment(siblings[j])
		if c == nil {
			break
		}
		lines = append([]string{c.Text(tree.Source)}, lines...)
	}
	if len(lines) == 0 {
		return "", ""
	}
	return parseJSDocLite(strings.Join(lines, "\n"), params)
}

func nodeContains(wrapper, target *brparser.Node) bool {
	if wrapper == target {
		return true
	}
	for _, c := range wrapper.Children {
		if c == target {
			return true
		}
	}
	return false
}

func findDocComment(n *brparser.Node) *brparser.Node {
	if n.Kind == brparser.KindDocComment {
		return n
	}
	for _, c := range n.Children {
		if d := findDocComment(c); d != nil {
			return d
		}
	}
	return nil
}

func parseJSDocLite(text string, params []ParamInfo) (description, returnDoc string) {
	lines := strings.Split(text, "\n")
	var descLines []string
	for _, line := range lines {
		line = strings.TrimPrefix(strings.TrimSpace(line), "!")
		line = strings.TrimPrefix(line, "@")
		switch {
		case strings.HasPrefix(strings.ToLower(line), "param "):
			rest := strings.TrimSpace(line[len("param "):])
			parts := strings.SplitN(rest, " ", 2)
			if len(parts) == 0 {
				continue
			}
			pname := parts[0]
			pdoc := ""
			if len(parts) == 2 {
				pdoc = strings.TrimSpace(parts[1])
			}
			for i := range params {
				if strings.EqualFold(params[i].Name, pname) {
					params[i].Documentation = pdoc
				}
			}
		case strings.HasPrefix(strings.ToLower(line), "return "):
			returnDoc = strings.TrimSpace(line[len("return "):])
		case strings.HasPrefix(strings.ToLower(line), "returns "):
			returnDoc = strings.TrimSpace(line[len("returns "):])
		default:
			if strings.TrimSpace(line) != "" {
				descLines = append(descLines, strings.TrimSpace(line))
			}
		}
	}
	return strings.Join(descLines, "\n"), returnDoc
}

// FormatSignature renders a function's label: visible params stop at the
// first one named with a "___" prefix (a hidden-trailing-parameter
// convention). Optional params render as "[name]", arrays as "mat name",
// references as "&name", combined in that order.
func FormatSignature(name string, params []ParamInfo) string {
	label, _ := formatSignature(name, params, false)
	return label
}

// FormatSignatureWithOffsets is FormatSignature plus the byte offset range
// of each rendered parameter substring within the returned label, for
// signature-help highlighting.
func FormatSignatureWithOffsets(name string, params []ParamInfo) (string, []Range) {
	return formatSignature(name, params, true)
}

func formatSignature(name string, params []ParamInfo, withOffsets bool) (string, []Range) {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("(")
	var offsets []Range
	first := true
	for _, p := range params {
		if strings.HasPrefix(p.Name, "___") {
			break
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		start := b.Len()
		rendered := p.Name
		if p.IsReference {
			rendered = "&" + rendered
		}
		if p.Kind == KindNumericArray || p.Kind == KindStringArray {
			rendered = "mat " + rendered
		}
		if p.IsOptional {
			rendered = "[" + rendered + "]"
		}
		b.WriteString(rendered)
		if withOffsets {
			offsets = append(offsets, Range{StartByte: uint32(start), EndByte: uint32(b.Len())})
		}
	}
	b.WriteString(")")
	return b.String(), offsets
}
