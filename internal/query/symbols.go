package query

import (
	"sort"
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

// SymbolKind classifies a DocumentSymbol.
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolVariable
	SymbolLabel
)

// DocumentSymbol is one entry in a file's outline.
type DocumentSymbol struct {
	Name           string
	Detail         string
	Kind           SymbolKind
	Range          defs.Range
	SelectionRange defs.Range
}

// CollectDocumentSymbols walks the tree for DEFs, DIM-declared variables,
// and labels, sorted by position.
func CollectDocumentSymbols(tree *brparser.Tree, source string) []DocumentSymbol {
	var out []DocumentSymbol
	walkSymbols(tree.Root, source, &out)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.StartLine != out[j].Range.StartLine {
			return out[i].Range.StartLine < out[j].Range.StartLine
		}
		return out[i].Range.StartCol < out[j].Range.StartCol
	})
	return out
}

// walkSymbols does not recurse into a matched def/dim/label node — those
// subtrees hold nothing else worth surfacing as a symbol.
func walkSymbols(n *brparser.Node, source string, out *[]DocumentSymbol) {
	switch n.Kind {
	case brparser.KindDefStatement:
		if sym, ok := makeFunctionSymbol(n, source); ok {
			*out = append(*out, sym)
		}
		return
	case brparser.KindDimStatement:
		collectDimVars(n, source, out)
		return
	case brparser.KindLabel:
		if sym, ok := makeLabelSymbol(n, source); ok {
			*out = append(*out, sym)
		}
		return
	}
	for _, c := range n.Children {
		walkSymbols(c, source, out)
	}
}

func makeFunctionSymbol(n *brparser.Node, source string) (DocumentSymbol, bool) {
	fnameNode := findChildByKind(n, brparser.KindFunctionName)
	if fnameNode == nil {
		return DocumentSymbol{}, false
	}
	name := fnameNode.Text(source)
	if name == "" {
		return DocumentSymbol{}, false
	}
	return DocumentSymbol{
		Name: name, Detail: "function", Kind: SymbolFunction,
		Range: rangeOf(n), SelectionRange: rangeOf(fnameNode),
	}, true
}

// collectDimVars walks each DIM entry's per-variable wrapper node for its
// "name"-field child, the same nesting findDimDef walks through.
func collectDimVars(n *brparser.Node, source string, out *[]DocumentSymbol) {
	for _, wrapper := range n.Children {
		var nameNode *brparser.Node
		for _, c := range wrapper.Children {
			if c.Field == "name" {
				nameNode = c
				break
			}
		}
		if nameNode == nil {
			continue
		}
		detail, ok := dimDetail(nameNode.Kind)
		if !ok {
			continue
		}
		name := nameNode.Text(source)
		if name == "" {
			continue
		}
		r := rangeOf(nameNode)
		*out = append(*out, DocumentSymbol{Name: name, Detail: detail, Kind: SymbolVariable, Range: r, SelectionRange: r})
	}
}

func dimDetail(kind string) (string, bool) {
	switch kind {
	case brparser.KindStringReference:
		return "string", true
	case brparser.KindNumberReference:
		return "number", true
	case brparser.KindStringArray:
		return "stringarray", true
	case brparser.KindNumberArray:
		return "numberarray", true
	default:
		return "", false
	}
}

func makeLabelSymbol(n *brparser.Node, source string) (DocumentSymbol, bool) {
	name := strings.TrimSuffix(n.Text(source), ":")
	if name == "" {
		return DocumentSymbol{}, false
	}
	return DocumentSymbol{
		Name: name, Detail: "label", Kind: SymbolLabel,
		Range: rangeOf(n), SelectionRange: trimTrailingColon(n),
	}, true
}

func findChildByKind(n *brparser.Node, kind string) *brparser.Node {
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := findChildByKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}

// WorkspaceSymbol is one match for a workspace/symbol query: a function
// definition somewhere in the indexed workspace.
type WorkspaceSymbol struct {
	Name string
	URI  string
	// SelectionRange is the definition's own name (what the editor jumps
	// to), not the full DEF...FNEND span.
	SelectionRange defs.Range
}

// FindWorkspaceSymbols filters every indexed function definition by a
// case-insensitive substring match against query, returning all of them when
// query is empty. Import-only stubs (names listed in a LIBRARY statement's
// import list but defined elsewhere) are included like any other indexed def — the original
// query filters on name alone and does not special-case them.
func FindWorkspaceSymbols(index *workspace.Index, query string) []WorkspaceSymbol {
	if index == nil {
		return nil
	}
	needle := strings.ToLower(query)
	all := index.AllSymbols()
	out := make([]WorkspaceSymbol, 0, len(all))
	for _, s := range all {
		if needle != "" && !strings.Contains(strings.ToLower(s.Def.Name), needle) {
			continue
		}
		out = append(out, WorkspaceSymbol{
			Name:           s.Def.Name,
			URI:            s.URI,
			SelectionRange: s.Def.SelectionRange,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].URI < out[j].URI
	})
	return out
}
