package query

import (
	"path"
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

// HoverResult is the markdown content and source range to underline for a
// hover request.
type HoverResult struct {
	Contents string
	Range    defs.Range
}

// GetHover finds the function_name node at the cursor and renders its
// documentation: builtin overloads (one code block per overload, joined by
// "---") if it names a system function, else the workspace-prioritized
// definition(s) — every distinct non-import-only signature, tagged with its
// defining filename, also joined by "---" when more than one file defines
// it.
func GetHover(tree *brparser.Tree, source, currentURI string, line, col int, index *workspace.Index, libraryLinks map[string]string, workspaceFolders []string) (HoverResult, bool) {
	n := tree.NodeAt(line, col)
	if n == nil || n.Kind != brparser.KindFunctionName {
		return HoverResult{}, false
	}
	name := n.Text(source)
	if name == "" {
		return HoverResult{}, false
	}

	if overloads := builtins.Lookup(name); len(overloads) > 0 {
		parts := make([]string, len(overloads))
		for i, fn := range overloads {
			parts[i] = formatBuiltinDocs(fn)
		}
		return HoverResult{Contents: strings.Join(parts, "\n\n---\n\n"), Range: rangeOf(n)}, true
	}

	if index == nil {
		return HoverResult{}, false
	}
	entries := index.LookupPrioritizedWithLinks(name, currentURI, libraryLinks, workspaceFolders)

	type rendered struct {
		sig, doc, filename string
	}
	var distinct []rendered
	seen := map[string]bool{}
	for _, e := range entries {
		if e.Def.IsImportOnly {
			continue
		}
		sig := defs.FormatSignature(e.Def.Name, e.Def.Params)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		distinct = append(distinct, rendered{sig: sig, doc: formatFunctionDocs(e.Def), filename: path.Base(e.URI)})
	}
	if len(distinct) == 0 {
		return HoverResult{}, false
	}

	parts := make([]string, len(distinct))
	for i, r := range distinct {
		if len(distinct) > 1 {
			parts[i] = r.doc + "\n\n*from* `" + r.filename + "`"
		} else {
			parts[i] = r.doc
		}
	}
	return HoverResult{Contents: strings.Join(parts, "\n\n---\n\n"), Range: rangeOf(n)}, true
}
