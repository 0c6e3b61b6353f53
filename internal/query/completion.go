package query

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

// ItemKind is the coarse LSP completion-item kind used by this package.
type ItemKind int

const (
	ItemKeyword ItemKind = iota
	ItemFunction
	ItemVariable
)

// DataKind tags which of the three completion-time lookups CompletionData
// refers to, so completion/resolve can fetch its documentation lazily.
type DataKind int

const (
	DataNone DataKind = iota
	DataBuiltin
	DataLocal
	DataWorkspace
)

// CompletionData is the payload a client echoes back on completion/resolve.
type CompletionData struct {
	Kind     DataKind
	Name     string
	Overload int    // DataBuiltin only: index into builtins.Lookup(Name)
	URI      string // DataLocal only: defining file
}

// CompletionItem is one entry of a completion list.
type CompletionItem struct {
	Label       string
	Kind        ItemKind
	Detail      string
	Description string // label-detail "description", e.g. defining filename
	Documentation string
	Data        *CompletionData
}

type statementEntry struct {
	name, description, documentation, docURL, example string
}

// statements is the BR statement-keyword table offered at every completion
// request, independent of cursor context.
var statements = []statementEntry{
	{name: "do"},
	{name: "loop"},
	{name: "if"},
	{name: "end if"},
	{name: "def"},
	{name: "def library"},
	{name: "Chain"},
	{name: "Close"},
	{name: "Continue"},
	{name: "Data"},
	{name: "Delete"},
	{name: "Dim"},
	{name: "Display"},
	{name: "End"},
	{name: "Execute"},
	{name: "Exit"},
	{name: "Exit Do"},
	{name: "Fnend"},
	{name: "Print"},
	{name: "Input"},
	{name: "Linput"},
	{name: "Rinput"},
	{name: "For"},
	{name: "Gosub"},
	{name: "Goto"},
	{name: "Library"},
	{name: "Mat"},
	{name: "On"},
	{name: "Open"},
	{name: "Pause"},
	{name: "Randomize"},
	{name: "Read"},
	{name: "Reread"},
	{name: "Write"},
	{name: "Rewrite"},
	{name: "Restore"},
	{name: "Retry"},
	{name: "Return"},
	{name: "Scr_Freeze"},
	{name: "Scr_Thaw"},
	{name: "Stop"},
	{
		name:        "Trace",
		description: "Trace [On|Off|Print]",
		documentation: "Displays or outputs the line numbers as they're executed. Used for debugging code, but the modern debugging tools are much better.",
		docURL:      "http://www.brwiki.com/index.php?search=Trace",
	},
}

type keywordEntry struct {
	name, documentation string
}

var keywords = []keywordEntry{
	{name: "while"},
	{name: "fields"},
	{name: "until"},
	{
		name:          "wait",
		documentation: "The `WAIT=` parameter and TIMEOUT error trap can be used with `INPUT`/`RINPUT`/`LInput` statements to force releasing of records. This feature is useful for multi-user situations.",
	},
}

func statementCompletions() []CompletionItem {
	out := make([]CompletionItem, 0, len(statements))
	for _, s := range statements {
		var md []string
		if s.documentation != "" {
			md = append(md, s.documentation)
		}
		if s.docURL != "" {
			md = append(md, fmt.Sprintf("[Documentation](%s)", s.docURL))
		}
		if s.example != "" {
			md = append(md, fmt.Sprintf("```br\n%s\n```", s.example))
		}
		out = append(out, CompletionItem{
			Label: s.name, Kind: ItemKeyword, Detail: s.description,
			Documentation: strings.Join(md, "\n\n"),
		})
	}
	return out
}

func keywordCompletions() []CompletionItem {
	out := make([]CompletionItem, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, CompletionItem{Label: k.name, Kind: ItemKeyword, Documentation: k.documentation})
	}
	return out
}

func builtinFunctionCompletions() []CompletionItem {
	var out []CompletionItem
	overload := map[string]int{}
	for _, name := range sortedBuiltinNames() {
		for _, fn := range builtins.Lookup(name) {
			idx := overload[strings.ToLower(name)]
			overload[strings.ToLower(name)] = idx + 1
			out = append(out, CompletionItem{
				Label: fn.Name, Kind: ItemFunction,
				Detail: "(built-in) " + fn.FormatSignature(),
				Data:   &CompletionData{Kind: DataBuiltin, Name: fn.Name, Overload: idx},
			})
		}
	}
	return out
}

// sortedBuiltinNames gives builtin_function_completions a deterministic
// iteration order; builtins.Names() walks an unordered map.
func sortedBuiltinNames() []string {
	names := builtins.Names()
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var localVarKinds = []string{
	brparser.KindStringArray, brparser.KindNumberArray,
	brparser.KindStringReference, brparser.KindNumberReference,
}

func localVarTypeLabel(kind string) string {
	switch kind {
	case brparser.KindStringArray:
		return "string array"
	case brparser.KindNumberArray:
		return "number array"
	case brparser.KindStringReference:
		return "string"
	case brparser.KindNumberReference:
		return "number"
	default:
		return ""
	}
}

func localVariableCompletions(tree *brparser.Tree, source string, line, col int) []CompletionItem {
	type key struct{ name, label string }
	seen := map[key]bool{}
	var out []CompletionItem
	for _, n := range tree.Root.FindAll(localVarKinds...) {
		if n.StartPoint.Row == line && n.StartPoint.Column <= col && col <= n.EndPoint.Column && n.EndPoint.Row == line {
			continue
		}
		name := n.Text(source)
		if name == "" {
			continue
		}
		label := localVarTypeLabel(n.Kind)
		k := key{strings.ToLower(name), label}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, CompletionItem{Label: name, Kind: ItemVariable, Detail: label})
	}
	return out
}

func localFunctionCompletions(tree *brparser.Tree, source, uri string) []CompletionItem {
	var out []CompletionItem
	for _, d := range defs.Extract(tree, source) {
		if d.IsImportOnly {
			continue
		}
		out = append(out, CompletionItem{
			Label: d.Name, Kind: ItemFunction,
			Detail: "(local) " + defs.FormatSignature(d.Name, d.Params),
			Data:   &CompletionData{Kind: DataLocal, Name: d.Name, URI: uri},
		})
	}
	return out
}

func libraryFunctionCompletions(uri string, index *workspace.Index) []CompletionItem {
	if index == nil {
		return nil
	}
	var out []CompletionItem
	for _, e := range index.UniqueFunctions(uri) {
		out = append(out, CompletionItem{
			Label: e.Def.Name, Kind: ItemFunction,
			Detail:      "(library) " + defs.FormatSignature(e.Def.Name, e.Def.Params),
			Description: path.Base(e.URI),
			Data:        &CompletionData{Kind: DataWorkspace, Name: e.Def.Name},
		})
	}
	return out
}

// GetCompletions assembles the full completion list for a cursor position:
// statement keywords, keyword tokens, builtin functions, then (if tree is
// non-nil) local variables and local functions, then cross-file workspace
// functions.
func GetCompletions(tree *brparser.Tree, source, uri string, line, col int, index *workspace.Index) []CompletionItem {
	var items []CompletionItem
	items = append(items, statementCompletions()...)
	items = append(items, keywordCompletions()...)
	items = append(items, builtinFunctionCompletions()...)

	if tree != nil {
		items = append(items, localVariableCompletions(tree, source, line, col)...)
		items = append(items, localFunctionCompletions(tree, source, uri)...)
	}

	items = append(items, libraryFunctionCompletions(uri, index)...)
	return items
}

// ResolveCompletion fills in the markdown documentation for an item whose
// Data payload was round-tripped back from the client, fetching it lazily
// the way completion/resolve defers the (sometimes expensive) docs lookup.
func ResolveCompletion(data *CompletionData, tree *brparser.Tree, source string, index *workspace.Index) (string, bool) {
	if data == nil {
		return "", false
	}
	switch data.Kind {
	case DataBuiltin:
		overloads := builtins.Lookup(data.Name)
		if data.Overload < 0 || data.Overload >= len(overloads) {
			return "", false
		}
		return formatBuiltinDocs(overloads[data.Overload]), true
	case DataLocal:
		if tree == nil {
			return "", false
		}
		for _, d := range defs.Extract(tree, source) {
			if strings.EqualFold(d.Name, data.Name) {
				return formatFunctionDocs(d), true
			}
		}
		return "", false
	case DataWorkspace:
		if index == nil {
			return "", false
		}
		for _, e := range index.Lookup(data.Name) {
			if !e.Def.IsImportOnly {
				return formatFunctionDocs(e.Def), true
			}
		}
		return "", false
	default:
		return "", false
	}
}

func formatBuiltinDocs(f builtins.Function) string {
	parts := []string{fmt.Sprintf("```br\n%s\n```", f.FormatSignature())}
	if f.Documentation != "" {
		parts = append(parts, f.Documentation)
	}
	var paramDocs []string
	for _, p := range f.Params {
		if p.Documentation != "" {
			paramDocs = append(paramDocs, fmt.Sprintf("*@param* `%s` — %s", p.Name, p.Documentation))
		}
	}
	if len(paramDocs) > 0 {
		parts = append(parts, strings.Join(paramDocs, "\n\n"))
	}
	return strings.Join(parts, "\n\n")
}

func formatFunctionDocs(d defs.FunctionDef) string {
	parts := []string{fmt.Sprintf("```br\n%s\n```", defs.FormatSignature(d.Name, d.Params))}
	if d.Documentation != "" {
		parts = append(parts, d.Documentation)
	}
	var paramDocs []string
	for _, p := range d.Params {
		if p.Documentation != "" {
			paramDocs = append(paramDocs, fmt.Sprintf("*@param* `%s` — %s", p.Name, p.Documentation))
		}
	}
	if len(paramDocs) > 0 {
		parts = append(parts, strings.Join(paramDocs, "\n\n"))
	}
	if d.ReturnDocumentation != "" {
		parts = append(parts, fmt.Sprintf("*@returns* — %s", d.ReturnDocumentation))
	}
	return strings.Join(parts, "\n\n")
}
