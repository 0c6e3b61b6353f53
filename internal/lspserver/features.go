package lsp

import (
	"encoding/json"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/document"
	"github.com/christopherroyshields/br-lsp/internal/query"
	"github.com/christopherroyshields/br-lsp/internal/semtok"
)

func semanticTokenTypes() []string     { return semtok.TokenTypeNames }
func semanticTokenModifiers() []string { return semtok.TokenModifierNames }

type textDocPosParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position lspPos `json:"position"`
}

// currentFile returns uri's open document state and source text, or
// ok=false if it is not open or is not a BR source file.
func (s *Server) currentFile(uri string) (st *document.State, source string, ok bool) {
	st, ok = s.docs.Get(uri)
	if !ok || st.Kind != document.KindBR {
		return nil, "", false
	}
	return st, st.Rope.Bytes(), true
}

func (s *Server) handleHover(req Request) {
	var p textDocPosParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	line, col := toByteLineCol(source, p.Position)
	links := s.index.Links(p.TextDocument.URI)
	result, ok := query.GetHover(st.Tree, source, p.TextDocument.URI, line, col, s.index, links, s.folders)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	s.reply(req.ID, map[string]any{
		"contents": map[string]any{"kind": "markdown", "value": result.Contents},
		"range":    brRangeToLSP(source, result.Range.StartLine, result.Range.StartCol, result.Range.EndLine, result.Range.EndCol),
	})
}

func completionItemKind(k query.ItemKind) int {
	switch k {
	case query.ItemFunction:
		return 3 // Function
	case query.ItemVariable:
		return 6 // Variable
	default:
		return 14 // Keyword
	}
}

func (s *Server) handleCompletion(req Request) {
	var p textDocPosParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	var tree *brparser.Tree
	line, col := 0, 0
	if ok {
		tree = st.Tree
		line, col = toByteLineCol(source, p.Position)
	}
	items := query.GetCompletions(tree, source, p.TextDocument.URI, line, col, s.index)

	out := make([]map[string]any, len(items))
	for i, it := range items {
		entry := map[string]any{
			"label": it.Label,
			"kind":  completionItemKind(it.Kind),
		}
		if it.Detail != "" {
			entry["detail"] = it.Detail
		}
		if it.Description != "" {
			entry["labelDetails"] = map[string]any{"description": it.Description}
		}
		if it.Documentation != "" {
			entry["documentation"] = map[string]any{"kind": "markdown", "value": it.Documentation}
		}
		if it.Data != nil {
			entry["data"] = it.Data
		}
		out[i] = entry
	}
	s.reply(req.ID, out)
}

func (s *Server) handleCompletionResolve(req Request) {
	var item struct {
		Data *query.CompletionData `json:"data"`
	}
	if err := json.Unmarshal(req.Params, &item); err != nil || item.Data == nil {
		s.reply(req.ID, json.RawMessage(req.Params))
		return
	}
	var tree *brparser.Tree
	var source string
	if item.Data.Kind == query.DataLocal && item.Data.URI != "" {
		if t, src, ok := s.loadSource(item.Data.URI); ok {
			tree, source = t, src
		}
	}
	doc, ok := query.ResolveCompletion(item.Data, tree, source, s.index)

	var raw map[string]any
	_ = json.Unmarshal(req.Params, &raw)
	if raw == nil {
		raw = map[string]any{}
	}
	if ok {
		raw["documentation"] = map[string]any{"kind": "markdown", "value": doc}
	}
	s.reply(req.ID, raw)
}

func (s *Server) handleSignatureHelp(req Request) {
	var p textDocPosParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	line, col := toByteLineCol(source, p.Position)
	localDefs := defs.Extract(st.Tree, source)
	help, ok := query.GetSignatureHelp(st.Tree, source, line, col, localDefs)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	sigs := make([]map[string]any, len(help.Signatures))
	for i, sig := range help.Signatures {
		params := make([]map[string]any, len(sig.ParamLabels))
		for j, pl := range sig.ParamLabels {
			params[j] = map[string]any{"label": pl}
		}
		entry := map[string]any{"label": sig.Label, "parameters": params}
		if sig.Documentation != "" {
			entry["documentation"] = map[string]any{"kind": "markdown", "value": sig.Documentation}
		}
		sigs[i] = entry
	}
	s.reply(req.ID, map[string]any{
		"signatures":      sigs,
		"activeSignature": help.ActiveSignature,
		"activeParameter": help.ActiveParameter,
	})
}

func (s *Server) handleDefinition(req Request) {
	var p textDocPosParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	line, col := toByteLineCol(source, p.Position)
	localDefs := defs.Extract(st.Tree, source)
	result := query.FindDefinition(st.Tree, source, line, col, localDefs)

	switch result.Kind {
	case query.DefFound:
		s.reply(req.ID, []map[string]any{{
			"uri":   p.TextDocument.URI,
			"range": brRangeToLSP(source, result.Range.StartLine, result.Range.StartCol, result.Range.EndLine, result.Range.EndCol),
		}})
	case query.DefLookupFunction:
		links := s.index.Links(p.TextDocument.URI)
		matches := s.index.LookupPrioritizedWithLinks(result.FunctionName, p.TextDocument.URI, links, s.folders)
		if len(matches) == 0 {
			s.reply(req.ID, nil)
			return
		}
		best := matches[0]
		_, defSource, ok := s.loadSource(best.URI)
		if !ok {
			s.reply(req.ID, nil)
			return
		}
		r := best.Def.SelectionRange
		s.reply(req.ID, []map[string]any{{
			"uri":   best.URI,
			"range": brRangeToLSP(defSource, r.StartLine, r.StartCol, r.EndLine, r.EndCol),
		}})
	default:
		s.reply(req.ID, nil)
	}
}

type referencesParams struct {
	textDocPosParams
	Context struct {
		IncludeDeclaration bool `json:"includeDeclaration"`
	} `json:"context"`
}

func (s *Server) handleReferences(req Request) {
	var p referencesParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	line, col := toByteLineCol(source, p.Position)

	// A non-builtin function name's callers can live in any file, so
	// references search widens to the whole workspace; a builtin's "callers"
	// are meaningless to search for beyond the current file, and every
	// other navigable kind (labels, line numbers, variables) is scoped to
	// the current file by BR itself.
	if name, ok := query.FunctionNameAt(st.Tree, source, line, col); ok && !builtins.IsBuiltin(name) {
		out := make([]map[string]any, 0)
		for _, ur := range s.findFunctionReferencesWorkspace(name) {
			for _, r := range ur.Ranges {
				out = append(out, map[string]any{
					"uri":   ur.URI,
					"range": brRangeToLSP(ur.Source, r.StartLine, r.StartCol, r.EndLine, r.EndCol),
				})
			}
		}
		s.reply(req.ID, out)
		return
	}

	ranges := query.FindReferences(st.Tree, source, line, col)
	out := make([]map[string]any, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, map[string]any{
			"uri":   p.TextDocument.URI,
			"range": brRangeToLSP(source, r.StartLine, r.StartCol, r.EndLine, r.EndCol),
		})
	}
	s.reply(req.ID, out)
}

func (s *Server) handlePrepareRename(req Request) {
	var p textDocPosParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	line, col := toByteLineCol(source, p.Position)
	target, ok := query.PrepareRename(st.Tree, source, line, col)
	if !ok {
		s.reply(req.ID, nil)
		return
	}
	s.reply(req.ID, map[string]any{
		"range":       brRangeToLSP(source, target.Range.StartLine, target.Range.StartCol, target.Range.EndLine, target.Range.EndCol),
		"placeholder": target.Placeholder,
	})
}

type renameParams struct {
	textDocPosParams
	NewName string `json:"newName"`
}

func (s *Server) handleRename(req Request) {
	var p renameParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.replyError(req.ID, -32602, "document not open")
		return
	}
	line, col := toByteLineCol(source, p.Position)

	// User-function renames are workspace-wide: every call site, in every
	// file, must be edited in the same request. Every other renameable kind
	// (labels, variables) never leaves the current file.
	if name, ok := query.FunctionNameAt(st.Tree, source, line, col); ok {
		if builtins.IsBuiltin(name) {
			s.replyError(req.ID, -32803, "nothing to rename here")
			return
		}
		perFile := s.findFunctionReferencesWorkspace(name)
		if len(perFile) == 0 {
			s.replyError(req.ID, -32803, "nothing to rename here")
			return
		}
		changes := make(map[string]any, len(perFile))
		for _, ur := range perFile {
			edits := make([]map[string]any, len(ur.Ranges))
			for i, r := range ur.Ranges {
				edits[i] = map[string]any{
					"range":   brRangeToLSP(ur.Source, r.StartLine, r.StartCol, r.EndLine, r.EndCol),
					"newText": p.NewName,
				}
			}
			changes[ur.URI] = edits
		}
		s.reply(req.ID, map[string]any{"changes": changes})
		return
	}

	ranges := query.ComputeRenames(st.Tree, source, line, col)
	if len(ranges) == 0 {
		s.replyError(req.ID, -32803, "nothing to rename here")
		return
	}

	edits := make([]map[string]any, len(ranges))
	for i, r := range ranges {
		edits[i] = map[string]any{
			"range":   brRangeToLSP(source, r.StartLine, r.StartCol, r.EndLine, r.EndCol),
			"newText": p.NewName,
		}
	}
	s.reply(req.ID, map[string]any{
		"changes": map[string]any{p.TextDocument.URI: edits},
	})
}

func documentSymbolKind(k query.SymbolKind) int {
	switch k {
	case query.SymbolFunction:
		return 12 // Function
	case query.SymbolVariable:
		return 13 // Variable
	default:
		return 13 // treat labels as variables (no closer LSP SymbolKind exists)
	}
}

func (s *Server) handleDocumentSymbol(req Request) {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, []any{})
		return
	}
	symbols := query.CollectDocumentSymbols(st.Tree, source)
	out := make([]map[string]any, len(symbols))
	for i, sym := range symbols {
		out[i] = map[string]any{
			"name":           sym.Name,
			"detail":         sym.Detail,
			"kind":           documentSymbolKind(sym.Kind),
			"range":          brRangeToLSP(source, sym.Range.StartLine, sym.Range.StartCol, sym.Range.EndLine, sym.Range.EndCol),
			"selectionRange": brRangeToLSP(source, sym.SelectionRange.StartLine, sym.SelectionRange.StartCol, sym.SelectionRange.EndLine, sym.SelectionRange.EndCol),
		}
	}
	s.reply(req.ID, out)
}

func (s *Server) handleWorkspaceSymbol(req Request) {
	var p struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	symbols := query.FindWorkspaceSymbols(s.index, p.Query)
	out := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		_, source, ok := s.loadSource(sym.URI)
		if !ok {
			continue
		}
		r := sym.SelectionRange
		out = append(out, map[string]any{
			"name": sym.Name,
			"kind": 12, // Function
			"location": map[string]any{
				"uri":   sym.URI,
				"range": brRangeToLSP(source, r.StartLine, r.StartCol, r.EndLine, r.EndCol),
			},
		})
	}
	s.reply(req.ID, out)
}

func (s *Server) handleSemanticTokensFull(req Request) {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, map[string]any{"data": []uint32{}})
		return
	}
	encoded := query.CollectSemanticTokens(st.Tree, source)
	s.reply(req.ID, map[string]any{"data": semtok.Flatten(encoded)})
}

func (s *Server) handleCodeAction(req Request) {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
		Context struct {
			Diagnostics []map[string]any `json:"diagnostics"`
		} `json:"context"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	st, source, ok := s.currentFile(p.TextDocument.URI)
	if !ok {
		s.reply(req.ID, []any{})
		return
	}

	var actions []map[string]any
	for _, raw := range p.Context.Diagnostics {
		diag, ok := diagnosticFromLSP(source, raw)
		if !ok {
			continue
		}
		action, ok := query.GenerateFunctionStub(p.TextDocument.URI, diag, st.Tree, source)
		if !ok {
			continue
		}
		edits := make([]map[string]any, len(action.Edits))
		for i, e := range action.Edits {
			edits[i] = map[string]any{
				"range":   brRangeToLSP(source, e.Range.StartLine, e.Range.StartCol, e.Range.EndLine, e.Range.EndCol),
				"newText": e.NewText,
			}
		}
		actions = append(actions, map[string]any{
			"title": action.Title,
			"kind":  "quickfix",
			"diagnostics": []map[string]any{raw},
			"edit": map[string]any{
				"changes": map[string]any{p.TextDocument.URI: edits},
			},
		})
	}
	if actions == nil {
		actions = []map[string]any{}
	}
	s.reply(req.ID, actions)
}
