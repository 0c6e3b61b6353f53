package lsp

import (
	"encoding/json"

	"github.com/christopherroyshields/br-lsp/internal/config"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/document"
	"github.com/christopherroyshields/br-lsp/internal/layout"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

type workspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type initializeParams struct {
	RootURI          string            `json:"rootUri"`
	WorkspaceFolders []workspaceFolder `json:"workspaceFolders"`
}

func (s *Server) handleInitialize(req Request) {
	var p initializeParams
	_ = json.Unmarshal(req.Params, &p)
	s.rootURI = p.RootURI
	if len(p.WorkspaceFolders) > 0 {
		for _, f := range p.WorkspaceFolders {
			s.folders = append(s.folders, f.URI)
		}
	} else if s.rootURI != "" {
		s.folders = []string{s.rootURI}
	}

	if root := uriToPath(s.rootURI); root != "" {
		if cfg, err := config.Load(root); err == nil {
			s.setConfig(cfg)
		} else if s.log != nil {
			s.log.Warnw("br-lsp.toml load failed, using defaults", "error", err)
		}
	}

	caps := map[string]any{
		"positionEncoding": "utf-16",
		"textDocumentSync": map[string]any{
			"openClose": true,
			"change":    2,
			"save":      map[string]any{"includeText": false},
		},
		"completionProvider": map[string]any{
			"triggerCharacters": []string{"(", ",", " "},
			"resolveProvider":   true,
		},
		"hoverProvider":          true,
		"definitionProvider":     true,
		"referencesProvider":     true,
		"documentSymbolProvider": true,
		"workspaceSymbolProvider": true,
		"renameProvider":         map[string]any{"prepareProvider": true},
		"signatureHelpProvider":  map[string]any{"triggerCharacters": []string{"(", ","}},
		"codeActionProvider":     map[string]any{"codeActionKinds": []string{"quickfix"}},
		"semanticTokensProvider": map[string]any{
			"legend": map[string]any{
				"tokenTypes":     semanticTokenTypes(),
				"tokenModifiers": semanticTokenModifiers(),
			},
			"full": true,
		},
		"executeCommandProvider": map[string]any{
			"commands": []string{"br-lsp.scanAll"},
		},
		"workspace": map[string]any{
			"workspaceFolders": map[string]any{"supported": true, "changeNotifications": true},
		},
	}

	s.reply(req.ID, map[string]any{
		"capabilities": caps,
		"serverInfo":   map[string]any{"name": "br-lsp", "version": "dev"},
	})
}

func (s *Server) handleInitialized(req Request) {
	go s.scanWorkspace()
}

type didOpenParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Text    string `json:"text"`
		Version int    `json:"version"`
	} `json:"textDocument"`
}

func (s *Server) handleDidOpen(req Request) {
	var p didOpenParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	uri, text := p.TextDocument.URI, p.TextDocument.Text
	kind := classifyKind(uri)
	st := s.docs.DidOpen(uri, text, kind)

	switch kind {
	case document.KindLayout:
		s.layouts.Add(uri, layout.Parse(text))
	case document.KindBR:
		s.reindexAndPublish(uri, st)
	}
}

type didChangeParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	ContentChanges []json.RawMessage `json:"contentChanges"`
}

func (s *Server) handleDidChange(req Request) {
	var p didChangeParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	uri := p.TextDocument.URI
	cur, ok := s.docs.Get(uri)
	if !ok {
		return
	}

	changes := make([]document.Change, 0, len(p.ContentChanges))
	for _, raw := range p.ContentChanges {
		var full struct {
			Text string `json:"text"`
		}
		var incr struct {
			Range struct {
				Start lspPos `json:"start"`
				End   lspPos `json:"end"`
			} `json:"range"`
			Text string `json:"text"`
		}
		var hasRange struct {
			Range json.RawMessage `json:"range"`
		}
		_ = json.Unmarshal(raw, &full)
		_ = json.Unmarshal(raw, &incr)
		_ = json.Unmarshal(raw, &hasRange)

		if hasRange.Range == nil {
			changes = append(changes, document.Change{Text: full.Text})
			continue
		}
		source := cur.Rope.Bytes()
		sLine, sCol := toByteLineCol(source, incr.Range.Start)
		eLine, eCol := toByteLineCol(source, incr.Range.End)
		changes = append(changes, document.Change{
			HasRange: true, StartLine: sLine, StartCol: sCol,
			EndLine: eLine, EndCol: eCol, Text: incr.Text,
		})
	}

	st, ok := s.docs.DidChange(uri, changes)
	if !ok {
		return
	}
	if classifyKind(uri) == document.KindLayout {
		s.layouts.Update(uri, layout.Parse(st.Rope.Bytes()))
		return
	}
	s.reindexAndPublish(uri, st)
}

type didCloseParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
}

func (s *Server) handleDidClose(req Request) {
	var p didCloseParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	uri := p.TextDocument.URI
	s.docs.DidClose(uri)
	if classifyKind(uri) == document.KindLayout {
		s.layouts.Remove(uri)
		return
	}
	s.index.RemoveFile(uri)
	s.notify("textDocument/publishDiagnostics", map[string]any{"uri": uri, "diagnostics": []any{}})
}

type didChangeConfigParams struct {
	Settings struct {
		BRLSP struct {
			Diagnostics config.DiagnosticsConfig `json:"diagnostics"`
		} `json:"br-lsp"`
	} `json:"settings"`
}

func (s *Server) handleDidChangeConfiguration(req Request) {
	var p didChangeConfigParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	cfg := s.config()
	cfg.ApplyDiagnosticsSection(p.Settings.BRLSP.Diagnostics)
	s.setConfig(cfg)
	s.republishAllDiagnostics()
}

// reindexAndPublish extracts uri's function defs and library links into the
// workspace index, then runs and publishes diagnostics for it.
func (s *Server) reindexAndPublish(uri string, st *document.State) {
	source := st.Rope.Bytes()
	defList := defs.Extract(st.Tree, source)
	s.index.UpdateFile(uri, defList)
	s.index.SetLibraryLinks(uri, workspace.ExtractLibraryLinks(st.Tree, source))
	s.index.SetFingerprint(uri, source)
	s.publishDiagnosticsFor(uri, st.Tree, source, defList)
}

func (s *Server) republishAllDiagnostics() {
	for _, uri := range s.docs.URIs() {
		st, ok := s.docs.Get(uri)
		if !ok || st.Kind != document.KindBR {
			continue
		}
		source := st.Rope.Bytes()
		s.publishDiagnosticsFor(uri, st.Tree, source, defs.Extract(st.Tree, source))
	}
}
