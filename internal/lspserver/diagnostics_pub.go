package lsp

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/diagnostics"
)

// publishDiagnosticsFor runs the configured check families over uri's tree
// and sends the result as a textDocument/publishDiagnostics notification.
// workspaceHasFunction queries the shared index, so a function defined in
// another open (or scanned) file is never flagged as undefined.
func (s *Server) publishDiagnosticsFor(uri string, tree *brparser.Tree, source string, defList []defs.FunctionDef) {
	engine := diagnostics.NewEngine(s.config().Diagnostics)
	diags := engine.Run(tree, source, defList, func(name string) bool {
		return len(s.index.Lookup(name)) > 0
	})

	out := make([]map[string]any, len(diags))
	for i, d := range diags {
		out[i] = map[string]any{
			"range":    brRangeToLSP(source, d.Range.StartLine, d.Range.StartCol, d.Range.EndLine, d.Range.EndCol),
			"severity": int(d.Severity),
			"message":  d.Message,
			"source":   "br-lsp",
		}
		if d.Code != "" {
			out[i]["code"] = d.Code
		}
	}
	s.notify("textDocument/publishDiagnostics", map[string]any{"uri": uri, "diagnostics": out})
}

// diagnosticFromLSP reconstructs a diagnostics.Diagnostic from the
// "diagnostics" array entry of a textDocument/codeAction request — the
// client echoes back exactly what publishDiagnostics sent it.
func diagnosticFromLSP(source string, raw map[string]any) (diagnostics.Diagnostic, bool) {
	rng, ok := raw["range"].(map[string]any)
	if !ok {
		return diagnostics.Diagnostic{}, false
	}
	start, _ := rng["start"].(map[string]any)
	end, _ := rng["end"].(map[string]any)
	sLine := intOf(start["line"])
	sChar := intOf(start["character"])
	eLine := intOf(end["line"])
	eChar := intOf(end["character"])

	sCol := byteColFromUTF16(lineAt(source, sLine), sChar)
	eCol := byteColFromUTF16(lineAt(source, eLine), eChar)

	code, _ := raw["code"].(string)
	message, _ := raw["message"].(string)
	return diagnostics.Diagnostic{
		Range: defs.Range{StartLine: sLine, StartCol: sCol, EndLine: eLine, EndCol: eCol},
		Code:  code, Message: strings.TrimSpace(message),
	}, true
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
