package lsp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/defs"
)

// col finds the byte column of needle on source's 0-based line lineIdx.
func col(source string, lineIdx int, needle string) int {
	lines := strings.Split(source, "\n")
	return strings.Index(lines[lineIdx], needle)
}

func TestHandleDefinitionHonorsLibraryLink(t *testing.T) {
	s, out := newTestServer(t)

	// linked.brs really defines fnFoo; opening it lets the ordinary
	// didOpen path populate the index with its real (non-library)
	// IndexedFunctionDef, the same way a workspace scan would.
	s.dispatch(Request{
		JSONRPC: "2.0", Method: "textDocument/didOpen",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///linked.brs", "text": "def fnFoo(x)\nlet fnFoo=x\nfnend\n", "version": 1},
		}),
	})
	readFrame(t, out) // publishDiagnostics

	// A second, unrelated file also exports a library fnFoo with no link
	// from main.brs — this is the entry LookupBest (which always passes
	// nil links) would have picked, since "is_library" outranks a plain
	// match when no link bucket is reachable.
	s.index.AddFile("file:///liba.brs", []defs.FunctionDef{{Name: "fnFoo", IsLibrary: true}})

	mainText := "let y=fnFoo(1)\n"
	s.dispatch(Request{
		JSONRPC: "2.0", Method: "textDocument/didOpen",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///main.brs", "text": mainText, "version": 1},
		}),
	})
	readFrame(t, out) // publishDiagnostics

	// main.brs has an explicit LIBRARY link to linked.brs, not liba.brs.
	s.index.SetLibraryLinks("file:///main.brs", map[string]string{"fnfoo": "linked"})

	c := col(mainText, 0, "fnFoo")
	s.dispatch(Request{
		JSONRPC: "2.0", ID: reqID(1), Method: "textDocument/definition",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///main.brs"},
			"position":     map[string]any{"line": 0, "character": c},
		}),
	})
	resp := readFrame(t, out)
	require.Nil(t, resp["error"])
	locations, ok := resp["result"].([]any)
	require.True(t, ok)
	require.Len(t, locations, 1)
	loc := locations[0].(map[string]any)
	// Wired correctly (Links + LookupPrioritizedWithLinks), the explicit
	// LIBRARY link wins over the unrelated is_library candidate.
	assert.Equal(t, "file:///linked.brs", loc["uri"])
}

func TestHandleReferencesFunctionCallIsWorkspaceWide(t *testing.T) {
	s, out := newTestServer(t)

	aText := "def fnSquare(x)\nlet fnSquare=x*x\nfnend\n"
	s.dispatch(Request{
		JSONRPC: "2.0", Method: "textDocument/didOpen",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///a.brs", "text": aText, "version": 1},
		}),
	})
	readFrame(t, out)

	bText := "let y=fnSquare(3)\n"
	s.dispatch(Request{
		JSONRPC: "2.0", Method: "textDocument/didOpen",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///b.brs", "text": bText, "version": 1},
		}),
	})
	readFrame(t, out)

	c := col(aText, 0, "fnSquare")
	s.dispatch(Request{
		JSONRPC: "2.0", ID: reqID(1), Method: "textDocument/references",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///a.brs"},
			"position":     map[string]any{"line": 0, "character": c},
			"context":      map[string]any{"includeDeclaration": true},
		}),
	})
	resp := readFrame(t, out)
	require.Nil(t, resp["error"])
	results, ok := resp["result"].([]any)
	require.True(t, ok)

	uris := map[string]bool{}
	for _, r := range results {
		entry := r.(map[string]any)
		uris[entry["uri"].(string)] = true
	}
	assert.True(t, uris["file:///a.brs"], "expected a.brs occurrence in results")
	assert.True(t, uris["file:///b.brs"], "expected b.brs occurrence in results")
}

func TestHandleRenameFunctionCrossFile(t *testing.T) {
	s, out := newTestServer(t)

	aText := "def fnSquare(x)\nlet fnSquare=x*x\nfnend\n"
	s.dispatch(Request{
		JSONRPC: "2.0", Method: "textDocument/didOpen",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///a.brs", "text": aText, "version": 1},
		}),
	})
	readFrame(t, out)

	bText := "let y=fnSquare(3)\n"
	s.dispatch(Request{
		JSONRPC: "2.0", Method: "textDocument/didOpen",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///b.brs", "text": bText, "version": 1},
		}),
	})
	readFrame(t, out)

	c := col(bText, 0, "fnSquare")
	s.dispatch(Request{
		JSONRPC: "2.0", ID: reqID(1), Method: "textDocument/rename",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": "file:///b.brs"},
			"position":     map[string]any{"line": 0, "character": c},
			"newName":      "fnCube",
		}),
	})
	resp := readFrame(t, out)
	require.Nil(t, resp["error"])
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok)
	changes, ok := result["changes"].(map[string]any)
	require.True(t, ok)

	require.Contains(t, changes, "file:///a.brs")
	require.Contains(t, changes, "file:///b.brs")

	aEdits := changes["file:///a.brs"].([]any)
	require.NotEmpty(t, aEdits)
	for _, e := range aEdits {
		assert.Equal(t, "fnCube", e.(map[string]any)["newText"])
	}
	bEdits := changes["file:///b.brs"].([]any)
	require.NotEmpty(t, bEdits)
	for _, e := range bEdits {
		assert.Equal(t, "fnCube", e.(map[string]any)["newText"])
	}
}

func TestHandleRenameBuiltinFunctionRejected(t *testing.T) {
	s, out := newTestServer(t)
	uri := "file:///builtin.brs"
	text := "let x$=str$(42)\n"
	s.dispatch(Request{
		JSONRPC: "2.0", Method: "textDocument/didOpen",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": uri, "text": text, "version": 1},
		}),
	})
	readFrame(t, out)

	c := col(text, 0, "str$")
	s.dispatch(Request{
		JSONRPC: "2.0", ID: reqID(1), Method: "textDocument/rename",
		Params: marshalRaw(map[string]any{
			"textDocument": map[string]any{"uri": uri},
			"position":     map[string]any{"line": 0, "character": c},
			"newName":      "whatever",
		}),
	})
	resp := readFrame(t, out)
	errObj, ok := resp["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-32803), errObj["code"])
}
