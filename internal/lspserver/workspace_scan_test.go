package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestIndexFileFromDiskAddsFunctionToIndex(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	path := writeTestFile(t, dir, "lib.brs", "def fnSquare(x)\nlet fnSquare=x*x\nfnend\n")

	s.indexFileFromDisk(path)

	matches := s.index.Lookup("fnSquare")
	require.Len(t, matches, 1)
	assert.Equal(t, pathToURI(path), matches[0].URI)
}

func TestIndexFileFromDiskSkipsOpenDocuments(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	path := writeTestFile(t, dir, "open.brs", "def fnOld(x)\nlet fnOld=x\nfnend\n")
	uri := pathToURI(path)

	s.docs.DidOpen(uri, "def fnNew(x)\nlet fnNew=x\nfnend\n", classifyKind(uri))
	s.indexFileFromDisk(path)

	// on-disk content ("fnOld") must not override the open buffer's state
	// ("fnNew"); indexFileFromDisk should have been a no-op.
	assert.Empty(t, s.index.Lookup("fnOld"))
}

func TestIndexFileFromDiskSkipsUnchangedFingerprint(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	path := writeTestFile(t, dir, "lib.brs", "def fnA(x)\nlet fnA=x\nfnend\n")
	uri := pathToURI(path)

	s.indexFileFromDisk(path)
	require.Len(t, s.index.Lookup("fnA"), 1)

	// Rewriting the exact same content must hit the fingerprint
	// short-circuit; UpdateFile would otherwise still leave one entry, so
	// this only distinguishes a regression that breaks the skip itself if
	// it also breaks UpdateFile's replace semantics, which is what
	// TestIndexFileFromDiskReindexesChangedContent checks instead.
	writeTestFile(t, dir, "lib.brs", "def fnA(x)\nlet fnA=x\nfnend\n")
	s.indexFileFromDisk(path)
	require.Len(t, s.index.Lookup("fnA"), 1)
	_ = uri
}

func TestIndexFileFromDiskReindexesChangedContent(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	path := writeTestFile(t, dir, "lib.brs", "def fnA(x)\nlet fnA=x\nfnend\n")

	s.indexFileFromDisk(path)
	require.Len(t, s.index.Lookup("fnA"), 1)

	writeTestFile(t, dir, "lib.brs", "def fnB(x)\nlet fnB=x\nfnend\n")
	s.indexFileFromDisk(path)
	assert.Empty(t, s.index.Lookup("fnA"))
	require.Len(t, s.index.Lookup("fnB"), 1)
}

func TestHandleDidChangeWatchedFilesDeletedRemovesFromIndex(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	path := writeTestFile(t, dir, "lib.brs", "def fnGone(x)\nlet fnGone=x\nfnend\n")
	uri := pathToURI(path)
	s.indexFileFromDisk(path)
	require.Len(t, s.index.Lookup("fnGone"), 1)

	s.handleDidChangeWatchedFiles(Request{
		Method: "workspace/didChangeWatchedFiles",
		Params: marshalRaw(map[string]any{
			"changes": []map[string]any{{"uri": uri, "type": 3}},
		}),
	})
	assert.Empty(t, s.index.Lookup("fnGone"))
}

func TestHandleDidChangeWatchedFilesCreatedIndexesFile(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	path := writeTestFile(t, dir, "lib.brs", "def fnNewly(x)\nlet fnNewly=x\nfnend\n")
	uri := pathToURI(path)

	s.handleDidChangeWatchedFiles(Request{
		Method: "workspace/didChangeWatchedFiles",
		Params: marshalRaw(map[string]any{
			"changes": []map[string]any{{"uri": uri, "type": 1}},
		}),
	})
	require.Len(t, s.index.Lookup("fnNewly"), 1)
}

func TestHandleDidChangeWorkspaceFoldersAddsAndRemoves(t *testing.T) {
	s, _ := newTestServer(t)
	s.folders = []string{"file:///a", "file:///b"}

	s.handleDidChangeWorkspaceFolders(Request{
		Method: "workspace/didChangeWorkspaceFolders",
		Params: marshalRaw(map[string]any{
			"event": map[string]any{
				"added":   []map[string]any{{"uri": "file:///c", "name": "c"}},
				"removed": []map[string]any{{"uri": "file:///a", "name": "a"}},
			},
		}),
	})

	assert.NotContains(t, s.folders, "file:///a")
	assert.Contains(t, s.folders, "file:///b")
	assert.Contains(t, s.folders, "file:///c")
}

func TestHandleExecuteCommandScanAllRepliesImmediately(t *testing.T) {
	s, out := newTestServer(t)
	s.dispatch(Request{
		JSONRPC: "2.0", ID: reqID(1), Method: "workspace/executeCommand",
		Params: marshalRaw(map[string]any{"command": "br-lsp.scanAll"}),
	})
	resp := readFrame(t, out)
	assert.Nil(t, resp["error"])
}
