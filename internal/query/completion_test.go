package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

func labelsOf(items []CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestStatementCompletionsNotEmpty(t *testing.T) {
	items := statementCompletions()
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, ItemKeyword, it.Kind)
	}
}

func TestStatementCompletionsIncludesKnownEntries(t *testing.T) {
	names := labelsOf(statementCompletions())
	assert.Contains(t, names, "def")
	assert.Contains(t, names, "Print")
	assert.Contains(t, names, "Gosub")
	assert.Contains(t, names, "end if")
}

func TestKeywordCompletionsCount(t *testing.T) {
	items := keywordCompletions()
	require.Len(t, items, 4)
	for _, it := range items {
		assert.Equal(t, ItemKeyword, it.Kind)
	}
}

func TestKeywordWaitHasDocs(t *testing.T) {
	items := keywordCompletions()
	for _, it := range items {
		if it.Label == "wait" {
			assert.NotEmpty(t, it.Documentation)
			return
		}
	}
	t.Fatal("wait keyword not found")
}

func TestBuiltinCompletionsAllFunctionKind(t *testing.T) {
	items := builtinFunctionCompletions()
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, ItemFunction, it.Kind)
		assert.NotNil(t, it.Data)
		assert.Equal(t, DataBuiltin, it.Data.Kind)
	}
}

func TestBuiltinCompletionsDetailPrefixed(t *testing.T) {
	items := builtinFunctionCompletions()
	for _, it := range items {
		if it.Label == "Val" {
			assert.Contains(t, it.Detail, "(built-in)")
			return
		}
	}
	t.Fatal("Val builtin not found")
}

func TestLocalVariableBasics(t *testing.T) {
	tree, src := parse("let X$ = \"hello\"\nlet Y = 42\nlet Z$ = X$\n")
	items := localVariableCompletions(tree, src, 99, 0)
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, ItemVariable, it.Kind)
	}
}

func TestLocalVariableDedup(t *testing.T) {
	tree, src := parse("let X$ = \"a\"\nlet Y$ = X$\nlet Z$ = X$\n")
	items := localVariableCompletions(tree, src, 99, 0)
	count := 0
	for _, it := range items {
		if it.Label == "X$" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLocalFunctionExtraction(t *testing.T) {
	tree, src := parse("def fnAdd(A, B) = A + B\ndef library fnCalc$(X$)\nfnend\n")
	items := localFunctionCompletions(tree, src, "file:///test.brs")
	require.Len(t, items, 2)
	names := labelsOf(items)
	assert.Contains(t, names, "fnAdd")
	assert.Contains(t, names, "fnCalc$")
}

func TestLocalFunctionDetailFormat(t *testing.T) {
	tree, src := parse("def fnAdd(A, B) = A + B\n")
	items := localFunctionCompletions(tree, src, "file:///test.brs")
	require.Len(t, items, 1)
	assert.Equal(t, "(local) fnAdd(A, B)", items[0].Detail)
}

func TestLibraryFunctionCompletionsExcludesCurrentFile(t *testing.T) {
	idx := workspace.NewIndex()
	treeA, srcA := parse("def fnFoo(X) = X\n")
	idx.AddFile("file:///a.brs", defs.Extract(treeA, srcA))
	treeB, srcB := parse("let y = 1\n")
	idx.AddFile("file:///b.brs", defs.Extract(treeB, srcB))

	itemsFromA := libraryFunctionCompletions("file:///a.brs", idx)
	assert.Empty(t, itemsFromA)

	itemsFromB := libraryFunctionCompletions("file:///b.brs", idx)
	require.Len(t, itemsFromB, 1)
	assert.Equal(t, "fnFoo", itemsFromB[0].Label)
	assert.Equal(t, "a.brs", itemsFromB[0].Description)
}

func TestResolveCompletionBuiltin(t *testing.T) {
	items := builtinFunctionCompletions()
	var val *CompletionItem
	for i := range items {
		if items[i].Label == "Val" {
			val = &items[i]
			break
		}
	}
	require.NotNil(t, val)
	doc, ok := ResolveCompletion(val.Data, nil, "", nil)
	assert.True(t, ok)
	assert.Contains(t, doc, "```br")
}
