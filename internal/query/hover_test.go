package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

func TestHoverBuiltinFunction(t *testing.T) {
	tree, src := parse("let x = val(\"123\")\n")
	c := col(src, 0, "val")
	hover, ok := GetHover(tree, src, "file:///a.brs", 0, c, nil, nil, nil)
	require.True(t, ok)
	assert.Contains(t, hover.Contents, "```br")
}

func TestHoverNotOnFunctionName(t *testing.T) {
	tree, src := parse("let x = 1\n")
	_, ok := GetHover(tree, src, "file:///a.brs", 0, 4, nil, nil, nil)
	assert.False(t, ok)
}

func TestHoverWorkspaceFunction(t *testing.T) {
	defSrc := "def fnFoo(X) = X\n"
	defTree, _ := parse(defSrc)
	idx := workspace.NewIndex()
	idx.AddFile("file:///lib.brs", defs.Extract(defTree, defSrc))

	callSrc := "let y = fnFoo(1)\n"
	callTree, callSource := parse(callSrc)
	c := col(callSource, 0, "fnFoo")

	hover, ok := GetHover(callTree, callSource, "file:///main.brs", 0, c, idx, nil, nil)
	require.True(t, ok)
	assert.Contains(t, hover.Contents, "fnFoo(X)")
}

func TestHoverMultipleDistinctSignaturesJoined(t *testing.T) {
	src1 := "def fnFoo(X) = X\n"
	tree1, _ := parse(src1)
	src2 := "def fnFoo(X, Y) = X + Y\n"
	tree2, _ := parse(src2)

	idx := workspace.NewIndex()
	idx.AddFile("file:///a.brs", defs.Extract(tree1, src1))
	idx.AddFile("file:///b.brs", defs.Extract(tree2, src2))

	callSrc := "let y = fnFoo(1)\n"
	callTree, callSource := parse(callSrc)
	c := col(callSource, 0, "fnFoo")

	hover, ok := GetHover(callTree, callSource, "file:///main.brs", 0, c, idx, nil, nil)
	require.True(t, ok)
	assert.True(t, strings.Contains(hover.Contents, "---"))
}
