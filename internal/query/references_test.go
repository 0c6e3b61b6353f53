package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionRefsMatchAllCallsCaseInsensitive(t *testing.T) {
	source := "def fnFoo(X)=X\nlet A=fnFoo(1)\nlet B=FNFOO(2)\n"
	tree, src := parse(source)
	c := col(source, 0, "fnFoo")
	refs := FindReferences(tree, src, 0, c)
	assert.Len(t, refs, 3)
}

func TestLabelRefsIncludeDefAndGotoSites(t *testing.T) {
	source := "MYLOOP:\nlet x=1\ngoto MYLOOP\n"
	tree, src := parse(source)
	c := col(source, 2, "MYLOOP")
	refs := FindReferences(tree, src, 2, c)
	require.Len(t, refs, 2)
	assert.Equal(t, 0, refs[0].StartLine)
	assert.Equal(t, 2, refs[1].StartLine)
}

func TestLineRefsMatchDeclarationAndGoto(t *testing.T) {
	source := "100 let x=1\n200 goto 100\n"
	tree, src := parse(source)
	c := col(source, 1, "100")
	refs := FindReferences(tree, src, 1, c)
	require.Len(t, refs, 2)
}

func TestVariableScopeParamOnlyInFunction(t *testing.T) {
	source := "def fnFoo(X)\nlet Y=X+1\nfnend\nlet X=9\n"
	tree, src := parse(source)
	c := col(source, 0, "X")
	refs := FindReferences(tree, src, 0, c)
	for _, r := range refs {
		assert.LessOrEqual(t, r.StartLine, 1)
	}
	require.Len(t, refs, 2)
}

func TestVariableScopeNonParamExcludesParams(t *testing.T) {
	source := "let X=1\ndef fnFoo(X)\nlet Y=X+1\nfnend\nlet Z=X+2\n"
	tree, src := parse(source)
	c := col(source, 0, "X")
	refs := FindReferences(tree, src, 0, c)
	for _, r := range refs {
		assert.NotEqual(t, 1, r.StartLine, "parameter occurrence in another function must not appear")
		assert.NotEqual(t, 2, r.StartLine, "body use of the other function's parameter must not appear")
	}
	require.Len(t, refs, 2)
}
