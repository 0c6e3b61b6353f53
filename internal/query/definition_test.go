package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/defs"
)

func TestFunctionDefFoundLocally(t *testing.T) {
	source := "def fnFoo(X)=X*2\nlet Y=fnFoo(1)\n"
	tree, src := parse(source)
	local := defs.Extract(tree, src)
	c := col(source, 1, "fnFoo")
	result := FindDefinition(tree, src, 1, c, local)
	require.Equal(t, DefFound, result.Kind)
	assert.Equal(t, 0, result.Range.StartLine)
}

func TestFunctionDefLookupWhenNotLocal(t *testing.T) {
	source := "let Y=fnMissing(1)\n"
	tree, src := parse(source)
	local := defs.Extract(tree, src)
	c := col(source, 0, "fnMissing")
	result := FindDefinition(tree, src, 0, c, local)
	require.Equal(t, DefLookupFunction, result.Kind)
	assert.Equal(t, "fnMissing", result.FunctionName)
}

func TestSystemFunctionReturnsNone(t *testing.T) {
	source := "let x$=str$(42)\n"
	tree, src := parse(source)
	c := col(source, 0, "str$")
	result := FindDefinition(tree, src, 0, c, nil)
	assert.Equal(t, DefNone, result.Kind)
}

func TestLabelDefExcludesTrailingColon(t *testing.T) {
	source := "MYLOOP:\nlet x=1\ngoto MYLOOP\n"
	tree, src := parse(source)
	c := col(source, 2, "MYLOOP")
	result := FindDefinition(tree, src, 2, c, nil)
	require.Equal(t, DefFound, result.Kind)
	assert.Equal(t, 0, result.Range.StartLine)
	assert.Equal(t, 6, result.Range.EndCol)
}

func TestLineDef(t *testing.T) {
	source := "100 let x=1\n200 goto 100\n"
	tree, src := parse(source)
	c := col(source, 1, "100")
	result := FindDefinition(tree, src, 1, c, nil)
	require.Equal(t, DefFound, result.Kind)
	assert.Equal(t, 0, result.Range.StartLine)
}

func TestDimVariableDef(t *testing.T) {
	source := "dim X$*30\nprint X$\n"
	tree, src := parse(source)
	c := col(source, 1, "X$")
	result := FindDefinition(tree, src, 1, c, nil)
	require.Equal(t, DefFound, result.Kind)
	assert.Equal(t, 0, result.Range.StartLine)
}

func TestNoDefinitionForUnknown(t *testing.T) {
	source := "let x=1\n"
	tree, src := parse(source)
	result := FindDefinition(tree, src, 0, 8, nil)
	assert.Equal(t, DefNone, result.Kind)
}

func TestParamDefFromBody(t *testing.T) {
	source := "def fnFoo(X)\nlet Y=X+1\nfnend\n"
	tree, src := parse(source)
	c := col(source, 1, "X")
	result := FindDefinition(tree, src, 1, c, nil)
	require.Equal(t, DefFound, result.Kind)
	assert.Equal(t, 0, result.Range.StartLine)
	assert.Equal(t, col(source, 0, "X"), result.Range.StartCol)
}

func TestParamDefStringVariable(t *testing.T) {
	source := "def fnBar$(Y$)\nlet Z$=Y$\nfnend\n"
	tree, src := parse(source)
	c := col(source, 1, "Y$")
	result := FindDefinition(tree, src, 1, c, nil)
	require.Equal(t, DefFound, result.Kind)
	assert.Equal(t, 0, result.Range.StartLine)
	assert.Equal(t, col(source, 0, "Y$"), result.Range.StartCol)
}

func TestNonParamVariableOutsideFunctionNotAffected(t *testing.T) {
	source := "let X=1\ndef fnFoo(X)\nlet Y=X+1\nfnend\nlet Z=X+2\n"
	tree, src := parse(source)
	c := col(source, 4, "X")
	result := FindDefinition(tree, src, 4, c, nil)
	assert.Equal(t, DefNone, result.Kind)
}
