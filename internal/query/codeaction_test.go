package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/diagnostics"
)

func rangeAt(line, col int) defs.Range {
	return defs.Range{StartLine: line, StartCol: col, EndLine: line, EndCol: col}
}

// findFunctionNameRange locates fnName's position, preferring a
// function_name node (a real call site) and falling back to a bare
// reference node (a parenthesis-less function name, which this façade
// parses as a plain variable reference rather than a call).
func findFunctionNameRange(t *testing.T, source, fnName string) (line, col int) {
	t.Helper()
	tree, src := parse(source)
	for _, n := range tree.Root.FindAll(brparser.KindFunctionName) {
		if n.Text(src) == fnName {
			return n.StartPoint.Row, n.StartPoint.Column
		}
	}
	for _, n := range tree.Root.FindAll(brparser.KindNumberReference, brparser.KindStringReference) {
		if n.Text(src) == fnName {
			return n.StartPoint.Row, n.StartPoint.Column
		}
	}
	t.Fatalf("function name %q not found", fnName)
	return 0, 0
}

func TestNumericFunctionStub(t *testing.T) {
	source := "00010 let X = fnFoo(A, B)\n"
	tree, src := parse(source)
	line, col := findFunctionNameRange(t, source, "fnFoo")
	diag := diagnostics.Diagnostic{
		Range:   rangeAt(line, col),
		Code:    "undefined-function",
		Message: "Function 'fnFoo' is not defined in the workspace",
	}

	action, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	require.True(t, ok)
	assert.Contains(t, action.Title, "fnFoo")
	require.Len(t, action.Edits, 1)
	newText := action.Edits[0].NewText
	assert.Contains(t, newText, "DEF fnFoo(A,B)")
	assert.Contains(t, newText, "LET fnFoo=0")
	assert.Contains(t, newText, "FNEND")
	assert.Contains(t, newText, "TODO")
}

func TestStringFunctionStub(t *testing.T) {
	source := "00010 let X$ = fnBar$(Name$)\n"
	tree, src := parse(source)
	line, col := findFunctionNameRange(t, source, "fnBar$")
	diag := diagnostics.Diagnostic{
		Range:   rangeAt(line, col),
		Code:    "undefined-function",
		Message: "Function 'fnBar$' is not defined in the workspace",
	}

	action, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	require.True(t, ok)
	newText := action.Edits[0].NewText
	assert.Contains(t, newText, "DEF fnBar$(Name$)")
	assert.Contains(t, newText, "LET fnBar$=\"\"")
	assert.Contains(t, newText, "FNEND")
}

func TestMixedParamTypesStub(t *testing.T) {
	source := "00010 dim Items$(5)*30\n00020 let X = fnCalc(Count, Name$, mat Items$)\n"
	tree, src := parse(source)
	line, col := findFunctionNameRange(t, source, "fnCalc")
	diag := diagnostics.Diagnostic{
		Range:   rangeAt(line, col),
		Code:    "undefined-function",
		Message: "Function 'fnCalc' is not defined in the workspace",
	}

	action, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	require.True(t, ok)
	newText := action.Edits[0].NewText
	assert.Contains(t, newText, "Count")
	assert.Contains(t, newText, "Name$")
	assert.Contains(t, newText, "Mat Items$")
}

func TestExpressionArgsUseGenericNames(t *testing.T) {
	source := "00010 let X = fnFoo(1+2, \"hello\")\n"
	tree, src := parse(source)
	line, col := findFunctionNameRange(t, source, "fnFoo")
	diag := diagnostics.Diagnostic{
		Range:   rangeAt(line, col),
		Code:    "undefined-function",
		Message: "Function 'fnFoo' is not defined in the workspace",
	}

	action, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	require.True(t, ok)
	newText := action.Edits[0].NewText
	assert.Contains(t, newText, "Param1")
	assert.Contains(t, newText, "Param2$")
}

func TestNoActionForWrongDiagnosticCode(t *testing.T) {
	source := "00010 let X = fnFoo(1)\n"
	tree, src := parse(source)
	diag := diagnostics.Diagnostic{Code: "some-other-code", Message: "Something else"}
	_, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	assert.False(t, ok)
}

func TestNoActionForNoDiagnosticCode(t *testing.T) {
	source := "00010 let X = fnFoo(1)\n"
	tree, src := parse(source)
	diag := diagnostics.Diagnostic{Message: "Something else"}
	_, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	assert.False(t, ok)
}

func TestLineNumberCalculation(t *testing.T) {
	source := "00010 let X = 1\n00020 let Y = 2\n00100 let Z = 3\n"
	tree, src := parse(source)
	ln := lastLineNumber(tree, src)
	assert.Equal(t, 100, ln)
	assert.Equal(t, 110, nextLineNumber(ln))
}

func TestLineNumberNoLines(t *testing.T) {
	source := "let X = 1\n"
	tree, src := parse(source)
	ln := lastLineNumber(tree, src)
	assert.Equal(t, 0, ln)
	assert.Equal(t, 10, nextLineNumber(ln))
}

func TestLineNumberInStub(t *testing.T) {
	source := "00100 let X = fnFoo(A)\n"
	tree, src := parse(source)
	line, col := findFunctionNameRange(t, source, "fnFoo")
	diag := diagnostics.Diagnostic{
		Range:   rangeAt(line, col),
		Code:    "undefined-function",
		Message: "Function 'fnFoo' is not defined in the workspace",
	}

	action, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	require.True(t, ok)
	newText := action.Edits[0].NewText
	assert.Contains(t, newText, "00110 DEF")
	assert.Contains(t, newText, "00120 !")
	assert.Contains(t, newText, "00130 LET")
	assert.Contains(t, newText, "00140 FNEND")
}

func TestNoParamsOmitsParentheses(t *testing.T) {
	source := "00010 let X = fnConst\n"
	tree, src := parse(source)
	line, col := findFunctionNameRange(t, source, "fnConst")
	diag := diagnostics.Diagnostic{
		Range:   rangeAt(line, col),
		Code:    "undefined-function",
		Message: "Function 'fnConst' is not defined in the workspace",
	}

	action, ok := GenerateFunctionStub("file:///test.brs", diag, tree, src)
	require.True(t, ok)
	newText := action.Edits[0].NewText
	assert.Contains(t, newText, "DEF fnConst\n")
	assert.NotContains(t, newText, "DEF fnConst(")
}

func TestExtractFunctionNameFromMessage(t *testing.T) {
	name, ok := extractFunctionName("Function 'fnFoo' is not defined in the workspace")
	require.True(t, ok)
	assert.Equal(t, "fnFoo", name)

	name, ok = extractFunctionName("Function 'fnBar$' is not defined in the workspace")
	require.True(t, ok)
	assert.Equal(t, "fnBar$", name)
}
