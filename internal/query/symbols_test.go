package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

func filterSymbols(symbols []DocumentSymbol, kind SymbolKind) []DocumentSymbol {
	var out []DocumentSymbol
	for _, s := range symbols {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func TestFunctionSymbols(t *testing.T) {
	source := "def fnAdd(A,B)=A+B\ndef fnSub(A,B)=A-B\n"
	tree, src := parse(source)
	symbols := CollectDocumentSymbols(tree, src)
	funcs := filterSymbols(symbols, SymbolFunction)
	require.Len(t, funcs, 2)
	assert.Equal(t, "fnAdd", funcs[0].Name)
	assert.Equal(t, "fnSub", funcs[1].Name)
	assert.Equal(t, "function", funcs[0].Detail)
}

func TestWorkspaceSymbolsEmptyQueryReturnsAll(t *testing.T) {
	src1 := "def fnFoo(X) = X\n"
	tree1, _ := parse(src1)
	src2 := "def fnBar$(Y$) = Y$\n"
	tree2, _ := parse(src2)

	idx := workspace.NewIndex()
	idx.AddFile("file:///a.brs", defs.Extract(tree1, src1))
	idx.AddFile("file:///b.brs", defs.Extract(tree2, src2))

	symbols := FindWorkspaceSymbols(idx, "")
	require.Len(t, symbols, 2)
	assert.Equal(t, "fnBar$", symbols[0].Name)
	assert.Equal(t, "fnFoo", symbols[1].Name)
}

func TestWorkspaceSymbolsCaseInsensitiveSubstring(t *testing.T) {
	src := "def fnCalculateTotal(X) = X\n"
	tree, source := parse(src)

	idx := workspace.NewIndex()
	idx.AddFile("file:///a.brs", defs.Extract(tree, source))

	symbols := FindWorkspaceSymbols(idx, "CALC")
	require.Len(t, symbols, 1)
	assert.Equal(t, "fnCalculateTotal", symbols[0].Name)

	assert.Empty(t, FindWorkspaceSymbols(idx, "zzz"))
}

func TestWorkspaceSymbolsNilIndex(t *testing.T) {
	assert.Nil(t, FindWorkspaceSymbols(nil, ""))
}

func TestDimVariableSymbols(t *testing.T) {
	source := "dim X$*30,Y,Z$(10)*20\n"
	tree, src := parse(source)
	symbols := CollectDocumentSymbols(tree, src)
	vars := filterSymbols(symbols, SymbolVariable)
	assert.GreaterOrEqual(t, len(vars), 2)
}

func TestLabelSymbolsExcludeColon(t *testing.T) {
	source := "START:\nlet x=1\nEND:\n"
	tree, src := parse(source)
	symbols := CollectDocumentSymbols(tree, src)
	labels := filterSymbols(symbols, SymbolLabel)
	require.Len(t, labels, 2)
	assert.Equal(t, "START", labels[0].Name)
	assert.Equal(t, "END", labels[1].Name)
	assert.Equal(t, labels[0].Range.EndCol-1, labels[0].SelectionRange.EndCol)
}

func TestSymbolsSortedByPosition(t *testing.T) {
	source := "ALABEL:\ndim X$*30\ndef fnFoo(A)=A\n"
	tree, src := parse(source)
	symbols := CollectDocumentSymbols(tree, src)
	for i := 1; i < len(symbols); i++ {
		assert.GreaterOrEqual(t, symbols[i].Range.StartLine, symbols[i-1].Range.StartLine)
	}
}

func TestEmptySourceHasNoSymbols(t *testing.T) {
	tree, src := parse("")
	symbols := CollectDocumentSymbols(tree, src)
	assert.Empty(t, symbols)
}

func TestNoLineNumbersInSymbols(t *testing.T) {
	source := "100 let x=1\n200 let y=2\n"
	tree, src := parse(source)
	symbols := CollectDocumentSymbols(tree, src)
	for _, s := range symbols {
		assert.NotEqual(t, "line_number", s.Detail)
	}
}
