package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameVariable(t *testing.T) {
	source := "let X=1\nprint X\n"
	tree, src := parse(source)
	edits := ComputeRenames(tree, src, 0, col(source, 0, "X"))
	assert.Len(t, edits, 2)
}

func TestRenameFunction(t *testing.T) {
	source := "def fnTest(x)\nlet y=fnTest(1)\nfnend\n"
	tree, src := parse(source)
	edits := ComputeRenames(tree, src, 0, col(source, 0, "fnTest"))
	assert.Len(t, edits, 2)
}

func TestRenameLabelFromDefinition(t *testing.T) {
	source := "MYLOOP:\nlet x=1\ngoto MYLOOP\n"
	tree, src := parse(source)
	edits := ComputeRenames(tree, src, 0, 0)
	require.Len(t, edits, 2)
	first := edits[0]
	assert.Equal(t, 6, first.EndCol-first.StartCol)
}

func TestRenameLabelFromReference(t *testing.T) {
	source := "MYLOOP:\nlet x=1\ngoto MYLOOP\n"
	tree, src := parse(source)
	edits := ComputeRenames(tree, src, 2, col(source, 2, "MYLOOP"))
	assert.Len(t, edits, 2)
}

func TestPrepareRenameRejectsSystemFunction(t *testing.T) {
	source := "let x=val(\"123\")\n"
	tree, src := parse(source)
	_, ok := PrepareRename(tree, src, 0, col(source, 0, "val"))
	assert.False(t, ok)
}

func TestPrepareRenameRejectsLineNumber(t *testing.T) {
	source := "100 let x=1\n200 goto 100\n"
	tree, src := parse(source)
	_, ok := PrepareRename(tree, src, 0, 1)
	assert.False(t, ok)
}

func TestPrepareRenameUserFunction(t *testing.T) {
	source := "def fnTest(x)\nlet y=fnTest(1)\nfnend\n"
	tree, src := parse(source)
	target, ok := PrepareRename(tree, src, 0, col(source, 0, "fnTest"))
	require.True(t, ok)
	assert.Equal(t, "fnTest", target.Placeholder)
}

func TestPrepareRenameLabelExcludesColon(t *testing.T) {
	source := "MYLOOP:\nlet x=1\n"
	tree, src := parse(source)
	target, ok := PrepareRename(tree, src, 0, 0)
	require.True(t, ok)
	assert.Equal(t, "MYLOOP", target.Placeholder)
	assert.Equal(t, 6, target.Range.EndCol-target.Range.StartCol)
}

func TestScopeAwareVariableRename(t *testing.T) {
	source := "let X=1\ndef fnFoo(X)\nlet Y=X+1\nfnend\nlet Z=X+2\n"
	tree, src := parse(source)

	edits := ComputeRenames(tree, src, 2, col(source, 2, "X"))
	assert.Len(t, edits, 2)

	edits = ComputeRenames(tree, src, 0, col(source, 0, "X"))
	assert.Len(t, edits, 2)
}
