package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/defs"
)

func TestLookupCaseInsensitive(t *testing.T) {
	fns := Lookup("str$")
	require.Len(t, fns, 1)
	assert.Equal(t, "STR$", fns[0].Name)
	assert.True(t, IsBuiltin("Val"))
	assert.False(t, IsBuiltin("fnNotARealBuiltin"))
}

func TestParamKindStringSuffix(t *testing.T) {
	fns := Lookup("VAL")
	kind, ok := fns[0].Params[0].Kind()
	require.True(t, ok)
	assert.Equal(t, defs.KindString, kind)
}

func TestParamKindLiteralSkipped(t *testing.T) {
	fns := Lookup("MD5$")
	_, ok := fns[0].Params[1].Kind()
	assert.False(t, ok)
}

func TestParamKindMatArray(t *testing.T) {
	fns := Lookup("SUM")
	kind, ok := fns[0].Params[0].Kind()
	require.True(t, ok)
	assert.Equal(t, defs.KindNumericArray, kind)
}

func TestParamKindMatStringArray(t *testing.T) {
	fns := Lookup("SRCH$")
	kind, ok := fns[0].Params[0].Kind()
	require.True(t, ok)
	assert.Equal(t, defs.KindStringArray, kind)
}

func TestFormatSignature(t *testing.T) {
	fns := Lookup("SWAP$")
	assert.Equal(t, "SWAP$(String$, Find$, Replace$)", fns[0].FormatSignature())
}

func TestFormatSignatureNoParams(t *testing.T) {
	fns := Lookup("TIM$")
	assert.Equal(t, "TIM$", fns[0].FormatSignature())
}

func TestFormatSignatureWithOffsets(t *testing.T) {
	fns := Lookup("VAL")
	label, offsets := fns[0].FormatSignatureWithOffsets()
	require.Len(t, offsets, 1)
	assert.Equal(t, "String$", label[offsets[0].Start:offsets[0].End])
}
