package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLayout = `CUSTOMER.DAT, RCU_, 1
CUSTOMER.IX1, RCU_CUSTOMER_ID$
recl=256
----------
CUSTOMER_ID$, Customer ID, C 10
NAME$, Customer Name, C 30
BALANCE, Balance, BH 4.2
#eof#
`

func TestParseStandardLayout(t *testing.T) {
	l := Parse(sampleLayout)
	require.NotNil(t, l)
	assert.Equal(t, "CUSTOMER.DAT", l.Path)
	assert.Equal(t, "RCU_", l.Prefix)
	require.NotNil(t, l.Version)
	assert.Equal(t, uint64(1), l.Version.Major())
	require.Len(t, l.Keys, 1)
	assert.Equal(t, "CUSTOMER.IX1", l.Keys[0].Path)
	assert.Equal(t, []string{"RCU_CUSTOMER_ID$"}, l.Keys[0].KeyFields)
	assert.True(t, l.HasRecordLen)
	assert.Equal(t, 256, l.RecordLength)
	require.Len(t, l.Fields, 3)
	assert.Equal(t, "CUSTOMER_ID$", l.Fields[0].Name)
	assert.Equal(t, "Customer ID", l.Fields[0].Description)
	assert.Equal(t, "C 10", l.Fields[0].Format)
	assert.Equal(t, "BALANCE", l.Fields[2].Name)
	assert.Equal(t, "BH 4.2", l.Fields[2].Format)
}

func TestParseNoKeys(t *testing.T) {
	l := Parse("DATA.DAT, DT_, 1\n----------\nFIELD1, Desc, N 5\n")
	require.NotNil(t, l)
	assert.Empty(t, l.Keys)
	assert.Len(t, l.Fields, 1)
}

func TestParseWithCommentsAndEOF(t *testing.T) {
	source := "! comment\nDATA.DAT, DT_, 1\n! another\n----------\nFIELD1, Desc, N 5\n#eof#\nignored\n"
	l := Parse(source)
	require.NotNil(t, l)
	assert.Equal(t, "DATA.DAT", l.Path)
	assert.Len(t, l.Fields, 1)
}

func TestParseEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("  \n  \n"))
}

func TestParseUnparsableVersionDegradesToRawString(t *testing.T) {
	l := Parse("DATA.DAT, DT_, not-a-version\n----------\nFIELD1, Desc, N 5\n")
	require.NotNil(t, l)
	assert.Nil(t, l.Version)
	assert.Equal(t, "not-a-version", l.RawVersion)
}

func TestIndexAddRemoveUpdate(t *testing.T) {
	idx := NewIndex()
	l1 := Parse("DATA.DAT, DT_, 1\n----------\nFIELD, Desc, N 5\n")
	idx.Add("file:///a.lay", l1)
	assert.Len(t, idx.All(), 1)

	l2 := Parse("OTHER.DAT, OT_, 2\n----------\nA, Desc, N 5\nB, Desc, C 10\n")
	idx.Update("file:///a.lay", l2)
	all := idx.All()
	require.Len(t, all, 1)
	assert.Equal(t, "OTHER.DAT", all[0].Path)

	idx.Remove("file:///a.lay")
	assert.Empty(t, idx.All())
}

func TestFieldCompletionsPrefixMatch(t *testing.T) {
	idx := NewIndex()
	idx.Add("file:///a.lay", Parse(sampleLayout))
	matches := idx.FieldCompletions("bal")
	require.Len(t, matches, 1)
	assert.Equal(t, "BALANCE", matches[0].Name)
}

func TestCollectTokensHeaderLine(t *testing.T) {
	tokens := CollectTokens("CUSTOMER.DAT, RCU_, 1\n")
	require.GreaterOrEqual(t, len(tokens), 3)
}

func TestCollectTokensInvalidSpec(t *testing.T) {
	tokens := CollectTokens("DATA.DAT, PFX_, 1\n----------\nFIELD, Desc, BADSPEC 10\n")
	var sawInvalid bool
	for _, tok := range tokens {
		if tok.TokenType == 11 {
			sawInvalid = true
		}
	}
	assert.True(t, sawInvalid)
}

func TestCollectTokensSeparatorIsComment(t *testing.T) {
	tokens := CollectTokens("DATA.DAT, PFX_, 1\n----------\n")
	require.NotEmpty(t, tokens)
	last := tokens[len(tokens)-1]
	assert.Equal(t, uint32(4), last.TokenType)
}
