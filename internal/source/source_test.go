package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBRFile(t *testing.T) {
	assert.True(t, IsBRFile("foo.BRS"))
	assert.True(t, IsBRFile("foo.wbs"))
	assert.False(t, IsBRFile("foo.txt"))
}

func TestIsLayoutFile(t *testing.T) {
	assert.True(t, IsLayoutFile("foo.lay"))
	assert.True(t, IsLayoutFile(filepath.Join("proj", "filelay", "cust")))
	assert.True(t, IsLayoutFile(filepath.Join("proj", "FileLay", "cust")))
	assert.False(t, IsLayoutFile("foo.brs"))
}

func TestReadBRFileStripsEOFAndDecodes(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.brs")
	require.NoError(t, os.WriteFile(p, []byte{'a', 0x1A, 0x80}, 0o644))
	got, err := ReadBRFile(p)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, byte('a'), got[0])
	assert.Equal(t, byte(0x80), got[1])
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, MatchesAny("/ws/foo.brs", DefaultWatchGlobs))
	assert.True(t, MatchesAny("/ws/filelay/cust", DefaultWatchGlobs))
	assert.False(t, MatchesAny("/ws/foo.go", DefaultWatchGlobs))
}
