package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherroyshields/br-lsp/internal/defs"
)

func mkDef(name string, isLibrary, isImportOnly bool) defs.FunctionDef {
	return defs.FunctionDef{Name: name, IsLibrary: isLibrary, IsImportOnly: isImportOnly}
}

func TestAddRemoveUpdateFile(t *testing.T) {
	idx := NewIndex()
	idx.AddFile("a.brs", []defs.FunctionDef{mkDef("FNFoo", false, false)})
	assert.Len(t, idx.Lookup("fnfoo"), 1)

	idx.RemoveFile("a.brs")
	assert.Len(t, idx.Lookup("fnfoo"), 0)

	idx.UpdateFile("a.brs", []defs.FunctionDef{mkDef("FNFoo", false, false), mkDef("FNFoo", false, false)})
	assert.Len(t, idx.Lookup("fnfoo"), 2)
	idx.UpdateFile("a.brs", []defs.FunctionDef{mkDef("FNFoo", false, false)})
	assert.Len(t, idx.Lookup("fnfoo"), 1)
}

func TestLookupPrioritizedBuckets(t *testing.T) {
	idx := NewIndex()
	idx.AddFile("b.brs", []defs.FunctionDef{mkDef("FNFoo", false, true)})  // import-only
	idx.AddFile("c.brs", []defs.FunctionDef{mkDef("FNFoo", false, false)}) // plain non-library
	idx.AddFile("d.brs", []defs.FunctionDef{mkDef("FNFoo", true, false)})  // library
	idx.AddFile("a.brs", []defs.FunctionDef{mkDef("FNFoo", false, false)}) // local

	entries := idx.LookupPrioritized("fnfoo", "a.brs")
	require.Len(t, entries, 4)
	assert.Equal(t, "a.brs", entries[0].URI)
	assert.Equal(t, "d.brs", entries[1].URI)
	assert.Equal(t, "c.brs", entries[2].URI)
	assert.Equal(t, "b.brs", entries[3].URI)
}

func TestLookupBestPrefersLocal(t *testing.T) {
	idx := NewIndex()
	idx.AddFile("other.brs", []defs.FunctionDef{mkDef("FNFoo", true, false)})
	idx.AddFile("self.brs", []defs.FunctionDef{mkDef("FNFoo", false, false)})
	best, ok := idx.LookupBest("fnfoo", "self.brs")
	require.True(t, ok)
	assert.Equal(t, "self.brs", best.URI)
}

func TestUniqueFunctionsPrefersLibrary(t *testing.T) {
	idx := NewIndex()
	idx.AddFile("a.brs", []defs.FunctionDef{mkDef("FNFoo", false, false)})
	idx.AddFile("b.brs", []defs.FunctionDef{mkDef("FNFoo", true, false)})
	idx.AddFile("caller.brs", []defs.FunctionDef{mkDef("FNFoo", false, true)})

	uniq := idx.UniqueFunctions("caller.brs")
	require.Len(t, uniq, 1)
	assert.True(t, uniq[0].Def.IsLibrary)
}

func TestNormalizeLibraryPath(t *testing.T) {
	assert.Equal(t, "util/strings", NormalizeLibraryPath(`UTIL\Strings.wbs`))
}

func TestFingerprintRoundTripsAndClearsOnRemove(t *testing.T) {
	idx := NewIndex()
	_, ok := idx.Fingerprint("a.brs")
	assert.False(t, ok)

	idx.SetFingerprint("a.brs", "100 let a=1\n")
	h1, ok := idx.Fingerprint("a.brs")
	require.True(t, ok)

	idx.SetFingerprint("a.brs", "100 let a=1\n")
	h2, _ := idx.Fingerprint("a.brs")
	assert.Equal(t, h1, h2)

	idx.SetFingerprint("a.brs", "100 let a=2\n")
	h3, _ := idx.Fingerprint("a.brs")
	assert.NotEqual(t, h1, h3)

	idx.RemoveFile("a.brs")
	_, ok = idx.Fingerprint("a.brs")
	assert.False(t, ok)
}

func TestURIsIncludesCallerOnlyFiles(t *testing.T) {
	idx := NewIndex()
	// caller.brs never defines a function, only fingerprinted by a scan —
	// AllSymbols would miss it, but a cross-file reference search still
	// needs to visit it.
	idx.SetFingerprint("caller.brs", "100 let a=fnfoo(1)\n")
	idx.AddFile("lib.brs", []defs.FunctionDef{{Name: "fnfoo"}})

	uris := idx.URIs()
	assert.Contains(t, uris, "caller.brs")
	assert.NotContains(t, uris, "lib.brs") // AddFile alone sets no fingerprint

	idx.SetFingerprint("lib.brs", "100 def fnfoo(x)\n")
	uris = idx.URIs()
	assert.Contains(t, uris, "lib.brs")
}
