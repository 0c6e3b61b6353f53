// Package workspace maintains the cross-file function index and per-file
// library-link maps used for navigation, hover, completion, and diagnostics.
package workspace

import (
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/christopherroyshields/br-lsp/internal/defs"
)

// IndexedFunctionDef pairs a FunctionDef with the URI of the file it came
// from.
type IndexedFunctionDef struct {
	URI string
	Def defs.FunctionDef
}

// Index is the workspace-wide, lowercased-name-keyed function table. It is
// safe for concurrent use.
type Index struct {
	mu          sync.RWMutex
	definitions map[string][]IndexedFunctionDef
	// links[uri][lowercase function name] = normalized library path
	links map[string]map[string]string
	// fingerprints[uri] = xxhash of the last source a rescan indexed, so a
	// workspace scan can skip re-extracting unchanged files.
	fingerprints map[string]uint64
}

// NewIndex builds an empty Index.
func NewIndex() *Index {
	return &Index{
		definitions:  make(map[string][]IndexedFunctionDef),
		links:        make(map[string]map[string]string),
		fingerprints: make(map[string]uint64),
	}
}

// Fingerprint returns the source hash recorded for uri by the last call to
// SetFingerprint, or (0, false) if none was ever recorded.
func (idx *Index) Fingerprint(uri string) (uint64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	h, ok := idx.fingerprints[uri]
	return h, ok
}

// SetFingerprint records source's hash against uri. A workspace scan hashes
// a file before re-extracting definitions from it, and skips the
// extract/remove/add cycle entirely when the hash is unchanged.
func (idx *Index) SetFingerprint(uri, source string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.fingerprints[uri] = xxhash.Sum64String(source)
}

// AddFile appends every def in defList under uri.
func (idx *Index) AddFile(uri string, defList []defs.FunctionDef) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, d := range defList {
		key := strings.ToLower(d.Name)
		idx.definitions[key] = append(idx.definitions[key], IndexedFunctionDef{URI: uri, Def: d})
	}
}

// RemoveFile removes every entry belonging to uri, across all keys.
func (idx *Index) RemoveFile(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(uri)
	delete(idx.links, uri)
	delete(idx.fingerprints, uri)
}

func (idx *Index) removeFileLocked(uri string) {
	for key, entries := range idx.definitions {
		kept := entries[:0]
		for _, e := range entries {
			if e.URI != uri {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(idx.definitions, key)
		} else {
			idx.definitions[key] = kept
		}
	}
}

// UpdateFile replaces uri's entries: remove-then-add, so stale entries never
// linger across an edit.
func (idx *Index) UpdateFile(uri string, defList []defs.FunctionDef) {
	idx.mu.Lock()
	idx.removeFileLocked(uri)
	idx.mu.Unlock()
	idx.AddFile(uri, defList)
}

// SetLibraryLinks records uri's per-file function-name -> normalized
// library-path map (see NormalizeLibraryPath).
func (idx *Index) SetLibraryLinks(uri string, links map[string]string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.links[uri] = links
}

// Links returns uri's function-name -> normalized-library-path map, as last
// set by SetLibraryLinks.
func (idx *Index) Links(uri string) map[string]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.links[uri]
}

// Lookup returns every entry registered under name (case-insensitive), in
// insertion order.
func (idx *Index) Lookup(name string) []IndexedFunctionDef {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entries := idx.definitions[strings.ToLower(name)]
	out := make([]IndexedFunctionDef, len(entries))
	copy(out, entries)
	return out
}

// LookupPrioritized returns every entry for name, stable-sorted into
// priority buckets relative to currentURI:
//  0. same URI, non-import-only
//  1. (library-link bucket — only populated by LookupPrioritizedWithLinks)
//  2. non-import-only, is_library
//  3. non-import-only, any
//  4. import-only
func (idx *Index) LookupPrioritized(name, currentURI string) []IndexedFunctionDef {
	return idx.LookupPrioritizedWithLinks(name, currentURI, nil, nil)
}

// LookupPrioritizedWithLinks is LookupPrioritized extended with bucket 1:
// an explicit library-link match, where libraryLinks is currentURI's
// function-name -> normalized-library-path map (see SetLibraryLinks) and
// workspaceFolders lets a relative link path be resolved against each root
// before suffix-matching it against a candidate's URI.
func (idx *Index) LookupPrioritizedWithLinks(name, currentURI string, libraryLinks map[string]string, workspaceFolders []string) []IndexedFunctionDef {
	entries := idx.Lookup(name)
	linkPath := libraryLinks[strings.ToLower(name)]

	bucket := func(e IndexedFunctionDef) int {
		switch {
		case e.URI == currentURI && !e.Def.IsImportOnly:
			return 0
		case linkPath != "" && !e.Def.IsImportOnly && matchesLibraryLink(e.URI, linkPath, workspaceFolders):
			return 1
		case !e.Def.IsImportOnly && e.Def.IsLibrary:
			return 2
		case !e.Def.IsImportOnly:
			return 3
		default:
			return 4
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return bucket(entries[i]) < bucket(entries[j])
	})
	return entries
}

// LookupBest returns the single highest-priority entry for name relative to
// currentURI, or false if none exists.
func (idx *Index) LookupBest(name, currentURI string) (IndexedFunctionDef, bool) {
	entries := idx.LookupPrioritized(name, currentURI)
	if len(entries) == 0 {
		return IndexedFunctionDef{}, false
	}
	return entries[0], true
}

// URIs returns every file the index has ever recorded a fingerprint for —
// every scanned or edited file, including one that currently defines no
// functions at all. A workspace-wide search needs this (rather than the
// URIs implied by AllSymbols) because a file with zero DEFs can still call
// a function defined elsewhere.
func (idx *Index) URIs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.fingerprints))
	for uri := range idx.fingerprints {
		out = append(out, uri)
	}
	return out
}

// AllSymbols returns every indexed definition, across all names and files.
func (idx *Index) AllSymbols() []IndexedFunctionDef {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []IndexedFunctionDef
	for _, entries := range idx.definitions {
		out = append(out, entries...)
	}
	return out
}

// UniqueFunctions returns one representative entry per lowercased function
// name, excluding excludeURI and every import-only entry. Among remaining
// candidates for a name it prefers the is_library entry, else the first
// remaining one — matching original_source/workspace.rs's tie-break.
func (idx *Index) UniqueFunctions(excludeURI string) []IndexedFunctionDef {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []IndexedFunctionDef
	for _, entries := range idx.definitions {
		var candidates []IndexedFunctionDef
		for _, e := range entries {
			if e.URI != excludeURI && !e.Def.IsImportOnly {
				candidates = append(candidates, e)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		pick := candidates[0]
		for _, c := range candidates {
			if c.Def.IsLibrary {
				pick = c
				break
			}
		}
		out = append(out, pick)
	}
	return out
}

// NormalizeLibraryPath normalizes a LIBRARY statement's path argument for
// link-map comparison: backslashes to forward slashes, lowercased, file
// extension stripped.
func NormalizeLibraryPath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	p = strings.ToLower(p)
	if dot := strings.LastIndex(p, "."); dot >= 0 && dot > strings.LastIndex(p, "/") {
		p = p[:dot]
	}
	return p
}

func matchesLibraryLink(candidateURI, normalizedLinkPath string, workspaceFolders []string) bool {
	candidate := NormalizeLibraryPath(strings.TrimPrefix(candidateURI, "file://"))
	if strings.HasSuffix(candidate, normalizedLinkPath) {
		return true
	}
	for _, root := range workspaceFolders {
		rootNorm := NormalizeLibraryPath(strings.TrimPrefix(root, "file://"))
		if strings.HasSuffix(candidate, rootNorm+"/"+normalizedLinkPath) {
			return true
		}
	}
	return false
}
