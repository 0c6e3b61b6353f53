package lsp

import (
	"golang.org/x/sync/errgroup"

	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/query"
)

// uriRanges pairs a URI with the ranges a workspace-wide search found in it.
type uriRanges struct {
	URI    string
	Source string
	Ranges []defs.Range
}

// candidateURIs returns every file a workspace-wide function search should
// visit: everything the index has ever fingerprinted (every scanned or
// edited file, even one that currently defines no functions of its own),
// plus every currently open document, deduplicated.
func (s *Server) candidateURIs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, uri := range s.index.URIs() {
		if !seen[uri] {
			seen[uri] = true
			out = append(out, uri)
		}
	}
	for _, uri := range s.docs.URIs() {
		if !seen[uri] {
			seen[uri] = true
			out = append(out, uri)
		}
	}
	return out
}

// findFunctionReferencesWorkspace searches every open-or-indexed file in
// parallel for occurrences of name, one *brparser.Parser per goroutine
// (loadSource builds a fresh one for every off-disk file), and concatenates
// the per-file results grouped by URI — the cross-file reference/rename
// search a user-function rename or find-references must perform.
func (s *Server) findFunctionReferencesWorkspace(name string) []uriRanges {
	uris := s.candidateURIs()
	results := make([]uriRanges, len(uris))

	var g errgroup.Group
	for i, uri := range uris {
		i, uri := i, uri
		g.Go(func() error {
			tree, source, ok := s.loadSource(uri)
			if !ok {
				return nil
			}
			ranges := query.FindFunctionReferencesInFile(tree, source, name)
			if len(ranges) > 0 {
				results[i] = uriRanges{URI: uri, Source: source, Ranges: ranges}
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]uriRanges, 0, len(results))
	for _, r := range results {
		if len(r.Ranges) > 0 {
			out = append(out, r)
		}
	}
	return out
}
