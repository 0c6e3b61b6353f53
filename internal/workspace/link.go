package workspace

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
)

// ExtractLibraryLinks scans tree for library_statement nodes and builds this
// file's function-name -> normalized-library-path map, used by
// LookupPrioritizedWithLinks to resolve a call through its LIBRARY import.
func ExtractLibraryLinks(tree *brparser.Tree, source string) map[string]string {
	links := make(map[string]string)
	for _, n := range tree.Root.FindAll(brparser.KindLibraryStatement) {
		pathNode := n.ChildByField("path")
		if pathNode == nil {
			continue
		}
		path := strings.Trim(pathNode.Text(source), "\"")
		normalized := NormalizeLibraryPath(path)
		for _, fnameNode := range n.ChildrenOfKind(brparser.KindFunctionName) {
			name := strings.ToLower(fnameNode.Text(source))
			links[name] = normalized
		}
	}
	return links
}
