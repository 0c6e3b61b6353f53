package brparser

// QueryMatch is one match of a Query against a tree: the matched node plus
// any named captures within it.
type QueryMatch struct {
	Node     *Node
	Captures map[string]*Node
}

// Query finds every descendant node whose Kind is one of a fixed set —
// standing in for tree-sitter's s-expression query language, which BR has no
// grammar to compile queries against.
type Query struct {
	kinds []string
}

// NewQuery builds a Query matching any of the given node kinds.
func NewQuery(kinds ...string) *Query {
	return &Query{kinds: append([]string(nil), kinds...)}
}

// Run walks tree and returns one QueryMatch per matching node, in document
// order. The sole capture for each match is named after the node's kind.
func (q *Query) Run(tree *Tree) []QueryMatch {
	set := make(map[string]bool, len(q.kinds))
	for _, k := range q.kinds {
		set[k] = true
	}
	var matches []QueryMatch
	tree.Root.Walk(func(n *Node) {
		if set[n.Kind] {
			matches = append(matches, QueryMatch{Node: n, Captures: map[string]*Node{n.Kind: n}})
		}
	})
	return matches
}

// RunQuery is a convenience wrapper for the common case of collecting every
// node of the given kinds.
func RunQuery(tree *Tree, kinds ...string) []*Node {
	return tree.Root.FindAll(kinds...)
}
