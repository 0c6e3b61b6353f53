// Package brparser is the parser façade: it wraps BR's concrete grammar
// (a hand-written tokenizer/parser standing in for the opaque grammar the
// spec assumes is available) behind an API shaped like tree-sitter's, so
// the rest of the system — diagnostics, the query layer, semantic tokens —
// is written exactly as it would be against real tree-sitter bindings.
package brparser

// Point is a (row, column) position, both zero-based. Because BR source is
// byte-addressed (§6), column is a byte offset within its line, not a rune
// count.
type Point struct {
	Row    int
	Column int
}

// Less reports whether p sorts before o.
func (p Point) Less(o Point) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Column < o.Column
}

// InputEdit mirrors tree-sitter's TSInputEdit: the byte/point extents of a
// single textual splice, used to keep a syntax tree synchronized with its
// source after an edit.
type InputEdit struct {
	StartByte          uint32
	OldEndByte         uint32
	NewEndByte         uint32
	StartPoint         Point
	OldEndPoint        Point
	NewEndPoint        Point
}

// Node kinds. Named nodes follow the grammar description in spec.md §4.1-§4.7;
// a handful of punctuation/keyword kinds exist only so semantic tokens and
// diagnostics can walk uniformly shaped trees.
const (
	KindSourceFile = "source_file"

	KindDefStatement    = "def_statement"
	KindFnEndStatement  = "fnend_statement"
	KindEndDefStatement = "end_def_statement"
	KindLibraryStatement = "library_statement"
	KindDimStatement    = "dim_statement"
	KindOptionStatement = "option_statement"
	KindLetStatement    = "let_statement"
	KindStatement       = "statement" // generic/unrecognized statement keyword

	KindFunctionName          = "function_name"
	KindParameterList         = "parameter_list"
	KindNumericParameter      = "numeric_parameter"
	KindStringParameter       = "string_parameter"
	KindNumericArrayParameter = "numeric_array_parameter"
	KindStringArrayParameter  = "string_array_parameter"
	KindSubstitution          = "substitution" // [[Name]]
	KindAssignmentOp          = "assignment_op"

	KindArguments              = "arguments"
	KindNumericUserFunction    = "numeric_user_function"
	KindStringUserFunction     = "string_user_function"
	KindNumericSystemFunction  = "numeric_system_function"
	KindStringSystemFunction   = "string_system_function"

	KindLabel         = "label"
	KindLabelRef       = "label_reference"
	KindLineNumber     = "line_number"
	KindLineRef        = "line_reference"
	KindErrorCondition = "error_condition"

	KindIdentifier      = "identifier"
	KindStringIdent     = "stringidentifier"
	KindNumberIdent     = "numberidentifier"
	KindStringReference = "stringreference"
	KindNumberReference = "numberreference"
	KindStringArray     = "stringarray"
	KindNumberArray     = "numberarray"

	KindNumber         = "number"
	KindInt            = "int"
	KindString         = "string"
	KindTemplateString = "template_string"
	KindRange          = "range"

	KindComment       = "comment"
	KindMultilineComment = "multiline_comment"
	KindDocComment    = "doc_comment"

	KindKeyword  = "keyword"
	KindMat      = "mat"
	KindOperator = "operator"

	KindError   = "ERROR"
	KindMissing = "MISSING"
)

// Node is one tree node. Leaf nodes have no Children. Field names (e.g.
// "function_name", "arguments") mirror the grammar field names referenced
// throughout spec.md §4.3/§4.7.
type Node struct {
	Kind       string
	Field      string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	Parent     *Node

	// IsMissing marks a synthetic node the parser inserted to recover from
	// a missing required token (e.g. an unterminated string).
	IsMissing bool
}

// IsError reports whether this node itself is an ERROR node; descendants
// are not inspected (HasErrorDescendant covers those).
func (n *Node) IsError() bool {
	return n.Kind == KindError
}

// HasErrorDescendant reports whether any descendant (including n itself) is
// an ERROR or MISSING node.
func (n *Node) HasErrorDescendant() bool {
	if n.Kind == KindError || n.IsMissing {
		return true
	}
	for _, c := range n.Children {
		if c.HasErrorDescendant() {
			return true
		}
	}
	return false
}

// Text returns the node's source text.
func (n *Node) Text(source string) string {
	if int(n.EndByte) > len(source) || n.StartByte > n.EndByte {
		return ""
	}
	return source[n.StartByte:n.EndByte]
}

// ChildByField returns the first direct child whose Field matches name.
func (n *Node) ChildByField(name string) *Node {
	for _, c := range n.Children {
		if c.Field == name {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns direct children with the given kind.
func (n *Node) ChildrenOfKind(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk calls fn for n and every descendant, pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindAll returns every descendant (including n) whose Kind is in kinds.
func (n *Node) FindAll(kinds ...string) []*Node {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	var out []*Node
	n.Walk(func(c *Node) {
		if set[c.Kind] {
			out = append(out, c)
		}
	})
	return out
}

// Contains reports whether byte offset b falls within [StartByte, EndByte).
func (n *Node) Contains(b uint32) bool {
	return b >= n.StartByte && b < n.EndByte
}

// Tree is a parsed BR source file.
type Tree struct {
	Root   *Node
	Source string
}

// NodeAt returns the smallest named node containing (line, col), or nil.
func (t *Tree) NodeAt(line, col int) *Node {
	target := Point{Row: line, Column: col}
	return nodeAt(t.Root, target)
}

func nodeAt(n *Node, target Point) *Node {
	if target.Less(n.StartPoint) || n.EndPoint.Less(target) {
		return nil
	}
	var best *Node = n
	for _, c := range n.Children {
		if m := nodeAt(c, target); m != nil {
			best = m
		}
	}
	return best
}
