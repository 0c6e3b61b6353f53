package brparser

// ApplyChange adjusts every node's byte/point extents in place to account
// for a single edit, mirroring tree-sitter's ts_tree_edit. Since Parse always
// does a full reparse for any changed source, this exists for API parity
// with callers written against real tree-sitter bindings — the document
// store can call it before Parse without special-casing this façade.
func (t *Tree) ApplyChange(edit InputEdit) {
	if t.Root == nil {
		return
	}
	applyEdit(t.Root, edit)
}

func applyEdit(n *Node, e InputEdit) {
	n.StartByte = adjustByte(n.StartByte, e)
	n.EndByte = adjustByte(n.EndByte, e)
	n.StartPoint = adjustPoint(n.StartPoint, e)
	n.EndPoint = adjustPoint(n.EndPoint, e)
	for _, c := range n.Children {
		applyEdit(c, e)
	}
}

func adjustByte(b uint32, e InputEdit) uint32 {
	switch {
	case b >= e.OldEndByte:
		return b + e.NewEndByte - e.OldEndByte
	case b >= e.StartByte:
		return e.NewEndByte
	default:
		return b
	}
}

func adjustPoint(p Point, e InputEdit) Point {
	after := p.Row > e.OldEndPoint.Row || (p.Row == e.OldEndPoint.Row && p.Column >= e.OldEndPoint.Column)
	if after {
		if p.Row == e.OldEndPoint.Row {
			p.Column = e.NewEndPoint.Column + (p.Column - e.OldEndPoint.Column)
			p.Row = e.NewEndPoint.Row
		} else {
			p.Row += e.NewEndPoint.Row - e.OldEndPoint.Row
		}
		return p
	}
	before := p.Row < e.StartPoint.Row || (p.Row == e.StartPoint.Row && p.Column < e.StartPoint.Column)
	if before {
		return p
	}
	return e.StartPoint
}

// byteOffsetForPoint converts a (line, col) position to a byte offset by
// scanning source for newlines; BR lines are byte-addressed so col is
// already a byte count within the line.
func byteOffsetForPoint(source string, line, col int) int {
	l := 0
	i := 0
	n := len(source)
	for l < line && i < n {
		if source[i] == '\n' {
			l++
		}
		i++
	}
	off := i + col
	if off > n {
		off = n
	}
	return off
}

// FindFunctionCallContext backward-scans from (line, col) to find the
// enclosing function call, for signature help. It tracks paren nesting and
// skips over doubled-quote string literals so a comma or paren inside a
// string argument doesn't confuse the scan. Returns ok=false outside any
// call.
func FindFunctionCallContext(source string, line, col int) (name string, argIndex int, ok bool) {
	off := byteOffsetForPoint(source, line, col)
	depth := 0
	i := off - 1
	for i >= 0 {
		c := source[i]
		switch {
		case c == '"':
			i--
			for i >= 0 && source[i] != '"' {
				i--
			}
			i--
		case c == ')':
			depth++
			i--
		case c == '(':
			if depth == 0 {
				j := i - 1
				for j >= 0 && (source[j] == ' ' || source[j] == '\t') {
					j--
				}
				end := j + 1
				for j >= 0 && isIdentPart(source[j]) {
					j--
				}
				start := j + 1
				if start >= end {
					return "", 0, false
				}
				return source[start:end], argIndex, true
			}
			depth--
			i--
		case c == ',':
			if depth == 0 {
				argIndex++
			}
			i--
		case c == '\n':
			i--
		default:
			i--
		}
	}
	return "", 0, false
}
