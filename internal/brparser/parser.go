package brparser

import "strings"

// controlFlowKeywords precede a line/label reference rather than a plain
// variable reference.
var controlFlowKeywords = map[string]bool{
	"goto": true, "gosub": true, "then": true, "else": true, "restore": true,
}

var errorConditionNames = map[string]bool{
	"conv": true, "divide": true, "oflow": true, "ioerr": true,
	"duprec": true, "norec": true, "noacc": true, "eof": true,
}

var statementKeywords = map[string]bool{
	"def": true, "fnend": true, "end": true, "library": true, "dim": true,
	"option": true, "let": true, "print": true, "if": true, "for": true,
	"next": true, "goto": true, "gosub": true, "return": true, "on": true,
	"input": true, "read": true, "data": true, "restore": true, "close": true,
	"open": true, "write": true, "stop": true, "end program": true, "rem": true,
}

// Parser holds the (case-insensitive) set of known BR system-function names
// used to classify a call as a *_system_function vs *_user_function node.
// §9's "thread-local parsers" design note: callers create one Parser per
// goroutine; Parser itself holds no mutable state shared across calls other
// than this read-only set.
type Parser struct {
	systemFunctions map[string]bool
}

// NewParser builds a parser that classifies calls to any name in
// systemFunctionNames (case-insensitive) as system-function nodes.
func NewParser(systemFunctionNames []string) *Parser {
	set := make(map[string]bool, len(systemFunctionNames))
	for _, n := range systemFunctionNames {
		set[strings.ToLower(n)] = true
	}
	return &Parser{systemFunctions: set}
}

// Parse parses source into a Tree. prevTree is accepted for API symmetry
// with tree-sitter's incremental parse (and used as a fast path when source
// is unchanged); this façade always does a full parse otherwise, which
// trivially satisfies the incremental-equivalence property (§8 invariant 1)
// since there is no divergent incremental code path to disagree with it.
func (p *Parser) Parse(source string, prevTree *Tree) *Tree {
	if prevTree != nil && prevTree.Source == source {
		return prevTree
	}
	toks := lex(source)
	ps := &parseState{toks: toks, source: source, p: p}
	root := &Node{Kind: KindSourceFile, StartByte: 0, EndByte: uint32(len(source))}
	ps.parseLines(root)
	setParents(root)
	return &Tree{Root: root, Source: source}
}

func setParents(n *Node) {
	for _, c := range n.Children {
		c.Parent = n
		setParents(c)
	}
}

type parseState struct {
	toks []token
	pos  int
	source string
	p    *Parser
}

func (s *parseState) peek() token { return s.toks[s.pos] }

func (s *parseState) at(kind tokenKind) bool { return s.peek().kind == kind }

func (s *parseState) atText(text string) bool {
	t := s.peek()
	return (t.kind == tokIdent || t.kind == tokPunct) && strings.EqualFold(t.text, text)
}

func (s *parseState) advance() token {
	t := s.toks[s.pos]
	if t.kind != tokEOF {
		s.pos++
	}
	return t
}

// parseLines splits the token stream into physical lines (on tokNewline)
// and parses each one into a top-level node appended to root.
func (s *parseState) parseLines(root *Node) {
	for !s.at(tokEOF) {
		lineToks, lineStart := s.collectLine()
		if len(lineToks) == 0 {
			continue
		}
		node := s.parseLine(lineToks, lineStart)
		if node != nil {
			if n := len(root.Children); n > 0 && node.Kind == KindDocComment && root.Children[n-1].Kind == KindDocComment {
				prev := root.Children[n-1]
				prev.EndByte = node.EndByte
				prev.EndPoint = node.EndPoint
			} else {
				root.Children = append(root.Children, node)
			}
			root.EndByte = node.EndByte
			root.EndPoint = node.EndPoint
		}
	}
}

func (s *parseState) collectLine() ([]token, uint32) {
	start := s.pos
	for !s.at(tokEOF) && !s.at(tokNewline) {
		s.pos++
	}
	line := append([]token(nil), s.toks[start:s.pos]...)
	if s.at(tokNewline) {
		s.pos++ // consume newline
	}
	if len(line) == 0 {
		return nil, 0
	}
	return line, line[0].startByte
}

// parseLine parses one physical line's tokens into a statement node (or a
// comment/doc_comment node).
func (s *parseState) parseLine(toks []token, lineStart uint32) *Node {
	idx := 0

	if toks[0].kind == tokComment {
		kind := KindComment
		if strings.HasPrefix(strings.TrimSpace(toks[0].text), "!@") || strings.HasPrefix(toks[0].text, "!!") {
			kind = KindDocComment
		}
		return leaf(kind, toks[0])
	}

	var lineNumberNode *Node
	if toks[idx].kind == tokNumber {
		lineNumberNode = leaf(KindLineNumber, toks[idx])
		idx++
	}

	var labelNode *Node
	if idx+1 < len(toks) && toks[idx].kind == tokIdent && toks[idx+1].kind == tokPunct && toks[idx+1].text == ":" {
		labelTok := toks[idx]
		colon := toks[idx+1]
		labelNode = &Node{Kind: KindLabel, StartByte: labelTok.startByte, EndByte: colon.endByte,
			StartPoint: labelTok.startPoint, EndPoint: colon.endPoint}
		idx += 2
	}

	rest := toks[idx:]
	var stmt *Node
	if len(rest) == 0 {
		stmt = nil
	} else {
		head := rest[0]
		switch {
		case head.kind == tokIdent && isKeyword(head.text, "def"):
			stmt = s.parseDef(rest)
		case head.kind == tokIdent && isKeyword(head.text, "fnend"):
			stmt = leaf(KindFnEndStatement, head)
		case head.kind == tokIdent && isKeyword(head.text, "end") && len(rest) > 1 && isKeyword(rest[1].text, "def"):
			stmt = spanNode(KindEndDefStatement, head, rest[1])
		case head.kind == tokIdent && isKeyword(head.text, "library"):
			stmt = s.parseLibrary(rest)
		case head.kind == tokIdent && isKeyword(head.text, "dim"):
			stmt = s.parseDim(rest)
		case head.kind == tokIdent && isKeyword(head.text, "option"):
			stmt = s.parseOption(rest)
		case head.kind == tokComment:
			kind := KindComment
			stmt = leaf(kind, head)
		default:
			stmt = s.parseGenericStatement(rest)
		}
	}

	return s.combineLine(lineNumberNode, labelNode, stmt, toks, lineStart)
}

func (s *parseState) combineLine(lineNumberNode, labelNode, stmt *Node, toks []token, lineStart uint32) *Node {
	parts := make([]*Node, 0, 3)
	if lineNumberNode != nil {
		parts = append(parts, lineNumberNode)
	}
	if labelNode != nil {
		parts = append(parts, labelNode)
	}
	if stmt != nil {
		parts = append(parts, stmt)
	}
	if len(parts) == 0 {
		return nil
	}
	if len(parts) == 1 {
		return parts[0]
	}
	last := toks[len(toks)-1]
	wrapper := &Node{Kind: KindStatement, StartByte: lineStart, EndByte: last.endByte,
		StartPoint: toks[0].startPoint, EndPoint: last.endPoint, Children: parts}
	return wrapper
}

func leaf(kind string, t token) *Node {
	return &Node{Kind: kind, StartByte: t.startByte, EndByte: t.endByte, StartPoint: t.startPoint, EndPoint: t.endPoint}
}

func spanNode(kind string, first, last token) *Node {
	return &Node{Kind: kind, StartByte: first.startByte, EndByte: last.endByte, StartPoint: first.startPoint, EndPoint: last.endPoint}
}
