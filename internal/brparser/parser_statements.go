package brparser

import "strings"

// parseDef parses "DEF fnName(params) [= expr]" / the block-opening form.
// Array/MAT-prefixed parameters are hidden tokens per spec.md §4.7's
// semantic-tokens note: the parameter node's StartByte covers the leading
// "MAT " text, but no child node represents it — only the visible "&" byref
// marker and the name are children.
func (s *parseState) parseDef(rest []token) *Node {
	defTok := rest[0]
	i := 1
	if i >= len(rest) {
		return leaf(KindError, defTok)
	}

	var children []*Node
	if rest[i].kind == tokIdent && isKeyword(rest[i].text, "library") {
		children = append(children, leaf(KindKeyword, rest[i]))
		i++
	}
	if i >= len(rest) {
		return leaf(KindError, defTok)
	}
	nameTok := rest[i]
	i++
	fname := &Node{Kind: KindFunctionName, Field: "function_name",
		StartByte: nameTok.startByte, EndByte: nameTok.endByte,
		StartPoint: nameTok.startPoint, EndPoint: nameTok.endPoint}

	children = append(children, fname)
	end := nameTok

	if i < len(rest) && rest[i].kind == tokPunct && rest[i].text == "(" {
		i++
		depth := 1
		start := i
		for i < len(rest) && depth > 0 {
			if rest[i].kind == tokPunct && rest[i].text == "(" {
				depth++
			} else if rest[i].kind == tokPunct && rest[i].text == ")" {
				depth--
				if depth == 0 {
					break
				}
			}
			i++
		}
		paramToks := rest[start:i]
		if i < len(rest) {
			end = rest[i]
			i++ // consume ")"
		}
		paramList := parseParameterList(paramToks)
		children = append(children, paramList)
	}

	var assignOp *Node
	if i < len(rest) && rest[i].kind == tokPunct && rest[i].text == "=" {
		assignOp = leaf(KindAssignmentOp, rest[i])
		end = rest[i]
		i++
		children = append(children, assignOp)
		if i < len(rest) {
			exprChildren := scanExpressionTokens(s.p, rest[i:])
			children = append(children, exprChildren...)
			end = rest[len(rest)-1]
		}
	}

	return &Node{Kind: KindDefStatement, StartByte: defTok.startByte, EndByte: end.endByte,
		StartPoint: defTok.startPoint, EndPoint: end.endPoint, Children: children}
}

func parseParameterList(toks []token) *Node {
	if len(toks) == 0 {
		return &Node{Kind: KindParameterList}
	}
	var children []*Node
	groupStart := 0
	depth := 0
	flush := func(end int) {
		if end > groupStart {
			children = append(children, parseOneParameter(toks[groupStart:end]))
		}
	}
	for i, t := range toks {
		if t.kind == tokPunct && t.text == "(" {
			depth++
		} else if t.kind == tokPunct && t.text == ")" {
			depth--
		} else if depth == 0 && t.kind == tokPunct && t.text == "," {
			flush(i)
			groupStart = i + 1
		} else if depth == 0 && t.kind == tokPunct && t.text == ";" {
			flush(i)
			children = append(children, leaf(KindOperator, t))
			groupStart = i + 1
		}
	}
	flush(len(toks))

	list := &Node{Kind: KindParameterList, Children: children}
	if len(toks) > 0 {
		list.StartByte = toks[0].startByte
		list.EndByte = toks[len(toks)-1].endByte
		list.StartPoint = toks[0].startPoint
		list.EndPoint = toks[len(toks)-1].endPoint
	}
	return list
}

func parseOneParameter(group []token) *Node {
	if len(group) == 0 {
		return &Node{Kind: KindNumericParameter}
	}
	idx := 0
	var ampTok *token
	var matTok *token
	var subNode *Node

	// detect [[ ... ]] substitution anywhere in the group; treat it as
	// disabling normal name parsing for this parameter.
	for j := 0; j < len(group); j++ {
		if group[j].kind == tokSubOpen {
			k := j + 1
			for k < len(group) && group[k].kind != tokSubClose {
				k++
			}
			endTok := group[j]
			if k < len(group) {
				endTok = group[k]
			}
			subNode = &Node{Kind: KindSubstitution, StartByte: group[j].startByte, EndByte: endTok.endByte,
				StartPoint: group[j].startPoint, EndPoint: endTok.endPoint}
			break
		}
	}

	if idx < len(group) && group[idx].kind == tokPunct && group[idx].text == "&" {
		t := group[idx]
		ampTok = &t
		idx++
	}
	if idx < len(group) && group[idx].kind == tokIdent && isKeyword(group[idx].text, "mat") {
		t := group[idx]
		matTok = &t
		idx++
	}
	if idx < len(group) && group[idx].kind == tokPunct && group[idx].text == "&" && ampTok == nil {
		t := group[idx]
		ampTok = &t
		idx++
	}

	var nameTok *token
	if idx < len(group) && group[idx].kind == tokIdent {
		t := group[idx]
		nameTok = &t
	}

	isString := nameTok != nil && strings.HasSuffix(nameTok.text, "$")
	isArray := matTok != nil

	kind := KindNumericParameter
	switch {
	case isArray && isString:
		kind = KindStringArrayParameter
	case isArray && !isString:
		kind = KindNumericArrayParameter
	case !isArray && isString:
		kind = KindStringParameter
	}

	var children []*Node
	if ampTok != nil {
		children = append(children, leaf(KindOperator, *ampTok))
	}
	if subNode != nil {
		children = append(children, subNode)
	}
	if nameTok != nil {
		children = append(children, &Node{Kind: KindIdentifier, Field: "name",
			StartByte: nameTok.startByte, EndByte: nameTok.endByte,
			StartPoint: nameTok.startPoint, EndPoint: nameTok.endPoint})
	}

	start := group[0]
	end := group[len(group)-1]
	startByte, startPoint := start.startByte, start.startPoint
	if matTok != nil {
		// MAT is a hidden prefix: the parameter node's span starts at "MAT"
		// even though no child node represents those bytes.
		startByte, startPoint = matTok.startByte, matTok.startPoint
	}

	return &Node{Kind: kind, StartByte: startByte, EndByte: end.endByte,
		StartPoint: startPoint, EndPoint: end.endPoint, Children: children}
}

// parseLibrary parses `LIBRARY "path": fnA, fnB$`.
func (s *parseState) parseLibrary(rest []token) *Node {
	libTok := rest[0]
	i := 1
	var pathNode *Node
	if i < len(rest) && rest[i].kind == tokString {
		pathNode = &Node{Kind: KindString, Field: "path", StartByte: rest[i].startByte, EndByte: rest[i].endByte,
			StartPoint: rest[i].startPoint, EndPoint: rest[i].endPoint}
		i++
	}
	if i < len(rest) && rest[i].kind == tokPunct && rest[i].text == ":" {
		i++
	}
	var children []*Node
	if pathNode != nil {
		children = append(children, pathNode)
	}
	for i < len(rest) {
		if rest[i].kind == tokIdent {
			n := &Node{Kind: KindFunctionName, Field: "function_name",
				StartByte: rest[i].startByte, EndByte: rest[i].endByte,
				StartPoint: rest[i].startPoint, EndPoint: rest[i].endPoint}
			children = append(children, n)
		}
		i++
	}
	end := rest[len(rest)-1]
	return &Node{Kind: KindLibraryStatement, StartByte: libTok.startByte, EndByte: end.endByte,
		StartPoint: libTok.startPoint, EndPoint: end.endPoint, Children: children}
}

// parseDim parses `DIM [MAT] name(dims), ...`; MAT is hidden the same way
// as in parameter lists.
func (s *parseState) parseDim(rest []token) *Node {
	dimTok := rest[0]
	toks := rest[1:]
	var children []*Node
	groupStart := 0
	depth := 0
	flush := func(end int) {
		if end > groupStart {
			children = append(children, parseDimVar(toks[groupStart:end]))
		}
	}
	for i, t := range toks {
		if t.kind == tokPunct && t.text == "(" {
			depth++
		} else if t.kind == tokPunct && t.text == ")" {
			depth--
		} else if depth == 0 && t.kind == tokPunct && t.text == "," {
			flush(i)
			groupStart = i + 1
		}
	}
	flush(len(toks))

	end := dimTok
	if len(toks) > 0 {
		end = toks[len(toks)-1]
	}
	return &Node{Kind: KindDimStatement, StartByte: dimTok.startByte, EndByte: end.endByte,
		StartPoint: dimTok.startPoint, EndPoint: end.endPoint, Children: children}
}

func parseDimVar(group []token) *Node {
	if len(group) == 0 {
		return &Node{Kind: KindIdentifier}
	}
	idx := 0
	var matTok *token
	if group[idx].kind == tokIdent && isKeyword(group[idx].text, "mat") {
		t := group[idx]
		matTok = &t
		idx++
	}
	var nameTok *token
	if idx < len(group) && group[idx].kind == tokIdent {
		t := group[idx]
		nameTok = &t
		idx++
	}
	isString := nameTok != nil && strings.HasSuffix(nameTok.text, "$")

	var children []*Node
	if nameTok != nil {
		kind := KindNumberReference
		if isString {
			kind = KindStringReference
		}
		if matTok != nil {
			if isString {
				kind = KindStringArray
			} else {
				kind = KindNumberArray
			}
		}
		children = append(children, &Node{Kind: kind, Field: "name",
			StartByte: nameTok.startByte, EndByte: nameTok.endByte,
			StartPoint: nameTok.startPoint, EndPoint: nameTok.endPoint})
	}
	// remaining tokens are size expressions/operators (e.g. "(10)", "*5")
	for ; idx < len(group); idx++ {
		t := group[idx]
		if t.kind == tokPunct && t.text == "*" {
			children = append(children, leaf(KindOperator, t))
		}
	}

	start := group[0]
	startByte, startPoint := start.startByte, start.startPoint
	if matTok != nil {
		startByte, startPoint = matTok.startByte, matTok.startPoint
	}
	end := group[len(group)-1]
	return &Node{Kind: KindDimStatement, StartByte: startByte, EndByte: end.endByte,
		StartPoint: startPoint, EndPoint: end.endPoint, Children: children}
}

func (s *parseState) parseOption(rest []token) *Node {
	start := rest[0]
	end := rest[len(rest)-1]
	var children []*Node
	for _, t := range rest[1:] {
		if t.kind == tokNumber {
			children = append(children, leaf(KindInt, t))
		}
	}
	return &Node{Kind: KindOptionStatement, StartByte: start.startByte, EndByte: end.endByte,
		StartPoint: start.startPoint, EndPoint: end.endPoint, Children: children}
}

func (s *parseState) parseGenericStatement(rest []token) *Node {
	start := rest[0]
	end := rest[len(rest)-1]
	children := scanExpressionTokens(s.p, rest)
	return &Node{Kind: KindStatement, StartByte: start.startByte, EndByte: end.endByte,
		StartPoint: start.startPoint, EndPoint: end.endPoint, Children: children}
}
