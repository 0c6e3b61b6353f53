package brparser

import "strings"

// scanExpressionTokens scans a flat (single-line, no tokNewline) token slice
// into a list of top-level expression/reference/call nodes. It is shared by
// inline DEF bodies and generic statements: both are "the rest of the line"
// after any statement keyword has been consumed.
func scanExpressionTokens(p *Parser, toks []token) []*Node {
	var out []*Node
	i := 0
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.kind == tokComment:
			out = append(out, leaf(KindComment, t))
			i++

		case t.kind == tokNumber:
			out = append(out, leaf(KindNumber, t))
			i++

		case t.kind == tokString:
			out = append(out, leaf(KindString, t))
			i++

		case t.kind == tokSubOpen:
			j := i + 1
			for j < len(toks) && toks[j].kind != tokSubClose {
				j++
			}
			endTok := t
			if j < len(toks) {
				endTok = toks[j]
			}
			out = append(out, &Node{Kind: KindSubstitution, StartByte: t.startByte, EndByte: endTok.endByte,
				StartPoint: t.startPoint, EndPoint: endTok.endPoint})
			if j < len(toks) {
				i = j + 1
			} else {
				i = j
			}

		case t.kind == tokIdent && isKeyword(t.text, "mat") && i+1 < len(toks) && toks[i+1].kind == tokIdent:
			nameTok := toks[i+1]
			kind := KindNumberArray
			if strings.HasSuffix(nameTok.text, "$") {
				kind = KindStringArray
			}
			out = append(out, &Node{Kind: kind, StartByte: t.startByte, EndByte: nameTok.endByte,
				StartPoint: t.startPoint, EndPoint: nameTok.endPoint})
			i += 2

		case t.kind == tokIdent && controlFlowKeywords[strings.ToLower(t.text)]:
			out = append(out, leaf(KindKeyword, t))
			i++
			if i < len(toks) {
				nt := toks[i]
				switch {
				case nt.kind == tokNumber:
					out = append(out, leaf(KindLineRef, nt))
					i++
				case nt.kind == tokIdent && errorConditionNames[strings.ToLower(nt.text)]:
					out = append(out, leaf(KindErrorCondition, nt))
					i++
				case nt.kind == tokIdent:
					out = append(out, leaf(KindLabelRef, nt))
					i++
				}
			}

		case t.kind == tokIdent:
			node, next := scanIdentOrCall(p, toks, i)
			out = append(out, node)
			i = next

		default:
			out = append(out, leaf(KindOperator, t))
			i++
		}
	}
	return out
}

// scanIdentOrCall classifies an identifier at toks[i]: a trailing "(...)"
// makes it a call node (numeric/string × system/user), otherwise it's a bare
// scalar reference. Returns the node and the index of the next unconsumed
// token.
func scanIdentOrCall(p *Parser, toks []token, i int) (*Node, int) {
	t := toks[i]
	isString := strings.HasSuffix(t.text, "$")

	if i+1 < len(toks) && toks[i+1].kind == tokPunct && toks[i+1].text == "(" {
		depth := 1
		j := i + 2
		start := j
		for j < len(toks) && depth > 0 {
			if toks[j].kind == tokPunct && toks[j].text == "(" {
				depth++
			} else if toks[j].kind == tokPunct && toks[j].text == ")" {
				depth--
				if depth == 0 {
					break
				}
			}
			j++
		}
		argToks := toks[start:j]
		endTok := t
		if j < len(toks) {
			endTok = toks[j]
		}

		bareName := strings.TrimSuffix(t.text, "$")
		isSystem := p.systemFunctions[strings.ToLower(bareName)]

		kind := KindNumericUserFunction
		switch {
		case isSystem && isString:
			kind = KindStringSystemFunction
		case isSystem && !isString:
			kind = KindNumericSystemFunction
		case !isSystem && isString:
			kind = KindStringUserFunction
		}

		fnameNode := &Node{Kind: KindFunctionName, Field: "function_name",
			StartByte: t.startByte, EndByte: t.endByte, StartPoint: t.startPoint, EndPoint: t.endPoint}
		argsNode := buildArgumentsNode(p, argToks)

		callNode := &Node{Kind: kind, StartByte: t.startByte, EndByte: endTok.endByte,
			StartPoint: t.startPoint, EndPoint: endTok.endPoint, Children: []*Node{fnameNode, argsNode}}

		next := j
		if j < len(toks) {
			next = j + 1
		}
		return callNode, next
	}

	kind := KindNumberReference
	if isString {
		kind = KindStringReference
	}
	return &Node{Kind: kind, StartByte: t.startByte, EndByte: t.endByte, StartPoint: t.startPoint, EndPoint: t.endPoint}, i + 1
}

// buildArgumentsNode splits a parenthesized argument token range on top-level
// commas. Argument count is the number of comma-separated groups, so an
// empty group (consecutive commas, or "(,)") still counts as one argument —
// diagnostics' arity check relies on len(Children) exactly matching BR's own
// counting convention.
func buildArgumentsNode(p *Parser, toks []token) *Node {
	node := &Node{Kind: KindArguments}
	if len(toks) == 0 {
		return node
	}
	node.StartByte = toks[0].startByte
	node.EndByte = toks[len(toks)-1].endByte
	node.StartPoint = toks[0].startPoint
	node.EndPoint = toks[len(toks)-1].endPoint

	var groups [][]token
	depth := 0
	groupStart := 0
	for i, t := range toks {
		if t.kind == tokPunct && t.text == "(" {
			depth++
		} else if t.kind == tokPunct && t.text == ")" {
			depth--
		} else if depth == 0 && t.kind == tokPunct && t.text == "," {
			groups = append(groups, toks[groupStart:i])
			groupStart = i + 1
		}
	}
	groups = append(groups, toks[groupStart:])

	for _, g := range groups {
		kids := scanExpressionTokens(p, g)
		switch len(kids) {
		case 0:
			pos, pt := node.StartByte, node.StartPoint
			if len(g) > 0 {
				pos, pt = g[0].startByte, g[0].startPoint
			}
			node.Children = append(node.Children, &Node{Kind: KindStatement, StartByte: pos, EndByte: pos, StartPoint: pt, EndPoint: pt})
		case 1:
			node.Children = append(node.Children, kids[0])
		default:
			node.Children = append(node.Children, &Node{Kind: KindStatement,
				StartByte: kids[0].StartByte, EndByte: kids[len(kids)-1].EndByte,
				StartPoint: kids[0].StartPoint, EndPoint: kids[len(kids)-1].EndPoint, Children: kids})
		}
	}
	return node
}
