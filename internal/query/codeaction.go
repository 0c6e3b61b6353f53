package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/diagnostics"
)

// TextEdit is a single replacement within a file, LSP's WorkspaceEdit unit.
type TextEdit struct {
	Range   defs.Range
	NewText string
}

// CodeAction is a QuickFix offered for a diagnostic: a title plus the edit
// that applies it.
type CodeAction struct {
	Title string
	Edits []TextEdit
}

// GenerateFunctionStub builds the "Generate function stub for '<name>'"
// QuickFix for an undefined-function diagnostic: it infers each parameter's
// name/type from the call site's arguments and appends a four-line stub
// (DEF/comment/LET/FNEND) at the next multiple of 10 after the file's
// highest line number.
func GenerateFunctionStub(uri string, diag diagnostics.Diagnostic, tree *brparser.Tree, source string) (CodeAction, bool) {
	if diag.Code != "undefined-function" {
		return CodeAction{}, false
	}
	fnName, ok := extractFunctionName(diag.Message)
	if !ok {
		return CodeAction{}, false
	}

	var params []stubParam
	if call := findCallNode(tree, diag.Range.StartLine, diag.Range.StartCol); call != nil {
		params = inferParams(call, source)
	} else if n := tree.NodeAt(diag.Range.StartLine, diag.Range.StartCol); n == nil ||
		(n.Kind != brparser.KindNumberReference && n.Kind != brparser.KindStringReference) {
		// A bare function name with no call parens parses as neither a call
		// node nor a recognizable reference at this position — nothing to
		// generate a stub from.
		return CodeAction{}, false
	}

	lastLN := lastLineNumber(tree, source)
	stubStart := nextLineNumber(lastLN)
	stub := generateStub(fnName, params, stubStart)

	lineCount := len(strings.Split(source, "\n"))
	insertPos := defs.Range{StartLine: lineCount, StartCol: 0, EndLine: lineCount, EndCol: 0}

	return CodeAction{
		Title: fmt.Sprintf("Generate function stub for '%s'", fnName),
		Edits: []TextEdit{{Range: insertPos, NewText: stub}},
	}, true
}

func extractFunctionName(message string) (string, bool) {
	start := strings.IndexByte(message, '\'')
	if start < 0 {
		return "", false
	}
	rest := message[start+1:]
	end := strings.IndexByte(rest, '\'')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func findCallNode(tree *brparser.Tree, line, col int) *brparser.Node {
	n := tree.NodeAt(line, col)
	for n != nil {
		if n.Kind == brparser.KindNumericUserFunction || n.Kind == brparser.KindStringUserFunction {
			return n
		}
		n = n.Parent
	}
	return nil
}

type stubParam struct {
	name string
	kind defs.ParamKind
}

func inferParams(call *brparser.Node, source string) []stubParam {
	argsNodes := call.ChildrenOfKind(brparser.KindArguments)
	if len(argsNodes) == 0 {
		return nil
	}
	args := argsNodes[0].Children
	out := make([]stubParam, len(args))
	for i, arg := range args {
		kind, ok := inferArgKind(arg)
		if !ok {
			kind = defs.KindNumeric
		}
		name, ok := inferParamName(arg, source)
		if !ok {
			name = genericParamName(i, kind)
		}
		out[i] = stubParam{name: name, kind: kind}
	}
	return out
}

// inferArgKind classifies an argument's coarse type directly from its node
// kind — this façade's call arguments are already resolved leaves/call
// nodes, with no expression/typed_expression wrapper layers to walk
// through the way the original grammar requires.
func inferArgKind(n *brparser.Node) (defs.ParamKind, bool) {
	switch n.Kind {
	case brparser.KindNumberReference, brparser.KindNumber, brparser.KindInt,
		brparser.KindNumericUserFunction, brparser.KindNumericSystemFunction:
		return defs.KindNumeric, true
	case brparser.KindStringReference, brparser.KindString,
		brparser.KindStringUserFunction, brparser.KindStringSystemFunction:
		return defs.KindString, true
	case brparser.KindNumberArray:
		return defs.KindNumericArray, true
	case brparser.KindStringArray:
		return defs.KindStringArray, true
	default:
		return 0, false
	}
}

// inferParamName recovers a readable parameter name from a simple variable
// argument: the reference's own text, or "Mat <name>" for an array
// reference (its hidden "MAT " prefix trimmed the same way
// emitMatKeyword locates it). Any other argument shape (a literal, a call,
// an arithmetic expression) has no stable name to borrow.
func inferParamName(n *brparser.Node, source string) (string, bool) {
	switch n.Kind {
	case brparser.KindNumberReference, brparser.KindStringReference:
		text := n.Text(source)
		if text == "" {
			return "", false
		}
		return text, true
	case brparser.KindNumberArray, brparser.KindStringArray:
		text := n.Text(source)
		if len(text) < 3 || !strings.EqualFold(text[:3], "mat") {
			return "", false
		}
		return "Mat " + strings.TrimSpace(text[3:]), true
	default:
		return "", false
	}
}

func genericParamName(index int, kind defs.ParamKind) string {
	n := index + 1
	switch kind {
	case defs.KindString:
		return fmt.Sprintf("Param%d$", n)
	case defs.KindNumericArray:
		return fmt.Sprintf("Mat Param%d", n)
	case defs.KindStringArray:
		return fmt.Sprintf("Mat Param%d$", n)
	default:
		return fmt.Sprintf("Param%d", n)
	}
}

func formatStubParam(p stubParam) string {
	if strings.HasPrefix(p.name, "Mat ") {
		return p.name
	}
	if p.kind == defs.KindNumericArray || p.kind == defs.KindStringArray {
		return "Mat " + p.name
	}
	return p.name
}

func lastLineNumber(tree *brparser.Tree, source string) int {
	max := 0
	for _, n := range tree.Root.FindAll(brparser.KindLineNumber) {
		v, err := strconv.Atoi(strings.TrimSpace(n.Text(source)))
		if err == nil && v > max {
			max = v
		}
	}
	return max
}

func nextLineNumber(last int) int {
	return (last/10 + 1) * 10
}

func generateStub(fnName string, params []stubParam, start int) string {
	isString := strings.HasSuffix(fnName, "$")
	defaultValue := "0"
	if isString {
		defaultValue = "\"\""
	}

	paramsStr := ""
	if len(params) > 0 {
		rendered := make([]string, len(params))
		for i, p := range params {
			rendered[i] = formatStubParam(p)
		}
		paramsStr = "(" + strings.Join(rendered, ",") + ")"
	}

	ln1, ln2, ln3, ln4 := start, start+10, start+20, start+30
	return fmt.Sprintf(
		"\n%05d DEF %s%s\n%05d ! TODO: Implement %s\n%05d LET %s=%s\n%05d FNEND\n",
		ln1, fnName, paramsStr, ln2, fnName, ln3, fnName, defaultValue, ln4,
	)
}
