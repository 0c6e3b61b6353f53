package query

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/defs"
)

// SignatureInfo is one candidate signature offered by signature help —
// one per builtin overload, or the single entry for a user function.
type SignatureInfo struct {
	Label         string
	Documentation string
	ParamLabels   []string
}

// SignatureHelp is the full result: every candidate signature plus which
// one and which parameter the cursor currently sits in.
type SignatureHelp struct {
	Signatures      []SignatureInfo
	ActiveSignature int
	ActiveParameter int
}

// GetSignatureHelp walks up from the cursor to the nearest call's argument
// list, counts commas before the cursor to find the active parameter, and
// builds one candidate signature per builtin overload (or the single
// definition for a user function). When no enclosing "arguments" node is
// found at the cursor — typically because an unbalanced "(" put the parser
// into error recovery — it falls back to a text scan via
// FindFunctionCallContext.
func GetSignatureHelp(tree *brparser.Tree, source string, line, col int, localDefs []defs.FunctionDef) (SignatureHelp, bool) {
	if tree != nil {
		if name, activeParam, ok := callContextFromTree(tree, source, line, col); ok {
			return buildSignatureHelp(name, activeParam, localDefs)
		}
	}

	ctx, ok := FindFunctionCallContext(source, line, col)
	if !ok {
		return SignatureHelp{}, false
	}
	return buildSignatureHelp(ctx.Name, ctx.ActiveParam, localDefs)
}

// callContextFromTree walks up from the node at (line, col) to the nearest
// "arguments" node, then that node's call parent, to recover the called
// function's name, then counts top-level commas between the arguments
// node's start and the cursor to find the active parameter.
func callContextFromTree(tree *brparser.Tree, source string, line, col int) (string, int, bool) {
	n := tree.NodeAt(line, col)
	if n == nil {
		return "", 0, false
	}
	args := n
	for args != nil && args.Kind != brparser.KindArguments {
		args = args.Parent
	}
	if args == nil {
		return "", 0, false
	}
	call := args.Parent
	if call == nil {
		return "", 0, false
	}
	var fname *brparser.Node
	for _, c := range call.Children {
		if c.Kind == brparser.KindFunctionName {
			fname = c
			break
		}
	}
	if fname == nil {
		return "", 0, false
	}

	offset := byteOffsetAt(source, line, col)
	if offset < args.StartByte {
		offset = args.StartByte
	}
	if offset > args.EndByte {
		offset = args.EndByte
	}
	active := countTopLevelCommas(source, args.StartByte, offset)
	return fname.Text(source), active, true
}

// byteOffsetAt converts a (line, col) LSP-style position into a byte offset
// within source, assuming BR's one-byte-one-char simplification.
func byteOffsetAt(source string, line, col int) uint32 {
	lines := strings.Split(source, "\n")
	offset := 0
	for i := 0; i < line && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	offset += col
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	return uint32(offset)
}

// countTopLevelCommas counts commas at paren-depth 0 between start and end,
// ignoring commas inside string literals or nested parens.
func countTopLevelCommas(source string, start, end uint32) int {
	if int(end) > len(source) {
		end = uint32(len(source))
	}
	depth := 0
	inString := false
	count := 0
	b := []byte(source)
	for i := start; i < end; i++ {
		ch := b[i]
		if inString {
			if ch == '"' {
				if i+1 < end && b[i+1] == '"' {
					i++
				} else {
					inString = false
				}
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// CallContext is the result of a text-based scan for the enclosing call
// when the parse tree has no usable "arguments" node at the cursor.
type CallContext struct {
	Name        string
	ActiveParam int
}

// FindFunctionCallContext scans backward from (line, col) in source to find
// the function name before an unmatched opening "(", and counts commas
// seen along the way to determine the active parameter. It operates on raw
// bytes rather than the parse tree, so it still works while the user is
// mid-edit with unbalanced parens.
func FindFunctionCallContext(source string, line, col int) (CallContext, bool) {
	offset := int(byteOffsetAt(source, line, col))

	b := []byte(source)
	depth := 0
	commaCount := 0
	inString := false
	i := offset

	for i > 0 {
		i--
		ch := b[i]

		if inString {
			if ch == '"' {
				if i > 0 && b[i-1] == '"' {
					i--
				} else {
					inString = false
				}
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
		case ch == ')':
			depth++
		case ch == '(':
			depth--
			if depth < 0 {
				nameEnd := i
				nameStart := nameEnd
				for nameStart > 0 {
					c := b[nameStart-1]
					if isIdentByte(c) {
						nameStart--
					} else {
						break
					}
				}
				if nameStart == nameEnd {
					return CallContext{}, false
				}
				return CallContext{Name: string(b[nameStart:nameEnd]), ActiveParam: commaCount}, true
			}
		case ch == ',' && depth == 0:
			commaCount++
		}
	}

	return CallContext{}, false
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '$'
}

func buildSignatureHelp(name string, activeParam int, localDefs []defs.FunctionDef) (SignatureHelp, bool) {
	if overloads := builtins.Lookup(name); len(overloads) > 0 {
		sigs := make([]SignatureInfo, len(overloads))
		for i, fn := range overloads {
			labels := make([]string, len(fn.Params))
			for j, p := range fn.Params {
				labels[j] = p.Name
			}
			sigs[i] = SignatureInfo{Label: fn.FormatSignature(), Documentation: fn.Documentation, ParamLabels: labels}
		}
		return SignatureHelp{Signatures: sigs, ActiveParameter: clampParam(activeParam, len(sigs[0].ParamLabels))}, true
	}

	for _, d := range localDefs {
		if strings.EqualFold(d.Name, name) {
			labels := make([]string, 0, len(d.Params))
			for _, p := range d.Params {
				if strings.HasPrefix(p.Name, "___") {
					break
				}
				labels = append(labels, p.Name)
			}
			sig := SignatureInfo{Label: defs.FormatSignature(d.Name, d.Params), Documentation: d.Documentation, ParamLabels: labels}
			return SignatureHelp{Signatures: []SignatureInfo{sig}, ActiveParameter: clampParam(activeParam, len(labels))}, true
		}
	}

	return SignatureHelp{}, false
}

func clampParam(p, count int) int {
	if count == 0 {
		return 0
	}
	if p >= count {
		return count - 1
	}
	if p < 0 {
		return 0
	}
	return p
}
