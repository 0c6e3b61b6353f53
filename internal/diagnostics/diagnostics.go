// Package diagnostics implements the server's four gated check families —
// syntax, missing-terminator/duplicate/arity-type ("functions"),
// undefined-function, and unused-variable — plus the debounced scheduler
// that reruns them after an edit settles.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/config"
	"github.com/christopherroyshields/br-lsp/internal/defs"
)

// Severity mirrors the LSP DiagnosticSeverity scale (Error is more severe
// than Warning, matching the wire encoding 1=Error, 2=Warning).
type Severity int

const (
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Range    defs.Range
	Severity Severity
	Message  string
	Code     string
}

func rangeOf(n *brparser.Node) defs.Range {
	return defs.Range{
		StartByte: n.StartByte, EndByte: n.EndByte,
		StartLine: n.StartPoint.Row, StartCol: n.StartPoint.Column,
		EndLine: n.EndPoint.Row, EndCol: n.EndPoint.Column,
	}
}

// Engine runs the enabled check families over one file's tree.
type Engine struct {
	Config config.DiagnosticsConfig
}

// NewEngine builds an Engine gated by cfg.
func NewEngine(cfg config.DiagnosticsConfig) *Engine {
	return &Engine{Config: cfg}
}

// Run executes every enabled check against tree/source. localDefs is this
// file's own extracted definitions (for duplicate/arity checks);
// workspaceHasFunction reports whether name is defined anywhere else in the
// workspace (for the undefined-function check) — nil disables that check
// even if UndefinedFunctions is set, so did_open (before indexing) can still
// run the other families.
func (e *Engine) Run(tree *brparser.Tree, source string, localDefs []defs.FunctionDef, workspaceHasFunction func(name string) bool) []Diagnostic {
	var out []Diagnostic

	if e.Config.Syntax {
		out = append(out, CheckSyntax(tree, source)...)
	}
	if e.Config.Functions {
		out = append(out, CheckMissingTerminator(tree, source)...)
		out = append(out, CheckDuplicateFunctions(tree, source)...)
		out = append(out, CheckArityAndTypes(tree, source, localDefs)...)
	}
	if e.Config.UndefinedFunctions && workspaceHasFunction != nil {
		out = append(out, CheckUndefinedFunctions(tree, source, localDefs, workspaceHasFunction)...)
	}
	if e.Config.UnusedVariables {
		out = append(out, CheckUnusedVariables(tree, source)...)
	}
	return out
}

// CheckSyntax walks tree emitting one diagnostic per ERROR/MISSING node.
// Subtrees with no error descendant are skipped without inspection.
func CheckSyntax(tree *brparser.Tree, source string) []Diagnostic {
	var out []Diagnostic
	var walk func(n *brparser.Node)
	walk = func(n *brparser.Node) {
		if n.Kind == brparser.KindError {
			text := n.Text(source)
			if len(text) > 50 {
				text = text[:50]
			}
			out = append(out, Diagnostic{
				Range: rangeOf(n), Severity: SeverityError,
				Message: fmt.Sprintf("Syntax error: unexpected `%s`", text),
			})
		}
		if n.IsMissing {
			out = append(out, Diagnostic{
				Range: rangeOf(n), Severity: SeverityError,
				Message: fmt.Sprintf("Syntax error: missing `%s`", n.Kind),
			})
		}
		if !n.HasErrorDescendant() {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree.Root)
	return out
}

func isInlineDef(def *brparser.Node) bool {
	return len(def.ChildrenOfKind(brparser.KindAssignmentOp)) > 0
}

func defFunctionName(def *brparser.Node, source string) string {
	if n := def.ChildByField("function_name"); n != nil {
		return n.Text(source)
	}
	return ""
}

type terminatorEvent struct {
	startByte uint32
	isDef     bool
	rng       defs.Range
	name      string
}

// CheckMissingTerminator streams def_statement/fnend_statement/
// end_def_statement nodes in byte order, flagging any DEF that is never
// closed by FNEND or END DEF before the next DEF (or end of file). Inline
// defs auto-close.
func CheckMissingTerminator(tree *brparser.Tree, source string) []Diagnostic {
	var events []terminatorEvent
	for _, n := range tree.Root.FindAll(brparser.KindDefStatement) {
		if isInlineDef(n) {
			events = append(events, terminatorEvent{startByte: n.StartByte, isDef: false})
			continue
		}
		events = append(events, terminatorEvent{
			startByte: n.StartByte, isDef: true,
			rng: rangeOf(n), name: defFunctionName(n, source),
		})
	}
	for _, n := range tree.Root.FindAll(brparser.KindFnEndStatement, brparser.KindEndDefStatement) {
		events = append(events, terminatorEvent{startByte: n.StartByte, isDef: false})
	}

	sortEventsByByte(events)

	var out []Diagnostic
	var open *terminatorEvent
	flush := func() {
		if open != nil {
			out = append(out, Diagnostic{
				Range: open.rng, Severity: SeverityError,
				Message: fmt.Sprintf("Function '%s' is missing FNEND", open.name),
			})
			open = nil
		}
	}
	for i := range events {
		ev := events[i]
		if ev.isDef {
			flush()
			open = &events[i]
		} else {
			open = nil
		}
	}
	flush()
	return out
}

func sortEventsByByte(events []terminatorEvent) {
	for i := 1; i < len(events); i++ {
		j := i
		for j > 0 && events[j].startByte < events[j-1].startByte {
			events[j], events[j-1] = events[j-1], events[j]
			j--
		}
	}
}

// CheckDuplicateFunctions flags the second and later occurrences of a
// function name (case-insensitive) defined more than once in one file.
func CheckDuplicateFunctions(tree *brparser.Tree, source string) []Diagnostic {
	var out []Diagnostic
	seen := make(map[string]bool)
	for _, n := range tree.Root.FindAll(brparser.KindDefStatement) {
		nameNode := n.ChildByField("function_name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Text(source)
		key := strings.ToLower(name)
		if seen[key] {
			out = append(out, Diagnostic{
				Range: rangeOf(nameNode), Severity: SeverityWarning,
				Message: fmt.Sprintf("Function '%s' is already defined in this file", name),
			})
			continue
		}
		seen[key] = true
	}
	return out
}

// CheckUndefinedFunctions flags a user-function call whose name is neither
// a local definition nor found anywhere in the workspace index.
func CheckUndefinedFunctions(tree *brparser.Tree, source string, localDefs []defs.FunctionDef, workspaceHasFunction func(string) bool) []Diagnostic {
	local := make(map[string]bool, len(localDefs))
	for _, d := range localDefs {
		local[strings.ToLower(d.Name)] = true
	}

	var out []Diagnostic
	for _, call := range tree.Root.FindAll(brparser.KindNumericUserFunction, brparser.KindStringUserFunction) {
		nameNode := call.ChildByField("function_name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Text(source)
		key := strings.ToLower(name)
		if local[key] || workspaceHasFunction(key) {
			continue
		}
		out = append(out, Diagnostic{
			Range: rangeOf(nameNode), Severity: SeverityWarning,
			Message: fmt.Sprintf("Function '%s' is not defined in the workspace", name),
			Code:    "undefined-function",
		})
	}
	return out
}

// CheckUnusedVariables warns about a variable that is only ever an
// assignment target and never read elsewhere in the file. LET is not
// stripped from a generic statement's token stream, so an assignment is
// recognized structurally — a reference node immediately followed by an
// "=" operator sibling within the same statement — rather than by dispatch
// kind. Scope is approximated at file level rather than per-function,
// which is adequate for a single-file local-variable idiom check.
func CheckUnusedVariables(tree *brparser.Tree, source string) []Diagnostic {
	type usage struct {
		writes, reads int
		first         *brparser.Node
	}
	seen := make(map[string]*usage)

	assignTargets := make(map[*brparser.Node]bool)
	var findTargets func(n *brparser.Node)
	findTargets = func(n *brparser.Node) {
		if n.Kind == brparser.KindStatement {
			for i := 0; i+1 < len(n.Children); i++ {
				c, next := n.Children[i], n.Children[i+1]
				isRef := c.Kind == brparser.KindNumberReference || c.Kind == brparser.KindStringReference
				if isRef && next.Kind == brparser.KindOperator && next.Text(source) == "=" {
					assignTargets[c] = true
				}
			}
		}
		for _, c := range n.Children {
			findTargets(c)
		}
	}
	findTargets(tree.Root)

	var walk func(n *brparser.Node)
	walk = func(n *brparser.Node) {
		switch n.Kind {
		case brparser.KindNumberReference, brparser.KindStringReference:
			key := strings.ToLower(n.Text(source))
			u, ok := seen[key]
			if !ok {
				u = &usage{first: n}
				seen[key] = u
			}
			if assignTargets[n] {
				u.writes++
			} else {
				u.reads++
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree.Root)

	var out []Diagnostic
	for name, u := range seen {
		if u.reads == 0 && u.writes > 0 {
			out = append(out, Diagnostic{
				Range: rangeOf(u.first), Severity: SeverityWarning,
				Message: fmt.Sprintf("Variable '%s' is assigned but never read", name),
			})
		}
	}
	return out
}

// CheckArityAndTypes validates every call node's argument count (and, when
// the count is acceptable, each argument's base type) against its resolved
// definition: a local def's parameter list, or a builtin's overload table.
func CheckArityAndTypes(tree *brparser.Tree, source string, localDefs []defs.FunctionDef) []Diagnostic {
	byName := make(map[string]defs.FunctionDef, len(localDefs))
	for _, d := range localDefs {
		key := strings.ToLower(d.Name)
		if _, exists := byName[key]; !exists {
			byName[key] = d
		}
	}

	var out []Diagnostic
	for _, call := range tree.Root.FindAll(
		brparser.KindNumericUserFunction, brparser.KindStringUserFunction,
		brparser.KindNumericSystemFunction, brparser.KindStringSystemFunction,
	) {
		nameNode := call.ChildByField("function_name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Text(source)
		argsNodes := call.ChildrenOfKind(brparser.KindArguments)
		if len(argsNodes) == 0 {
			continue
		}
		args := argsNodes[0].Children
		switch call.Kind {
		case brparser.KindNumericUserFunction, brparser.KindStringUserFunction:
			if fd, ok := byName[strings.ToLower(name)]; ok {
				out = append(out, checkUserCall(call, name, fd, args)...)
			}
		default:
			out = append(out, checkSystemCall(call, name, args)...)
		}
	}
	return out
}

func checkUserCall(call *brparser.Node, name string, fd defs.FunctionDef, args []*brparser.Node) []Diagnostic {
	if fd.HasParamSubstitution || fd.IsImportOnly {
		return nil
	}
	required := 0
	for _, p := range fd.Params {
		if !p.IsOptional {
			required++
		}
	}
	total := len(fd.Params)
	argCount := len(args)

	if argCount < required || argCount > total {
		return []Diagnostic{{
			Range: rangeOf(call), Severity: SeverityWarning,
			Message: arityMessage(name, required, total, argCount),
		}}
	}

	var out []Diagnostic
	for pos, p := range fd.Params {
		if pos >= argCount {
			break
		}
		argKind, ok := inferArgKind(args[pos])
		if !ok {
			continue
		}
		if baseOf(argKind) != baseOf(p.Kind) {
			out = append(out, Diagnostic{
				Range: rangeOf(args[pos]), Severity: SeverityWarning,
				Message: fmt.Sprintf("Expected %s argument at position %d, got %s", kindName(p.Kind), pos+1, kindName(argKind)),
			})
		}
	}
	return out
}

func checkSystemCall(call *brparser.Node, name string, args []*brparser.Node) []Diagnostic {
	overloads := builtins.Lookup(name)
	if len(overloads) == 0 {
		return nil
	}
	argCount := len(args)

	var accepting []builtins.Function
	for _, fn := range overloads {
		req, total := overloadArity(fn)
		if argCount >= req && (total < 0 || argCount <= total) {
			accepting = append(accepting, fn)
		}
	}
	if len(accepting) == 0 {
		req, total := overloadArity(overloads[0])
		return []Diagnostic{{
			Range: rangeOf(call), Severity: SeverityWarning,
			Message: arityMessage(name, req, total, argCount),
		}}
	}

	var out []Diagnostic
	for pos := 0; pos < argCount; pos++ {
		argKind, ok := inferArgKind(args[pos])
		if !ok {
			continue
		}
		anyAccepts := false
		var firstExpected defs.ParamKind
		haveExpected := false
		for _, fn := range accepting {
			if pos >= len(fn.Params) {
				anyAccepts = true
				continue
			}
			pkind, kOk := fn.Params[pos].Kind()
			if !kOk {
				anyAccepts = true
				continue
			}
			if !haveExpected {
				firstExpected, haveExpected = pkind, true
			}
			if baseOf(pkind) == baseOf(argKind) {
				anyAccepts = true
			}
		}
		if !anyAccepts && haveExpected {
			out = append(out, Diagnostic{
				Range: rangeOf(args[pos]), Severity: SeverityWarning,
				Message: fmt.Sprintf("Expected %s argument at position %d, got %s", kindName(firstExpected), pos+1, kindName(argKind)),
			})
		}
	}
	return out
}

// overloadArity returns (required, total) for fn; total is -1 when fn's
// last parameter name is the literal variadic sentinel "[...]".
func overloadArity(fn builtins.Function) (int, int) {
	required := 0
	for _, p := range fn.Params {
		if !strings.HasPrefix(p.Name, "[") {
			required++
		}
	}
	if n := len(fn.Params); n > 0 && fn.Params[n-1].Name == "[...]" {
		return required, -1
	}
	return required, len(fn.Params)
}

func arityMessage(name string, required, total, got int) string {
	if total < 0 {
		return fmt.Sprintf("Function '%s' expects %d+ parameter(s), but %d provided", name, required, got)
	}
	if required == total {
		return fmt.Sprintf("Function '%s' expects %d parameter(s), but %d provided", name, required, got)
	}
	return fmt.Sprintf("Function '%s' expects %d-%d parameter(s), but %d provided", name, required, total, got)
}

func inferArgKind(n *brparser.Node) (defs.ParamKind, bool) {
	switch n.Kind {
	case brparser.KindNumberReference, brparser.KindNumber,
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

// baseOf strips the array/scalar distinction: arity-and-type checking only
// enforces the string/numeric base, per spec — a scalar may stand in for an
// array parameter of the same base.
func baseOf(k defs.ParamKind) bool {
	return k == defs.KindString || k == defs.KindStringArray
}

func kindName(k defs.ParamKind) string {
	switch k {
	case defs.KindNumeric:
		return "numeric"
	case defs.KindString:
		return "string"
	case defs.KindNumericArray:
		return "numeric array"
	case defs.KindStringArray:
		return "string array"
	default:
		return "unknown"
	}
}
