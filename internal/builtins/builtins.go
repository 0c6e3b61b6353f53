// Package builtins holds the catalog of BR system functions: their
// overload signatures, documentation, and inferred parameter kinds, used by
// hover, signature help, completion, and the arity/type diagnostics.
package builtins

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/christopherroyshields/br-lsp/internal/defs"
)

//go:embed builtins.json
var builtinsJSON []byte

//go:embed schema.json
var schemaJSON []byte

// Param is one declared parameter of a builtin overload.
type Param struct {
	Name          string `json:"name"`
	Documentation string `json:"documentation"`
}

// Function is one builtin overload entry.
type Function struct {
	Name          string  `json:"name"`
	Documentation string  `json:"documentation"`
	Params        []Param `json:"params"`
}

var catalog map[string][]Function

func init() {
	schema := new(jsonschema.Schema)
	if err := json.Unmarshal(schemaJSON, schema); err != nil {
		panic(fmt.Sprintf("builtins: invalid embedded schema: %v", err))
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("builtins: schema did not resolve: %v", err))
	}

	var raw any
	if err := json.Unmarshal(builtinsJSON, &raw); err != nil {
		panic(fmt.Sprintf("builtins: invalid embedded builtins.json: %v", err))
	}
	if err := resolved.Validate(raw); err != nil {
		panic(fmt.Sprintf("builtins: builtins.json fails schema validation: %v", err))
	}

	var functions []Function
	if err := json.Unmarshal(builtinsJSON, &functions); err != nil {
		panic(fmt.Sprintf("builtins: failed to decode builtins.json: %v", err))
	}

	catalog = make(map[string][]Function, len(functions))
	for _, fn := range functions {
		key := strings.ToLower(fn.Name)
		catalog[key] = append(catalog[key], fn)
	}
}

// Lookup returns every overload registered for name (case-insensitive), or
// nil if name is not a known builtin.
func Lookup(name string) []Function {
	return catalog[strings.ToLower(name)]
}

// IsBuiltin reports whether name names a known builtin function.
func IsBuiltin(name string) bool {
	_, ok := catalog[strings.ToLower(name)]
	return ok
}

// Names returns every builtin name in the catalog, for completion.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for _, fns := range catalog {
		out = append(out, fns[0].Name)
	}
	return out
}

// Kind infers p's expected parameter kind from BR's naming conventions, or
// false when the parameter is either a fixed literal (e.g. `"MD5"`) or too
// ambiguous to type-check.
func (p Param) Kind() (defs.ParamKind, bool) {
	if strings.HasPrefix(p.Name, "\"") {
		return 0, false
	}
	stripped := stripWrapperChars(p.Name)
	isMat := hasFoldPrefix(stripped, "MAT ")
	isString := strings.HasSuffix(stripped, "$")

	if isMat {
		if isString {
			return defs.KindStringArray, true
		}
		inner := strings.TrimSpace(trimFoldPrefix(stripped, "MAT "))
		if strings.Contains(strings.ToLower(inner), "numeric") {
			return defs.KindNumericArray, true
		}
		return 0, false
	}

	if isString {
		return defs.KindString, true
	}

	lower := strings.ToLower(stripped)
	if strings.Contains(lower, "array") || lower == "date" || lower == "argument" {
		return 0, false
	}
	return defs.KindNumeric, true
}

func stripWrapperChars(s string) string {
	s = strings.NewReplacer("[", "", "]", "", "<", "", ">", "", "*", "", "^", "").Replace(s)
	return strings.TrimSpace(s)
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func trimFoldPrefix(s, prefix string) string {
	if hasFoldPrefix(s, prefix) {
		return s[len(prefix):]
	}
	return s
}

// FormatSignature renders "NAME(p1, p2, ...)", or just "NAME" with no
// parameters.
func (f Function) FormatSignature() string {
	if len(f.Params) == 0 {
		return f.Name
	}
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return f.Name + "(" + strings.Join(names, ", ") + ")"
}

// Offset is a half-open byte range within a formatted signature label.
type Offset struct {
	Start, End int
}

// FormatSignatureWithOffsets is FormatSignature plus each parameter
// substring's byte offsets, for signature-help highlighting.
func (f Function) FormatSignatureWithOffsets() (string, []Offset) {
	if len(f.Params) == 0 {
		return f.Name, nil
	}
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString("(")
	offsets := make([]Offset, 0, len(f.Params))
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		start := b.Len()
		b.WriteString(p.Name)
		offsets = append(offsets, Offset{Start: start, End: b.Len()})
	}
	b.WriteString(")")
	return b.String(), offsets
}
