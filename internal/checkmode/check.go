// Package checkmode runs the same diagnostics the language server would
// publish over LSP, but against files named on a command line and
// formatted as CSV, so BR projects can wire a syntax/lint gate into a
// regular build pipeline without speaking JSON-RPC.
package checkmode

import (
	"bytes"
	"encoding/csv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/config"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/diagnostics"
	"github.com/christopherroyshields/br-lsp/internal/source"
)

// FileDiagnostic is one reported problem, decoupled from the LSP wire
// shape: positions are 1-based, matching the convention of every other
// line-oriented BR tool (error messages, compiler listings).
type FileDiagnostic struct {
	File               string
	Line, Column       int
	EndLine, EndColumn int
	Severity           string
	Message            string
}

func severityStr(s diagnostics.Severity) string {
	switch s {
	case diagnostics.SeverityError:
		return "error"
	case diagnostics.SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// CheckFile parses and runs every diagnostic check family against one
// file. Functions defined elsewhere in the workspace are not visible to a
// single-file check, so undefined-function diagnostics here are reported
// against local definitions only — CheckPaths never cross-references
// between the files it's given.
func CheckFile(path string, cfg config.DiagnosticsConfig) []FileDiagnostic {
	text, err := source.ReadBRFile(path)
	if err != nil {
		return nil
	}

	p := brparser.NewParser(builtins.Names())
	tree := p.Parse(text, nil)
	defList := defs.Extract(tree, text)

	engine := diagnostics.NewEngine(cfg)
	knownLocally := func(name string) bool {
		for _, d := range defList {
			if d.Name == name {
				return true
			}
		}
		return false
	}
	diags := engine.Run(tree, text, defList, knownLocally)

	out := make([]FileDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = FileDiagnostic{
			File:       path,
			Line:       d.Range.StartLine + 1,
			Column:     d.Range.StartCol + 1,
			EndLine:    d.Range.EndLine + 1,
			EndColumn:  d.Range.EndCol + 1,
			Severity:   severityStr(d.Severity),
			Message:    d.Message,
		}
	}
	return out
}

// CheckPaths resolves each argument (a file or a directory to walk) into
// BR source files and checks every one concurrently, capped by GOMAXPROCS
// the way the teacher's CPU-bound scans are.
func CheckPaths(paths []string, cfg config.DiagnosticsConfig) ([]FileDiagnostic, error) {
	var files []string
	for _, p := range paths {
		matches, err := expandPath(p)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}

	results := make([][]FileDiagnostic, len(files))
	var g errgroup.Group
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = CheckFile(f, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []FileDiagnostic
	for _, r := range results {
		all = append(all, r...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		if all[i].Line != all[j].Line {
			return all[i].Line < all[j].Line
		}
		return all[i].Column < all[j].Column
	})
	return all, nil
}

func expandPath(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	var found []string
	walkErr := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && source.IsBRFile(path) {
			found = append(found, path)
		}
		return nil
	})
	return found, walkErr
}

// FormatCSV renders diagnostics as CSV with a header row: file, line,
// column, end_line, end_column, severity, message.
func FormatCSV(diags []FileDiagnostic) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"file", "line", "column", "end_line", "end_column", "severity", "message"})
	for _, d := range diags {
		_ = w.Write([]string{
			d.File,
			strconv.Itoa(d.Line), strconv.Itoa(d.Column), strconv.Itoa(d.EndLine), strconv.Itoa(d.EndColumn),
			d.Severity, d.Message,
		})
	}
	w.Flush()
	return buf.String()
}
