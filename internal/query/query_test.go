package query

import (
	"strings"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
)

func parse(source string) (*brparser.Tree, string) {
	p := brparser.NewParser([]string{"str", "val"})
	return p.Parse(source, nil), source
}

// col finds the byte/rune column of needle on the given 0-based source line.
func col(source string, lineIdx int, needle string) int {
	lines := strings.Split(source, "\n")
	return strings.Index(lines[lineIdx], needle)
}
