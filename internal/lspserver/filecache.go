package lsp

import (
	"os"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/document"
	"github.com/christopherroyshields/br-lsp/internal/encoding"
)

// loadSource returns uri's tree and source text: from the open-document
// store if the client has it open, otherwise parsed fresh off disk (CP437
// decoded) without installing it into the store — used to resolve
// definitions/hovers that cross into a file the client never opened but the
// workspace scan already indexed. The off-disk path builds its own parser
// (never Server.parser) so it stays safe to call from a workspace-wide
// fan-out search running on many goroutines at once.
func (s *Server) loadSource(uri string) (*brparser.Tree, string, bool) {
	if st, ok := s.docs.Get(uri); ok && st.Kind == document.KindBR {
		return st.Tree, st.Rope.Bytes(), true
	}
	raw, err := os.ReadFile(uriToPath(uri))
	if err != nil {
		return nil, "", false
	}
	source := encoding.Decode(raw)
	p := brparser.NewParser(builtins.Names())
	return p.Parse(source, nil), source, true
}
