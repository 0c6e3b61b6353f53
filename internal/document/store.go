// Package document holds the concurrency-safe, per-URI document store:
// rope buffer, source string, and incrementally-synchronized syntax tree.
package document

import (
	"strings"
	"sync"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/rope"
)

// Kind distinguishes a BR source file from a layout sidecar file; layout
// documents skip parsing and diagnostics.
type Kind int

const (
	KindBR Kind = iota
	KindLayout
)

// State is one open document's full in-memory representation. If Tree is
// non-nil its byte extents are valid indices into Rope.Bytes().
type State struct {
	Kind       Kind
	Rope       *rope.Rope
	Tree       *brparser.Tree
	Generation uint64
}

// entry serializes all operations against one URI: single-writer per key,
// readers of other keys are never blocked.
type entry struct {
	mu    sync.Mutex
	state *State
}

// Store maps URI to State. Safe for concurrent use across URIs; the Parser
// held here is read-only (a fixed system-function set) so it needs no lock
// of its own — §9's "single mutex-guarded parser" carve-out is satisfied by
// the fact there is nothing in Parser left to guard.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*entry
	parser *brparser.Parser
}

// NewStore builds an empty Store using parser for every BR document it
// opens.
func NewStore(parser *brparser.Parser) *Store {
	return &Store{docs: make(map[string]*entry), parser: parser}
}

func (s *Store) entryFor(uri string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[uri]
	if !ok {
		e = &entry{}
		s.docs[uri] = e
	}
	return e
}

// Get returns uri's current state, if open.
func (s *Store) Get(uri string) (*State, bool) {
	s.mu.RLock()
	e, ok := s.docs[uri]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, false
	}
	return e.state, true
}

// DidOpen builds a fresh rope (and, for BR documents, a from-scratch parse)
// over text and installs it as uri's state.
func (s *Store) DidOpen(uri, text string, kind Kind) *State {
	e := s.entryFor(uri)
	e.mu.Lock()
	defer e.mu.Unlock()

	st := &State{Kind: kind, Rope: rope.New(text)}
	if kind == KindBR {
		st.Tree = s.parser.Parse(text, nil)
	}
	e.state = st
	return st
}

// Change is one textDocument/didChange content change. HasRange is false
// for a full-document replace.
type Change struct {
	HasRange            bool
	StartLine, StartCol int
	EndLine, EndCol     int
	Text                string
}

// DidChange applies each change in order, reparsing once at the end (with
// the edited tree, when one survived) and bumping uri's generation counter.
func (s *Store) DidChange(uri string, changes []Change) (*State, bool) {
	s.mu.RLock()
	e, ok := s.docs[uri]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, false
	}
	st := e.state

	for _, ch := range changes {
		if ch.HasRange {
			applyOneChange(st, ch)
		} else {
			st.Rope = rope.New(ch.Text)
			st.Tree = nil
		}
	}
	if st.Kind == KindBR {
		st.Tree = s.parser.Parse(st.Rope.Bytes(), st.Tree)
	}
	st.Generation++
	return st, true
}

// DidClose removes uri from the store entirely.
func (s *Store) DidClose(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Generation returns uri's current generation counter, which DidChange
// bumps once per call. The server does not read it: its didChange handler
// publishes diagnostics synchronously, without debouncing.
func (s *Store) Generation(uri string) (uint64, bool) {
	st, ok := s.Get(uri)
	if !ok {
		return 0, false
	}
	return st.Generation, true
}

// URIs returns every currently-open URI.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	return out
}

func applyOneChange(st *State, ch Change) {
	startByte := st.Rope.ByteOffset(ch.StartLine, ch.StartCol)
	endByte := st.Rope.ByteOffset(ch.EndLine, ch.EndCol)

	edit := brparser.InputEdit{
		StartByte:   uint32(startByte),
		OldEndByte:  uint32(endByte),
		NewEndByte:  uint32(startByte + len(ch.Text)),
		StartPoint:  brparser.Point{Row: ch.StartLine, Column: ch.StartCol},
		OldEndPoint: brparser.Point{Row: ch.EndLine, Column: ch.EndCol},
		NewEndPoint: newEndPoint(ch.StartLine, ch.StartCol, ch.Text),
	}
	if st.Tree != nil {
		st.Tree.ApplyChange(edit)
	}
	st.Rope.Splice(startByte, endByte, ch.Text)
}

// newEndPoint computes the end position of an inserted text run by scanning
// it for newlines, per §4.5's apply_change description.
func newEndPoint(startLine, startCol int, text string) brparser.Point {
	nlCount := strings.Count(text, "\n")
	if nlCount == 0 {
		return brparser.Point{Row: startLine, Column: startCol + len(text)}
	}
	last := strings.LastIndexByte(text, '\n')
	return brparser.Point{Row: startLine + nlCount, Column: len(text) - last - 1}
}
