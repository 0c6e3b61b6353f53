// Package lsp implements the BR language server: a Content-Length-framed
// JSON-RPC loop over stdio that answers LSP requests using internal/query,
// internal/diagnostics, internal/workspace and internal/document.
package lsp

import (
	"bufio"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/config"
	"github.com/christopherroyshields/br-lsp/internal/document"
	"github.com/christopherroyshields/br-lsp/internal/layout"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

// systemFunctionNames seeds the parser's call-classification set. Builtins
// come from the builtins package by construction (every entry it lists is
// a real BR system function), so the parser and the documentation table
// never disagree about what counts as one.
func systemFunctionNames() []string {
	return builtins.Names()
}

// Server holds all per-session state: the open-document store, the
// workspace-wide function index, layout sidecars, configuration, and the
// JSON-RPC transport.
type Server struct {
	in  *bufio.Reader
	out io.Writer
	wmu sync.Mutex // serializes writes to out (background scans/diagnostics may write concurrently with the request loop)

	log *zap.SugaredLogger

	parser  *brparser.Parser
	docs    *document.Store
	index   *workspace.Index
	layouts *layout.Index

	cfg     config.Config
	cfgMu   sync.RWMutex
	rootURI string
	folders []string

	rpcID uint64

	shutdown bool
}

// NewServer builds a Server reading requests from r and writing responses
// to w. log may be nil; every use of it is nil-checked.
func NewServer(r io.Reader, w io.Writer, log *zap.SugaredLogger) *Server {
	p := brparser.NewParser(systemFunctionNames())
	return &Server{
		in:      bufio.NewReaderSize(r, 1<<20),
		out:     w,
		log:     log,
		parser:  p,
		docs:    document.NewStore(p),
		index:   workspace.NewIndex(),
		layouts: layout.NewIndex(),
		cfg:     config.Default(),
	}
}

func (s *Server) config() config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Server) setConfig(c config.Config) {
	s.cfgMu.Lock()
	s.cfg = c
	s.cfgMu.Unlock()
}

// Run reads and dispatches requests until the transport closes or exit is
// received.
func (s *Server) Run() error {
	for {
		req, err := readMessage(s.in)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		s.dispatch(req)
		if s.shutdown && req.Method == "exit" {
			return nil
		}
	}
}

func (s *Server) dispatch(req Request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized":
		s.handleInitialized(req)
	case "shutdown":
		s.shutdown = true
		s.reply(req.ID, nil)
	case "exit":
		// handled in Run's loop condition
	case "textDocument/didOpen":
		s.handleDidOpen(req)
	case "textDocument/didChange":
		s.handleDidChange(req)
	case "textDocument/didClose":
		s.handleDidClose(req)
	case "textDocument/didSave":
		// diagnostics are already current from didChange; nothing to do.
	case "textDocument/hover":
		s.handleHover(req)
	case "textDocument/completion":
		s.handleCompletion(req)
	case "completionItem/resolve":
		s.handleCompletionResolve(req)
	case "textDocument/signatureHelp":
		s.handleSignatureHelp(req)
	case "textDocument/definition":
		s.handleDefinition(req)
	case "textDocument/references":
		s.handleReferences(req)
	case "textDocument/prepareRename":
		s.handlePrepareRename(req)
	case "textDocument/rename":
		s.handleRename(req)
	case "textDocument/documentSymbol":
		s.handleDocumentSymbol(req)
	case "workspace/symbol":
		s.handleWorkspaceSymbol(req)
	case "textDocument/semanticTokens/full":
		s.handleSemanticTokensFull(req)
	case "textDocument/codeAction":
		s.handleCodeAction(req)
	case "workspace/didChangeConfiguration":
		s.handleDidChangeConfiguration(req)
	case "workspace/didChangeWatchedFiles":
		s.handleDidChangeWatchedFiles(req)
	case "workspace/didChangeWorkspaceFolders":
		s.handleDidChangeWorkspaceFolders(req)
	case "workspace/executeCommand":
		s.handleExecuteCommand(req)
	case "$/cancelRequest":
		// best-effort server: every request already runs to completion
		// synchronously, so there is nothing to cancel.
	default:
		if req.ID != nil {
			s.replyError(req.ID, -32601, "method not found: "+req.Method)
		}
	}
}

func (s *Server) reply(id json.RawMessage, result any) {
	if id == nil {
		return
	}
	s.write(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) replyError(id json.RawMessage, code int, msg string) {
	if id == nil {
		return
	}
	s.write(Response{JSONRPC: "2.0", ID: id, Error: &RespError{Code: code, Message: msg}})
}

// notify sends a server-to-client notification (no id, no reply expected).
func (s *Server) notify(method string, params any) {
	s.write(Request{JSONRPC: "2.0", Method: method, Params: marshalRaw(params)})
}

func marshalRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func (s *Server) write(v any) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := writeMessage(s.out, v); err != nil && s.log != nil {
		s.log.Warnw("write failed", "error", err)
	}
}

// classifyKind returns a document's Kind from its URI's extension.
func classifyKind(uri string) document.Kind {
	ext := strings.ToLower(filepath.Ext(uriToPath(uri)))
	if ext == ".lay" {
		return document.KindLayout
	}
	return document.KindBR
}
