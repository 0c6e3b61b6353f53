package lsp

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/christopherroyshields/br-lsp/internal/brparser"
	"github.com/christopherroyshields/br-lsp/internal/builtins"
	"github.com/christopherroyshields/br-lsp/internal/defs"
	"github.com/christopherroyshields/br-lsp/internal/layout"
	"github.com/christopherroyshields/br-lsp/internal/source"
	"github.com/christopherroyshields/br-lsp/internal/workspace"
)

// scanWorkspace walks every workspace folder, indexing each file that
// matches one of the configured watch globs, and reports progress via the
// standard $/progress notification pair. It is safe to call repeatedly
// (br-lsp.scanAll re-triggers it, and each workspace folder addition scans
// just the new root).
func (s *Server) scanWorkspace() {
	for _, folder := range s.folders {
		s.scanFolder(uriToPath(folder))
	}
	s.startWatchers()
}

func (s *Server) scanFolder(root string) {
	if root == "" {
		return
	}
	token := "br-lsp/scan/" + root
	s.notify("$/progress", map[string]any{
		"token": token,
		"value": map[string]any{"kind": "begin", "title": "Scanning BR workspace", "cancellable": false},
	})

	globs := s.config().WatchGlobs
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if !source.MatchesAny(rel, globs) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	// Each file gets its own goroutine and its own thread-local parser
	// (indexFileFromDisk never touches s.parser), so the scan fans out
	// across GOMAXPROCS the same way checkmode.CheckPaths does for the
	// CLI batch check.
	var indexed int64
	var g errgroup.Group
	for _, f := range files {
		f := f
		g.Go(func() error {
			s.indexFileFromDisk(f)
			n := atomic.AddInt64(&indexed, 1)
			if n%25 == 0 {
				s.notify("$/progress", map[string]any{
					"token": token,
					"value": map[string]any{"kind": "report", "message": strconv.FormatInt(n, 10) + " files indexed"},
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	s.notify("$/progress", map[string]any{
		"token": token,
		"value": map[string]any{"kind": "end", "message": strconv.FormatInt(indexed, 10) + " files indexed"},
	})
	s.republishAllDiagnostics()
}

// indexFileFromDisk reads, decodes, parses, and indexes one file by its
// filesystem path. A file the client already has open is left alone — its
// in-memory state (possibly with unsaved edits) is authoritative. It builds
// its own parser rather than reusing Server.parser, so it is safe to call
// concurrently from many scanFolder goroutines at once; Server.parser stays
// reserved for the synchronous open/change path in lifecycle.go.
func (s *Server) indexFileFromDisk(path string) {
	uri := pathToURI(path)
	if _, ok := s.docs.Get(uri); ok {
		return
	}
	if source.IsLayoutFile(path) {
		text, err := source.ReadBRFile(path)
		if err != nil {
			return
		}
		s.layouts.Add(uri, layout.Parse(text))
		return
	}

	text, err := source.ReadBRFile(path)
	if err != nil {
		return
	}
	if h, ok := s.index.Fingerprint(uri); ok && h == xxhash.Sum64String(text) {
		return
	}
	p := brparser.NewParser(builtins.Names())
	tree := p.Parse(text, nil)
	defList := defs.Extract(tree, text)
	s.index.UpdateFile(uri, defList)
	s.index.SetLibraryLinks(uri, workspace.ExtractLibraryLinks(tree, text))
	s.index.SetFingerprint(uri, text)
}

type fileEvent struct {
	URI  string `json:"uri"`
	Type int    `json:"type"`
}

type didChangeWatchedFilesParams struct {
	Changes []fileEvent `json:"changes"`
}

// handleDidChangeWatchedFiles reacts to filesystem changes the client's own
// watcher reported (file create/change/delete outside an open editor
// buffer — e.g. a git pull, or another process regenerating a layout).
func (s *Server) handleDidChangeWatchedFiles(req Request) {
	var p didChangeWatchedFilesParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	for _, ch := range p.Changes {
		switch ch.Type {
		case 3: // Deleted
			s.index.RemoveFile(ch.URI)
			s.layouts.Remove(ch.URI)
		default: // Created=1, Changed=2
			s.indexFileFromDisk(uriToPath(ch.URI))
		}
	}
}

type workspaceFoldersChangeEvent struct {
	Added   []workspaceFolder `json:"added"`
	Removed []workspaceFolder `json:"removed"`
}

type didChangeWorkspaceFoldersParams struct {
	Event workspaceFoldersChangeEvent `json:"event"`
}

func (s *Server) handleDidChangeWorkspaceFolders(req Request) {
	var p didChangeWorkspaceFoldersParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	removed := map[string]bool{}
	for _, f := range p.Event.Removed {
		removed[f.URI] = true
	}
	kept := s.folders[:0]
	for _, f := range s.folders {
		if !removed[f] {
			kept = append(kept, f)
		}
	}
	s.folders = kept
	for _, f := range p.Event.Removed {
		s.removeFolderFromIndex(uriToPath(f.URI))
	}
	for _, f := range p.Event.Added {
		s.folders = append(s.folders, f.URI)
		go s.scanFolder(uriToPath(f.URI))
	}
}

func (s *Server) removeFolderFromIndex(root string) {
	prefix := pathToURI(root)
	for _, sym := range s.index.AllSymbols() {
		if strings.HasPrefix(sym.URI, prefix) {
			s.index.RemoveFile(sym.URI)
		}
	}
}

type executeCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments"`
}

func (s *Server) handleExecuteCommand(req Request) {
	var p executeCommandParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.replyError(req.ID, -32602, "invalid params")
		return
	}
	switch p.Command {
	case "br-lsp.scanAll":
		go s.scanWorkspace()
		s.reply(req.ID, nil)
	default:
		s.replyError(req.ID, -32601, "unknown command: "+p.Command)
	}
}

// startWatchers installs one fsnotify watcher per workspace folder (and
// every subdirectory under it) so an external change to a file the client
// never explicitly reported through didChangeWatchedFiles — a build script
// regenerating a .lay sidecar, for instance — still updates the index.
func (s *Server) startWatchers() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		if s.log != nil {
			s.log.Warnw("fsnotify watcher unavailable", "error", err)
		}
		return
	}

	for _, folder := range s.folders {
		root := uriToPath(folder)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				_ = watcher.Add(path)
			}
			return nil
		})
	}

	go func() {
		globs := s.config().WatchGlobs
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if source.MatchesAny(filepath.Base(ev.Name), globs) {
						s.indexFileFromDisk(ev.Name)
						s.republishAllDiagnostics()
					}
				}
				if ev.Op&fsnotify.Remove != 0 {
					s.index.RemoveFile(pathToURI(ev.Name))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if s.log != nil {
					s.log.Warnw("fsnotify error", "error", err)
				}
			}
		}
	}()
}
