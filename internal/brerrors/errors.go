// Package brerrors is the server's typed error taxonomy: each error kind
// carries enough context (URI, operation) to log without re-deriving it.
package brerrors

import (
	"fmt"
	"time"
)

// ParseError wraps a failure encountered while parsing or reading a BR
// source file.
type ParseError struct {
	URI        string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewParseError builds a ParseError for op against uri.
func NewParseError(uri, op string, err error) *ParseError {
	return &ParseError{URI: uri, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s failed for %s: %v", e.Operation, e.URI, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// IndexError wraps a failure updating the workspace function index.
type IndexError struct {
	URI        string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewIndexError builds an IndexError for op against uri.
func NewIndexError(uri, op string, err error) *IndexError {
	return &IndexError{URI: uri, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("workspace index %s failed for %s: %v", e.Operation, e.URI, e.Underlying)
}

func (e *IndexError) Unwrap() error { return e.Underlying }

// WatchError wraps a failure in the filesystem watcher.
type WatchError struct {
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewWatchError builds a WatchError for op against path.
func NewWatchError(path, op string, err error) *WatchError {
	return &WatchError{Path: path, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *WatchError) Unwrap() error { return e.Underlying }

// ConfigError wraps a failure loading or parsing br-lsp.toml or a
// client-pushed configuration section.
type ConfigError struct {
	Source     string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError builds a ConfigError for the given config source (a file
// path, or a section name like "br-lsp.diagnostics").
func NewConfigError(source string, err error) *ConfigError {
	return &ConfigError{Source: source, Underlying: err, Timestamp: time.Now()}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Source, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError aggregates several errors from a batch operation into one.
type MultiError struct {
	Errors []error
}

// NewMultiError builds a MultiError, dropping any nil entries.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }

// HasErrors reports whether the aggregate is non-empty.
func (e *MultiError) HasErrors() bool { return len(e.Errors) > 0 }
