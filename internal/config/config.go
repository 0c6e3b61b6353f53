// Package config loads br-lsp's configuration: an optional br-lsp.toml at
// the workspace root, overridable at runtime by the client's pulled
// "br-lsp.diagnostics" configuration section.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/christopherroyshields/br-lsp/internal/brerrors"
)

// DiagnosticsConfig gates the four diagnostic check families.
type DiagnosticsConfig struct {
	Syntax             bool `toml:"syntax"`
	Functions          bool `toml:"functions"`
	UndefinedFunctions bool `toml:"undefined_functions"`
	UnusedVariables    bool `toml:"unused_variables"`
}

// DefaultDiagnosticsConfig enables every check family except the unused-
// variable check, which is noisier than the others on real BR codebases
// (common idiom: declare a full record layout's worth of variables and use
// only some of them).
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		Syntax:             true,
		Functions:          true,
		UndefinedFunctions: true,
		UnusedVariables:    false,
	}
}

// Config is the server's full runtime configuration.
type Config struct {
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	WatchGlobs  []string          `toml:"watch_globs"`
}

// Default returns the configuration used when no br-lsp.toml exists.
func Default() Config {
	return Config{
		Diagnostics: DefaultDiagnosticsConfig(),
		WatchGlobs:  []string{"**/*.brs", "**/*.wbs", "**/*.lay", "**/filelay/*"},
	}
}

// Load reads br-lsp.toml from workspaceRoot, if present, and merges it over
// Default(). A missing file is not an error.
func Load(workspaceRoot string) (Config, error) {
	cfg := Default()
	path := filepath.Join(workspaceRoot, "br-lsp.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, brerrors.NewConfigError(path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, brerrors.NewConfigError(path, err)
	}
	return cfg, nil
}

// ApplyDiagnosticsSection merges a client-pushed "br-lsp.diagnostics"
// workspace/configuration response over cfg, in place. Called from
// didChangeConfiguration.
func (c *Config) ApplyDiagnosticsSection(d DiagnosticsConfig) {
	c.Diagnostics = d
}
