package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultDiagnosticsConfig(), cfg.Diagnostics)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	body := "[diagnostics]\nsyntax = true\nfunctions = false\nundefined_functions = false\nunused_variables = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "br-lsp.toml"), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Diagnostics.UnusedVariables)
	assert.False(t, cfg.Diagnostics.Functions)
}

func TestApplyDiagnosticsSection(t *testing.T) {
	cfg := Default()
	cfg.ApplyDiagnosticsSection(DiagnosticsConfig{UnusedVariables: true})
	assert.True(t, cfg.Diagnostics.UnusedVariables)
	assert.False(t, cfg.Diagnostics.Syntax)
}
