package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ".", cfg.Project.Root)
	assert.Equal(t, []string{"**/*.md"}, cfg.Project.Include)
	assert.Contains(t, cfg.Project.Exclude, "node_modules/**")
	assert.Equal(t, FailOnError, cfg.Validation.FailOn)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, ".storylint.yml", `
project:
  include:
    - "docs/**/*.md"
validation:
  failOn: warning
logLevel: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/**/*.md"}, cfg.Project.Include)
	assert.Equal(t, FailOnWarning, cfg.Validation.FailOn)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep their defaults.
	assert.Equal(t, ".", cfg.Project.Root)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, ".storylint.json", `{
  "validation": {"failOn": "none"},
  "validators": {"link": {"enabled": false}}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FailOnNone, cfg.Validation.FailOn)
	assert.False(t, cfg.Enabled("link"))
	assert.True(t, cfg.Enabled("character"))
}

func TestLoadRejectsInvalidFailOn(t *testing.T) {
	path := writeConfig(t, ".storylint.yml", "validation:\n  failOn: fatal\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failOn")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, ".storylint.yml", "project: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestShorthandFolding(t *testing.T) {
	path := writeConfig(t, ".storylint.yml", `
characterValidator:
  strict: true
  ignore:
    - London
  aliases:
    - canonical: Elizabeth
      aliases: [Liz, Lizzy]
linkValidator:
  entryPoints:
    - index.md
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	charOpts := cfg.Options("character")
	assert.Equal(t, true, charOpts["strict"])
	assert.Equal(t, []any{"London"}, charOpts["ignore"])
	require.NotNil(t, charOpts["aliases"])

	linkOpts := cfg.Options("link")
	assert.Equal(t, []any{"index.md"}, linkOpts["entryPoints"])
}

func TestShorthandDoesNotOverrideExplicitOptions(t *testing.T) {
	path := writeConfig(t, ".storylint.yml", `
validators:
  character:
    options:
      strict: false
characterValidator:
  strict: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, false, cfg.Options("character")["strict"])
}

func TestOptionsNeverNil(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.Options("character")
	assert.NotNil(t, opts)
	assert.Empty(t, opts)
}

func TestEnabledDefaultsTrue(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled("character"))

	off := false
	cfg.Validators["character"] = ValidatorConfig{Enabled: &off}
	assert.False(t, cfg.Enabled("character"))
}
