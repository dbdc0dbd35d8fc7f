// Package config loads and validates storylint configuration from YAML or
// JSON files. Configuration is optional; DefaultConfig returns a runnable
// setup for a plain Markdown project.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FailOn thresholds accepted by validation.failOn.
const (
	FailOnError   = "error"
	FailOnWarning = "warning"
	FailOnNone    = "none"
)

// ProjectConfig describes which files belong to the project.
type ProjectConfig struct {
	// Root is the project root directory. Relative paths in the
	// configuration resolve against it.
	Root string `yaml:"root" json:"root"`

	// Include is a list of glob patterns selecting project files.
	Include []string `yaml:"include" json:"include"`

	// Exclude is a list of glob patterns removed from the include set.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// ValidationConfig controls run-level validation behavior.
type ValidationConfig struct {
	// FailOn is the severity threshold that makes the run exit non-zero:
	// "error" (default), "warning" or "none".
	FailOn string `yaml:"failOn" json:"failOn"`
}

// ValidatorConfig is the per-validator section. Options are opaque to the
// engine and handed to the validator as-is.
type ValidatorConfig struct {
	Enabled *bool          `yaml:"enabled" json:"enabled"`
	Options map[string]any `yaml:"options" json:"options"`
}

// AliasDecl declares a canonical character name and its accepted aliases.
type AliasDecl struct {
	Canonical string   `yaml:"canonical" json:"canonical"`
	Aliases   []string `yaml:"aliases" json:"aliases"`
}

// CharacterConfig is the convenience block for the character validator.
// It is folded into Validators["character"].Options at load time.
type CharacterConfig struct {
	Aliases              []AliasDecl `yaml:"aliases" json:"aliases"`
	Ignore               []string    `yaml:"ignore" json:"ignore"`
	Strict               bool        `yaml:"strict" json:"strict"`
	RetrospectiveMarkers []string    `yaml:"retrospectiveMarkers" json:"retrospectiveMarkers"`
}

// LinkConfig is the convenience block for the link validator, folded into
// Validators["link"].Options at load time.
type LinkConfig struct {
	EntryPoints []string `yaml:"entryPoints" json:"entryPoints"`
}

// Config represents all storylint configuration options.
type Config struct {
	Project    ProjectConfig    `yaml:"project" json:"project"`
	Validation ValidationConfig `yaml:"validation" json:"validation"`

	// Validators maps validator id to its enablement and options.
	Validators map[string]ValidatorConfig `yaml:"validators" json:"validators"`

	// CharacterValidator and LinkValidator are shorthand blocks for the two
	// built-in validators.
	CharacterValidator *CharacterConfig `yaml:"characterValidator" json:"characterValidator"`
	LinkValidator      *LinkConfig      `yaml:"linkValidator" json:"linkValidator"`

	// LogLevel sets console logging verbosity (trace..error).
	LogLevel string `yaml:"logLevel" json:"logLevel"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Root:    ".",
			Include: []string{"**/*.md"},
			Exclude: []string{"node_modules/**", ".git/**"},
		},
		Validation: ValidationConfig{FailOn: FailOnError},
		Validators: map[string]ValidatorConfig{},
		LogLevel:   "info",
	}
}

// Load reads a configuration file, merging it over the defaults. The format
// is chosen by extension: .json is parsed as JSON, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.foldShorthand()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if len(c.Project.Include) == 0 {
		c.Project.Include = []string{"**/*.md"}
	}
	if c.Project.Exclude == nil {
		c.Project.Exclude = []string{"node_modules/**", ".git/**"}
	}
	if c.Validation.FailOn == "" {
		c.Validation.FailOn = FailOnError
	}
	if c.Validators == nil {
		c.Validators = map[string]ValidatorConfig{}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// foldShorthand merges the characterValidator and linkValidator blocks into
// the generic validators map so the engine sees one option source per id.
func (c *Config) foldShorthand() {
	if c.CharacterValidator != nil {
		c.mergeOptions("character", structToOptions(c.CharacterValidator))
	}
	if c.LinkValidator != nil {
		c.mergeOptions("link", structToOptions(c.LinkValidator))
	}
}

func (c *Config) mergeOptions(id string, opts map[string]any) {
	vc := c.Validators[id]
	if vc.Options == nil {
		vc.Options = map[string]any{}
	}
	for k, v := range opts {
		if _, exists := vc.Options[k]; !exists {
			vc.Options[k] = v
		}
	}
	c.Validators[id] = vc
}

// structToOptions round-trips a typed block through YAML to get the generic
// map shape validator options use.
func structToOptions(v any) map[string]any {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// Enabled reports whether a validator is enabled. Validators default to
// enabled unless explicitly switched off.
func (c *Config) Enabled(id string) bool {
	vc, ok := c.Validators[id]
	if !ok || vc.Enabled == nil {
		return true
	}
	return *vc.Enabled
}

// Options returns the option map for a validator id, never nil.
func (c *Config) Options(id string) map[string]any {
	vc := c.Validators[id]
	if vc.Options == nil {
		return map[string]any{}
	}
	return vc.Options
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Validation.FailOn {
	case FailOnError, FailOnWarning, FailOnNone:
	default:
		return fmt.Errorf("validation.failOn must be one of error, warning, none; got %q", c.Validation.FailOn)
	}
	if c.Project.Root != "" {
		if info, err := os.Stat(c.Project.Root); err == nil && !info.IsDir() {
			return fmt.Errorf("project.root is not a directory: %s", c.Project.Root)
		}
	}
	return nil
}
