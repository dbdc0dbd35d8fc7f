// Package link implements the link-graph validator. Phase A collects every
// Markdown link and heading per file; phase B builds a directed graph over
// the project's files; phase C reports broken targets, title mismatches,
// missing anchors and documents unreachable from the project's entry points.
package link

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/storylint/storylint/internal/validator"
)

// ValidatorID is the stable id of this validator.
const ValidatorID = "link"

// Issue codes owned by this validator.
const (
	CodeBrokenLink       = "LINK001"
	CodeTitleMismatch    = "LINK002"
	CodeOrphanedDocument = "LINK003"
	CodeAnchorNotFound   = "LINK004"
)

// Options configure the link validator.
type Options struct {
	// EntryPoints lists files (relative to the project root) treated as
	// orphan-detection roots in addition to README.md files.
	EntryPoints []string `yaml:"entryPoints"`
}

// Validator is the link-graph validator. One instance serves one run.
type Validator struct {
	opts Options
	root string
}

func New() validator.Validator { return &Validator{} }

// Factory adapts New to the engine's factory contract.
func Factory() validator.Validator { return New() }

func (v *Validator) ID() string { return ValidatorID }

func (v *Validator) Capabilities() validator.Capabilities {
	return validator.Capabilities{
		Extensions:      []string{".md", ".markdown"},
		Extract:         true,
		Validate:        true,
		ProjectValidate: true,
	}
}

// Initialize decodes the option map and resolves entry points against the
// project root.
func (v *Validator) Initialize(ctx *validator.Context) error {
	if err := validator.DecodeOptions(ctx.Config, &v.opts); err != nil {
		return fmt.Errorf("invalid link validator options: %w", err)
	}
	v.root = ctx.ProjectRoot
	return nil
}

// entryPointPaths returns the configured entry points as absolute paths.
func (v *Validator) entryPointPaths() []string {
	out := make([]string, 0, len(v.opts.EntryPoints))
	for _, ep := range v.opts.EntryPoints {
		if filepath.IsAbs(ep) {
			out = append(out, filepath.Clean(ep))
			continue
		}
		out = append(out, filepath.Join(v.root, ep))
	}
	return out
}

// isRootFile reports whether a path is an implicit orphan-detection root.
// README.md in any directory qualifies, case-insensitively.
func isRootFile(path string) bool {
	return strings.EqualFold(filepath.Base(path), "README.md")
}
