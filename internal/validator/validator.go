// Package validator defines the contract between the orchestrator and the
// validators it drives. A validator is identified by a stable lowercase
// hyphenated id, declares its capabilities up front, and implements the
// optional lifecycle hooks as separate interfaces so the orchestrator can
// skip passes a validator does not participate in.
package validator

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/storylint/storylint/internal/event"
	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/logger"
	"github.com/storylint/storylint/internal/processor"
)

// Capabilities describes which passes a validator participates in.
type Capabilities struct {
	// Extensions lists the file extensions (with dot, lowercase) the
	// validator wants to see. Empty means every file.
	Extensions []string

	// Extract, Validate and ProjectValidate declare the implemented hooks.
	Extract         bool
	Validate        bool
	ProjectValidate bool

	// OrderSensitive marks validators whose extraction depends on file
	// order. Default false; the engine always feeds merge in sorted order.
	OrderSensitive bool
}

// Handles reports whether the validator wants files with the given
// extension (lowercase, with dot).
func (c Capabilities) Handles(ext string) bool {
	if len(c.Extensions) == 0 {
		return true
	}
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// GlobalState is the read-only view of the phase-B output handed to phase C.
// Keys are validator ids; values are opaque to the engine.
type GlobalState interface {
	Get(validatorID string) (any, bool)
}

// Context is passed to every validator call. GlobalState is nil during
// phase A and read-only afterwards.
type Context struct {
	// Config is the validator-scoped option map from the configuration.
	Config map[string]any

	// ProjectRoot is the absolute project root directory.
	ProjectRoot string

	// GlobalState exposes every validator's merged entry during phase C.
	GlobalState GlobalState

	// Events is the run's event bus.
	Events *event.Bus

	// Log is the run's console logger.
	Log *logger.Console

	// ReadFile returns the cached parsed file for a path, parsing on first
	// access.
	ReadFile func(path string) (*processor.ParsedFile, error)
}

// Validator is the minimal surface every validator implements.
type Validator interface {
	// ID returns the unique, stable validator id (lowercase, hyphenated).
	ID() string

	// Capabilities declares which hooks the validator implements.
	Capabilities() Capabilities
}

// Initializer is called once per run before any file is processed. A
// returned error is fatal for the whole run.
type Initializer interface {
	Initialize(ctx *Context) error
}

// Extractor produces per-file metadata during phase A. It receives no
// global state and must not depend on other validators' output. Issues
// returned here flow straight to the aggregator.
type Extractor interface {
	Extract(f *processor.ParsedFile, ctx *Context) (partial any, issues []issue.Issue, err error)
}

// Merger combines every file's extraction into the validator's global-state
// entry during phase B. The merge must be associative over the multiset of
// partials; the engine feeds them in sorted file order but guarantees
// nothing more.
type Merger interface {
	MergeGlobalState(partials []any) (any, error)
}

// FileValidator checks one file against the frozen global state during
// phase C. It must be deterministic and must not mutate global state.
type FileValidator interface {
	Validate(f *processor.ParsedFile, ctx *Context) ([]issue.Issue, error)
}

// ProjectValidator runs once per run for issues that do not attach to a
// single file.
type ProjectValidator interface {
	ProjectValidate(files []*processor.ParsedFile, ctx *Context) ([]issue.Issue, error)
}

// Finalizer releases validator resources after phase C. It runs
// unconditionally, including on cancelled runs.
type Finalizer interface {
	Finalize(ctx *Context)
}

// Factory creates a fresh validator instance for one run. No instance is
// reused across runs.
type Factory func() Validator

// DecodeOptions converts a generic option map into a typed options struct
// using YAML field tags.
func DecodeOptions(opts map[string]any, out any) error {
	if len(opts) == 0 {
		return nil
	}
	data, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}
