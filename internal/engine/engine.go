// Package engine drives the two-phase validation pipeline: every registered
// validator first extracts per-file metadata (phase A), the extractions are
// merged into a frozen global state (phase B), and each file is then
// validated against that state (phase C). The two-phase design is what lets
// a character introduced in chapter 2 be referenced in chapter 10 without a
// forward-reference error: phase C always sees the complete cross-file
// picture.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/storylint/storylint/internal/config"
	"github.com/storylint/storylint/internal/event"
	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/logger"
	"github.com/storylint/storylint/internal/processor"
	"github.com/storylint/storylint/internal/validator"
)

// EngineValidatorID labels issues the orchestrator reports itself.
const EngineValidatorID = "engine"

// ErrCancelled is returned by Run when the context was cancelled. The
// returned aggregate is still populated with everything collected so far.
var ErrCancelled = errors.New("run cancelled")

// Engine orchestrates one validation run at a time.
type Engine struct {
	cfg  *config.Config
	log  *logger.Console
	bus  *event.Bus
	proc *processor.Processor

	state      State
	validators []validator.Validator
	contexts   map[string]*validator.Context
}

// New creates an engine. The logger and bus may be shared with the CLI; the
// parsed-file cache is engine-owned and released at finalize.
func New(cfg *config.Config, log *logger.Console, bus *event.Bus) *Engine {
	return &Engine{
		cfg:      cfg,
		log:      log,
		bus:      bus,
		proc:     processor.New(),
		state:    StateIdle,
		contexts: make(map[string]*validator.Context),
	}
}

// Register instantiates validators from their factories in the given order.
// Duplicate ids fail the whole registration.
func (e *Engine) Register(factories ...validator.Factory) error {
	if e.state != StateIdle && e.state != StateRegistered {
		return fmt.Errorf("config-error: cannot register validators in state %s", e.state)
	}
	for _, factory := range factories {
		v := factory()
		id := v.ID()
		for _, existing := range e.validators {
			if existing.ID() == id {
				return fmt.Errorf("config-error: duplicate validator id %q", id)
			}
		}
		e.validators = append(e.validators, v)
	}
	e.state = StateRegistered
	return nil
}

// Run executes the pipeline over the given files and returns the aggregate
// result. Files are processed in sorted absolute-path order regardless of
// the argument order. Engine-fatal failures (init-failed) return an error
// with a nil aggregate; cancellation returns the partial aggregate together
// with ErrCancelled.
func (e *Engine) Run(ctx context.Context, files []string) (*issue.Aggregate, error) {
	if e.state != StateRegistered {
		return nil, fmt.Errorf("config-error: run requires registered validators, engine is %s", e.state)
	}

	runStart := time.Now()
	runID := uuid.New().String()
	agg := issue.NewAggregator()

	paths, err := absoluteSorted(files)
	if err != nil {
		return nil, fmt.Errorf("config-error: %w", err)
	}

	e.bus.Publish(event.Event{Type: event.RunStart, RunID: runID, FileCount: len(paths)})

	root, err := filepath.Abs(e.cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("config-error: failed to resolve project root: %w", err)
	}

	// Initialize. The first failure aborts the run before phase A.
	for _, v := range e.validators {
		vctx := &validator.Context{
			Config:      e.cfg.Options(v.ID()),
			ProjectRoot: root,
			Events:      e.bus,
			Log:         e.log,
			ReadFile:    e.proc.Process,
		}
		e.contexts[v.ID()] = vctx
		if init, ok := v.(validator.Initializer); ok {
			if err := init.Initialize(vctx); err != nil {
				e.state = StateIdle
				return nil, fmt.Errorf("init-failed: validator %s: %w", v.ID(), err)
			}
		}
	}
	e.state = StateInitialized

	gs := newGlobalState()
	var parsed []*processor.ParsedFile
	partials := make(map[string][]any)
	phaseTimes := make(map[string]time.Duration)

	cancelled := e.runPhases(ctx, paths, agg, gs, &parsed, partials, phaseTimes)

	// Aggregate.
	e.state = StateAggregating
	result := agg.Result()
	if cancelled {
		result.Valid = false
	}

	// Finalize runs unconditionally, in reverse registration order.
	e.state = StateFinalized
	for i := len(e.validators) - 1; i >= 0; i-- {
		v := e.validators[i]
		if fin, ok := v.(validator.Finalizer); ok {
			e.safeFinalize(v.ID(), fin)
		}
		e.bus.Publish(event.Event{Type: event.ValidatorPhase, RunID: runID,
			Validator: v.ID(), Phase: "finalize"})
	}
	e.proc.Release()
	e.state = StateIdle

	e.bus.Publish(event.Event{Type: event.RunComplete, RunID: runID,
		Result: result, Elapsed: time.Since(runStart)})

	if cancelled {
		return result, ErrCancelled
	}
	return result, nil
}

// runPhases drives phases A, B and C, returning true if the run was
// cancelled. Issues land in agg; parse results in parsed; extraction
// partials in partials keyed by validator id.
func (e *Engine) runPhases(ctx context.Context, paths []string, agg *issue.Aggregator,
	gs *globalState, parsed *[]*processor.ParsedFile, partials map[string][]any,
	phaseTimes map[string]time.Duration) bool {

	cancel := func() bool {
		if ctx.Err() == nil {
			return false
		}
		agg.Add(EngineValidatorID, issue.Issue{
			Code:     issue.CodeCancelled,
			Severity: issue.SeverityInfo,
			Message:  "run cancelled",
		})
		return true
	}

	// Phase A: extract.
	e.state = StateExtracting
	if cancel() {
		return true
	}
	e.warmCache(ctx, paths)

	for _, path := range paths {
		if cancel() {
			return true
		}
		pf, err := e.proc.Process(path)
		if err != nil {
			agg.Add(EngineValidatorID, fileErrorIssue(path, err))
			e.bus.Publish(event.Event{Type: event.Error, File: path, Err: err, Context: "parse"})
			continue
		}
		*parsed = append(*parsed, pf)
		agg.AddAll(EngineValidatorID, pf.Issues)
		e.bus.Publish(event.Event{Type: event.FileParsed, File: path})

		ext := strings.ToLower(filepath.Ext(path))
		for _, v := range e.validators {
			caps := v.Capabilities()
			ex, ok := v.(validator.Extractor)
			if !ok || !caps.Extract || !caps.Handles(ext) {
				continue
			}
			start := time.Now()
			partial, issues, err := e.safeExtract(v.ID(), ex, pf)
			phaseTimes[v.ID()+"/extract"] += time.Since(start)
			if err != nil {
				agg.Add(EngineValidatorID, internalErrorIssue(v.ID(), pf.Path, err))
				e.bus.Publish(event.Event{Type: event.Error, File: pf.Path,
					Validator: v.ID(), Err: err, Context: "extract"})
				continue
			}
			if partial != nil {
				partials[v.ID()] = append(partials[v.ID()], partial)
			}
			agg.AddAll(v.ID(), issues)
			e.bus.Publish(event.Event{Type: event.FileExtracted, File: pf.Path, Validator: v.ID()})
		}
	}

	// Phase B: merge global state, then freeze it.
	e.state = StateMergingState
	if cancel() {
		return true
	}
	for _, v := range e.validators {
		merger, ok := v.(validator.Merger)
		if !ok || !v.Capabilities().Extract {
			continue
		}
		start := time.Now()
		entry, err := e.safeMerge(v.ID(), merger, partials[v.ID()])
		phaseTimes[v.ID()+"/merge"] += time.Since(start)
		if err != nil {
			agg.Add(EngineValidatorID, internalErrorIssue(v.ID(), "", err))
			e.bus.Publish(event.Event{Type: event.Error, Validator: v.ID(), Err: err, Context: "merge"})
			continue
		}
		gs.set(v.ID(), entry)
		e.bus.Publish(event.Event{Type: event.ValidatorPhase, Validator: v.ID(),
			Phase: "merge", Elapsed: phaseTimes[v.ID()+"/merge"]})
	}
	gs.freeze()
	for _, vctx := range e.contexts {
		vctx.GlobalState = gs
	}

	// Phase C: validate per file, then per project.
	e.state = StateValidating
	for _, pf := range *parsed {
		if cancel() {
			return true
		}
		ext := strings.ToLower(filepath.Ext(pf.Path))
		for _, v := range e.validators {
			caps := v.Capabilities()
			fv, ok := v.(validator.FileValidator)
			if !ok || !caps.Validate || !caps.Handles(ext) {
				continue
			}
			start := time.Now()
			issues, err := e.safeValidate(v.ID(), fv, pf)
			phaseTimes[v.ID()+"/validate"] += time.Since(start)
			if err != nil {
				agg.Add(EngineValidatorID, internalErrorIssue(v.ID(), pf.Path, err))
				e.bus.Publish(event.Event{Type: event.Error, File: pf.Path,
					Validator: v.ID(), Err: err, Context: "validate"})
				continue
			}
			agg.AddAll(v.ID(), issues)
			e.bus.Publish(event.Event{Type: event.FileValidated, File: pf.Path,
				Validator: v.ID(), IssueCount: len(issues)})
		}
	}
	if cancel() {
		return true
	}
	for _, v := range e.validators {
		pv, ok := v.(validator.ProjectValidator)
		if !ok || !v.Capabilities().ProjectValidate {
			continue
		}
		start := time.Now()
		issues, err := e.safeProjectValidate(v.ID(), pv, *parsed)
		elapsed := time.Since(start)
		phaseTimes[v.ID()+"/validate"] += elapsed
		if err != nil {
			agg.Add(EngineValidatorID, internalErrorIssue(v.ID(), "", err))
			e.bus.Publish(event.Event{Type: event.Error, Validator: v.ID(), Err: err, Context: "project-validate"})
			continue
		}
		agg.AddAll(v.ID(), issues)
		e.bus.Publish(event.Event{Type: event.ValidatorPhase, Validator: v.ID(),
			Phase: "validate", Elapsed: phaseTimes[v.ID()+"/validate"]})
	}
	return false
}

// warmCache parses files concurrently ahead of the sequential phase-A loop.
// Results land in the run cache; failures are picked up again, in order, by
// the sequential pass. Merge input order stays deterministic because the
// loop over sorted paths is what feeds the extractors.
func (e *Engine) warmCache(ctx context.Context, paths []string) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		path := path
		g.Go(func() error {
			_, _ = e.proc.Process(path)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) safeExtract(id string, ex validator.Extractor, pf *processor.ParsedFile) (partial any, issues []issue.Issue, err error) {
	defer recoverToError(id, &err)
	return ex.Extract(pf, e.contexts[id])
}

func (e *Engine) safeMerge(id string, m validator.Merger, partials []any) (entry any, err error) {
	defer recoverToError(id, &err)
	return m.MergeGlobalState(partials)
}

func (e *Engine) safeValidate(id string, fv validator.FileValidator, pf *processor.ParsedFile) (issues []issue.Issue, err error) {
	defer recoverToError(id, &err)
	return fv.Validate(pf, e.contexts[id])
}

func (e *Engine) safeProjectValidate(id string, pv validator.ProjectValidator, files []*processor.ParsedFile) (issues []issue.Issue, err error) {
	defer recoverToError(id, &err)
	return pv.ProjectValidate(files, e.contexts[id])
}

func (e *Engine) safeFinalize(id string, fin validator.Finalizer) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warnf("validator %s panicked in finalize: %v", id, r)
		}
	}()
	fin.Finalize(e.contexts[id])
}

func recoverToError(id string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("validator %s panicked: %v", id, r)
	}
}

func fileErrorIssue(path string, err error) issue.Issue {
	code := issue.CodeParseError
	var fe *processor.FileError
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return issue.Issue{
		Code:     code,
		Severity: issue.SeverityError,
		Message:  err.Error(),
		File:     path,
	}
}

func internalErrorIssue(validatorID, path string, err error) issue.Issue {
	msg := fmt.Sprintf("validator %s failed: %v", validatorID, err)
	if path != "" {
		msg = fmt.Sprintf("validator %s failed on %s: %v", validatorID, filepath.Base(path), err)
	}
	return issue.Issue{
		Code:     issue.CodeInternalError,
		Severity: issue.SeverityError,
		Message:  msg,
		File:     path,
	}
}

func absoluteSorted(files []string) ([]string, error) {
	out := make([]string, 0, len(files))
	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	sort.Strings(out)
	return out, nil
}
