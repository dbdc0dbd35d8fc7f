package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storylint/storylint/internal/config"
	"github.com/storylint/storylint/internal/event"
	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/logger"
	"github.com/storylint/storylint/internal/processor"
	"github.com/storylint/storylint/internal/validator"
)

// fakeValidator records lifecycle calls and delegates behavior to optional
// function fields.
type fakeValidator struct {
	id    string
	caps  validator.Capabilities
	calls *[]string

	initErr    error
	onExtract  func(f *processor.ParsedFile, ctx *validator.Context) (any, []issue.Issue, error)
	onMerge    func(partials []any) (any, error)
	onValidate func(f *processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error)
	onProject  func(files []*processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error)
}

func (v *fakeValidator) record(what string) {
	if v.calls != nil {
		*v.calls = append(*v.calls, v.id+":"+what)
	}
}

func (v *fakeValidator) ID() string                           { return v.id }
func (v *fakeValidator) Capabilities() validator.Capabilities { return v.caps }

func (v *fakeValidator) Initialize(ctx *validator.Context) error {
	v.record("initialize")
	return v.initErr
}

func (v *fakeValidator) Extract(f *processor.ParsedFile, ctx *validator.Context) (any, []issue.Issue, error) {
	v.record("extract:" + filepath.Base(f.Path))
	if v.onExtract != nil {
		return v.onExtract(f, ctx)
	}
	return f.Path, nil, nil
}

func (v *fakeValidator) MergeGlobalState(partials []any) (any, error) {
	v.record("merge")
	if v.onMerge != nil {
		return v.onMerge(partials)
	}
	return partials, nil
}

func (v *fakeValidator) Validate(f *processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
	v.record("validate:" + filepath.Base(f.Path))
	if v.onValidate != nil {
		return v.onValidate(f, ctx)
	}
	return nil, nil
}

func (v *fakeValidator) ProjectValidate(files []*processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
	v.record("project-validate")
	if v.onProject != nil {
		return v.onProject(files, ctx)
	}
	return nil, nil
}

func (v *fakeValidator) Finalize(ctx *validator.Context) {
	v.record("finalize")
}

func allCaps() validator.Capabilities {
	return validator.Capabilities{
		Extensions:      []string{".md"},
		Extract:         true,
		Validate:        true,
		ProjectValidate: true,
	}
}

func writeProject(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	root := t.TempDir()
	var paths []string
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return root, paths
}

func newTestEngine(t *testing.T, root string, factories ...validator.Factory) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	e := New(cfg, logger.NewConsole(nil, "error"), event.NewBus(nil))
	require.NoError(t, e.Register(factories...))
	return e
}

func TestRunPhaseOrdering(t *testing.T) {
	root, paths := writeProject(t, map[string]string{
		"a.md": "# A\n",
		"b.md": "# B\n",
	})

	var calls []string
	fv := &fakeValidator{id: "fake", caps: allCaps(), calls: &calls}
	e := newTestEngine(t, root, func() validator.Validator { return fv })

	// Argument order must not matter.
	result, err := e.Run(context.Background(), []string{paths[1], paths[0]})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	assert.Equal(t, []string{
		"fake:initialize",
		"fake:extract:a.md",
		"fake:extract:b.md",
		"fake:merge",
		"fake:validate:a.md",
		"fake:validate:b.md",
		"fake:project-validate",
		"fake:finalize",
	}, calls)
}

func TestRunGlobalStateFlow(t *testing.T) {
	root, paths := writeProject(t, map[string]string{"a.md": "# A\n", "b.md": "# B\n"})

	var extractState, validateState any
	var merged any
	fv := &fakeValidator{
		id:   "fake",
		caps: allCaps(),
		onExtract: func(f *processor.ParsedFile, ctx *validator.Context) (any, []issue.Issue, error) {
			extractState = ctx.GlobalState
			return filepath.Base(f.Path), nil, nil
		},
		onMerge: func(partials []any) (any, error) {
			return fmt.Sprintf("%v", partials), nil
		},
		onValidate: func(f *processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
			validateState, _ = ctx.GlobalState.Get("fake")
			merged = validateState
			return nil, nil
		},
	}
	e := newTestEngine(t, root, func() validator.Validator { return fv })

	_, err := e.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Nil(t, extractState, "phase A must not see global state")
	// Partials arrive in sorted file order.
	assert.Equal(t, "[a.md b.md]", merged)
}

func TestRunRejectsDuplicateValidatorIDs(t *testing.T) {
	cfg := config.DefaultConfig()
	e := New(cfg, logger.NewConsole(nil, "error"), event.NewBus(nil))
	factory := func() validator.Validator {
		return &fakeValidator{id: "dup", caps: allCaps()}
	}
	err := e.Register(factory, factory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate validator id")
}

func TestRunRequiresRegistration(t *testing.T) {
	e := New(config.DefaultConfig(), logger.NewConsole(nil, "error"), event.NewBus(nil))
	_, err := e.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunInitializeFailureIsFatal(t *testing.T) {
	root, paths := writeProject(t, map[string]string{"a.md": "# A\n"})
	fv := &fakeValidator{id: "fake", caps: allCaps(), initErr: fmt.Errorf("bad option")}
	e := newTestEngine(t, root, func() validator.Validator { return fv })

	result, err := e.Run(context.Background(), paths)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "init-failed")
	assert.Contains(t, err.Error(), "bad option")
}

func TestRunIsolatesValidatorPanics(t *testing.T) {
	root, paths := writeProject(t, map[string]string{"a.md": "# A\n"})

	var calls []string
	panicky := &fakeValidator{
		id: "panicky", caps: allCaps(), calls: &calls,
		onExtract: func(*processor.ParsedFile, *validator.Context) (any, []issue.Issue, error) {
			panic("kaboom")
		},
	}
	healthy := &fakeValidator{id: "healthy", caps: allCaps(), calls: &calls}
	e := newTestEngine(t, root,
		func() validator.Validator { return panicky },
		func() validator.Validator { return healthy })

	result, err := e.Run(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, issue.CodeInternalError, result.Errors[0].Code)
	assert.Equal(t, EngineValidatorID, result.Errors[0].Validator)
	assert.Contains(t, result.Errors[0].Message, "panicky")

	assert.Contains(t, calls, "healthy:extract:a.md")
	assert.Contains(t, calls, "healthy:validate:a.md")
	assert.Contains(t, calls, "panicky:finalize")
}

func TestRunReportsUnreadableFileAndContinues(t *testing.T) {
	root, paths := writeProject(t, map[string]string{"good.md": "# Good\n"})
	bad := filepath.Join(root, "bad.md")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe, 0x00}, 0o644))

	var calls []string
	fv := &fakeValidator{id: "fake", caps: allCaps(), calls: &calls}
	e := newTestEngine(t, root, func() validator.Validator { return fv })

	result, err := e.Run(context.Background(), append(paths, bad))
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, issue.CodeEncodingError, result.Errors[0].Code)
	assert.Equal(t, bad, result.Errors[0].File)
	assert.False(t, result.Valid)

	assert.Contains(t, calls, "fake:extract:good.md")
	assert.NotContains(t, calls, "fake:extract:bad.md")
}

func TestRunCancelledBeforeStart(t *testing.T) {
	root, paths := writeProject(t, map[string]string{"a.md": "# A\n"})

	var calls []string
	fv := &fakeValidator{id: "fake", caps: allCaps(), calls: &calls}
	e := newTestEngine(t, root, func() validator.Validator { return fv })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := e.Run(ctx, paths)
	require.ErrorIs(t, err, ErrCancelled)
	require.NotNil(t, result)
	assert.False(t, result.Valid)

	require.Len(t, result.Info, 1)
	assert.Equal(t, issue.CodeCancelled, result.Info[0].Code)

	// Finalize runs even on cancelled runs.
	assert.Contains(t, calls, "fake:finalize")
	assert.NotContains(t, calls, "fake:validate:a.md")
}

func TestRunPublishesLifecycleEvents(t *testing.T) {
	root, paths := writeProject(t, map[string]string{"a.md": "# A\n"})

	bus := event.NewBus(nil)
	var types []event.Type
	bus.SubscribeAll(func(ev event.Event) { types = append(types, ev.Type) })

	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	e := New(cfg, logger.NewConsole(nil, "error"), bus)
	require.NoError(t, e.Register(func() validator.Validator {
		return &fakeValidator{id: "fake", caps: allCaps()}
	}))

	_, err := e.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, event.RunStart, types[0])
	assert.Equal(t, event.RunComplete, types[len(types)-1])
	assert.Contains(t, types, event.FileParsed)
	assert.Contains(t, types, event.FileValidated)
}

func TestRunDeterministicAcrossRepeats(t *testing.T) {
	root, paths := writeProject(t, map[string]string{
		"a.md": "# A\n", "b.md": "# B\n", "c.md": "# C\n",
	})

	run := func() []issue.Issue {
		fv := &fakeValidator{
			id: "fake", caps: allCaps(),
			onValidate: func(f *processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
				return []issue.Issue{{
					Code: "T001", Severity: issue.SeverityWarning,
					Message: "finding", File: f.Path, Line: 1, Column: 1,
				}}, nil
			},
		}
		e := newTestEngine(t, root, func() validator.Validator { return fv })
		result, err := e.Run(context.Background(), paths)
		require.NoError(t, err)
		return result.All()
	}

	first := run()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, run())
	}
}

func TestRunDeduplicatesRepeatedIssues(t *testing.T) {
	root, paths := writeProject(t, map[string]string{"a.md": "# A\n"})

	fv := &fakeValidator{
		id: "fake", caps: allCaps(),
		onValidate: func(f *processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
			dup := issue.Issue{Code: "T001", Severity: issue.SeverityWarning,
				Message: "same", File: f.Path, Line: 1, Column: 1}
			return []issue.Issue{dup, dup}, nil
		},
	}
	e := newTestEngine(t, root, func() validator.Validator { return fv })

	result, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts.Total)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "merging-state", StateMergingState.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestGlobalStateFreeze(t *testing.T) {
	gs := newGlobalState()
	gs.set("a", 1)
	gs.freeze()

	v, ok := gs.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.Panics(t, func() { gs.set("b", 2) })
}
