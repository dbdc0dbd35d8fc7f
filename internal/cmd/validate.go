package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/storylint/storylint/internal/config"
	"github.com/storylint/storylint/internal/engine"
	"github.com/storylint/storylint/internal/event"
	"github.com/storylint/storylint/internal/fileutil"
	"github.com/storylint/storylint/internal/format"
	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/logger"
	"github.com/storylint/storylint/internal/validator"
	"github.com/storylint/storylint/internal/validators/character"
	"github.com/storylint/storylint/internal/validators/link"
)

type validateOptions struct {
	configPath string
	formatName string
	outputPath string
	failOn     string
	logLevel   string
	quiet      bool
	noColor    bool
	strict     bool
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate a narrative project",
		Long: `Validate runs every enabled validator over the project's Markdown files.
With no arguments, files are discovered from the project root using the
configured include and exclude patterns; explicit file arguments skip
discovery.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a .storylint.yml or .json config file")
	flags.StringVarP(&opts.formatName, "format", "f", "text", "report format: text, json or html")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "write the report to a file instead of stdout")
	flags.StringVar(&opts.failOn, "fail-on", "", "severity that fails the run: error, warning or none")
	flags.StringVar(&opts.logLevel, "log-level", "", "log verbosity: trace, debug, info, warn or error")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress logging, print only the report")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&opts.strict, "strict", false, "enable strict checks in all validators")
	return cmd
}

func runValidate(cmd *cobra.Command, opts *validateOptions, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts)
	if err != nil {
		return exitWith(ExitFatal, err)
	}
	if opts.noColor {
		color.NoColor = true
	}

	log := newRunLogger(cfg, opts)
	bus := event.NewBus(log)

	var runID string
	var total, parsed int
	showProgress := !opts.quiet && opts.outputPath == "" &&
		isatty.IsTerminal(os.Stderr.Fd()) && !color.NoColor
	bus.Subscribe(event.RunStart, func(ev event.Event) {
		runID = ev.RunID
		total = ev.FileCount
		log.Infof("validating %d file(s)", ev.FileCount)
	})
	bus.Subscribe(event.FileParsed, func(ev event.Event) {
		parsed++
		if showProgress {
			fmt.Fprintf(os.Stderr, "%s %s\n",
				color.CyanString("[%d/%d]", parsed, total), filepath.Base(ev.File))
		}
	})
	bus.Subscribe(event.FileValidated, func(ev event.Event) {
		log.Debugf("%s: %s reported %d issue(s)", filepath.Base(ev.File), ev.Validator, ev.IssueCount)
	})
	bus.Subscribe(event.ValidatorPhase, func(ev event.Event) {
		if ev.Elapsed > 0 {
			log.Debugf("%s/%s took %s", ev.Validator, ev.Phase, ev.Elapsed.Round(time.Millisecond))
		}
	})
	bus.Subscribe(event.Error, func(ev event.Event) {
		log.Warnf("%s failed during %s: %v", eventSubject(ev), ev.Context, ev.Err)
	})

	eng := engine.New(cfg, log, bus)
	if err := eng.Register(enabledFactories(cfg)...); err != nil {
		return exitWith(ExitFatal, err)
	}

	files, err := resolveFiles(cfg, args)
	if err != nil {
		return exitWith(ExitFatal, err)
	}
	if len(files) == 0 {
		log.Warnf("no files matched the project patterns")
	}

	started := time.Now()
	result, runErr := eng.Run(ctx, files)
	elapsed := time.Since(started)

	if runErr != nil && !errors.Is(runErr, engine.ErrCancelled) {
		return exitWith(ExitFatal, runErr)
	}
	if err := renderReport(opts, cfg, result, runID, len(files), elapsed); err != nil {
		return exitWith(ExitFatal, err)
	}
	if errors.Is(runErr, engine.ErrCancelled) {
		return exitWith(ExitInterrupted, nil)
	}
	if code := result.ExitCode(cfg.Validation.FailOn); code != 0 {
		return exitWith(ExitIssuesFound, nil)
	}
	return nil
}

func loadConfig(opts *validateOptions) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if path, ok := findDefaultConfig("."); ok {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	if opts.failOn != "" {
		switch opts.failOn {
		case config.FailOnError, config.FailOnWarning, config.FailOnNone:
			cfg.Validation.FailOn = opts.failOn
		default:
			return nil, fmt.Errorf("--fail-on must be one of error, warning, none; got %q", opts.failOn)
		}
	}
	if opts.strict {
		setOption(cfg, character.ValidatorID, "strict", true)
	}
	switch opts.formatName {
	case "text", "json", "html":
	default:
		return nil, fmt.Errorf("--format must be one of text, json, html; got %q", opts.formatName)
	}
	return cfg, nil
}

// findDefaultConfig probes the conventional config names in dir.
func findDefaultConfig(dir string) (string, bool) {
	for _, name := range []string{".storylint.yml", ".storylint.yaml", ".storylint.json"} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

func setOption(cfg *config.Config, id, key string, value any) {
	vc := cfg.Validators[id]
	if vc.Options == nil {
		vc.Options = map[string]any{}
	}
	vc.Options[key] = value
	cfg.Validators[id] = vc
}

func newRunLogger(cfg *config.Config, opts *validateOptions) *logger.Console {
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if opts.quiet {
		level = "error"
	}
	return logger.NewConsole(os.Stderr, level)
}

func enabledFactories(cfg *config.Config) []validator.Factory {
	var factories []validator.Factory
	if cfg.Enabled(character.ValidatorID) {
		factories = append(factories, character.Factory)
	}
	if cfg.Enabled(link.ValidatorID) {
		factories = append(factories, link.Factory)
	}
	return factories
}

// resolveFiles returns explicit file arguments as-is, or discovers project
// files when none are given.
func resolveFiles(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		return fileutil.Discover(cfg.Project.Root, fileutil.ScanOptions{
			Include: cfg.Project.Include,
			Exclude: cfg.Project.Exclude,
		})
	}
	files := make([]string, 0, len(args))
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if info.IsDir() {
			discovered, err := fileutil.Discover(arg, fileutil.ScanOptions{
				Include: cfg.Project.Include,
				Exclude: cfg.Project.Exclude,
			})
			if err != nil {
				return nil, err
			}
			files = append(files, discovered...)
			continue
		}
		files = append(files, arg)
	}
	return files, nil
}

func renderReport(opts *validateOptions, cfg *config.Config, result *issue.Aggregate,
	runID string, fileCount int, elapsed time.Duration) error {

	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		root = cfg.Project.Root
	}

	var out io.Writer = os.Stdout
	var buf *bytes.Buffer
	if opts.outputPath != "" {
		buf = &bytes.Buffer{}
		out = buf
	}

	switch opts.formatName {
	case "json":
		err = format.NewJSON(out, Version, runID).Render(result, fileCount, elapsed)
	case "html":
		err = format.NewHTML(out, root, Version).Render(result, fileCount, elapsed)
	default:
		useColor := buf == nil && !opts.noColor && isatty.IsTerminal(os.Stdout.Fd()) && !color.NoColor
		err = format.NewText(out, root, useColor).Render(result, fileCount, elapsed)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if buf != nil {
		return format.WriteFile(opts.outputPath, buf.Bytes())
	}
	return nil
}

func eventSubject(ev event.Event) string {
	switch {
	case ev.Validator != "" && ev.File != "":
		return fmt.Sprintf("%s on %s", ev.Validator, filepath.Base(ev.File))
	case ev.Validator != "":
		return ev.Validator
	case ev.File != "":
		return filepath.Base(ev.File)
	}
	return "run"
}
