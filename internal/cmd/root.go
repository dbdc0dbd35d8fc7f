// Package cmd wires the storylint CLI: command definitions, flag handling
// and the mapping from run outcomes to process exit codes.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the release version, overridden at build time via -ldflags.
var Version = "dev"

// Exit codes. Validation findings use 1; anything that prevented a run from
// happening at all uses 2; an interrupted run uses the conventional 130.
const (
	ExitOK          = 0
	ExitIssuesFound = 1
	ExitFatal       = 2
	ExitInterrupted = 130
)

// exitError carries a specific process exit code up through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:   "storylint",
	Short: "Consistency checker for Markdown narrative projects",
	Long: `storylint validates a Markdown narrative project: it parses every
document once, builds cross-file knowledge such as character names and the
link graph, and reports inconsistencies with stable codes and positions.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				fmt.Fprintf(os.Stderr, "storylint: %v\n", ee.err)
			}
			return ee.code
		}
		fmt.Fprintf(os.Stderr, "storylint: %v\n", err)
		return ExitFatal
	}
	return ExitOK
}
