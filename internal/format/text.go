// Package format renders an aggregate result for humans and machines: a
// colorized text report, a stable JSON document and a self-contained HTML
// page. Renderers never mutate the aggregate.
package format

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/storylint/storylint/internal/issue"
)

// Text renders an aggregate as a human-readable report, grouped by file with
// project-level issues first. Color is applied only when enabled.
type Text struct {
	w     io.Writer
	root  string
	color bool
}

// NewText creates a text renderer. root, when non-empty, is stripped from
// file paths so the report shows project-relative locations.
func NewText(w io.Writer, root string, useColor bool) *Text {
	return &Text{w: w, root: root, color: useColor}
}

// Render writes the full report. elapsed is the wall-clock run duration and
// fileCount the number of files scanned.
func (t *Text) Render(agg *issue.Aggregate, fileCount int, elapsed time.Duration) error {
	byFile := make(map[string][]issue.Issue)
	var files []string
	for _, is := range agg.All() {
		if _, ok := byFile[is.File]; !ok {
			files = append(files, is.File)
		}
		byFile[is.File] = append(byFile[is.File], is)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := t.renderFile(file, byFile[file]); err != nil {
			return err
		}
	}
	return t.renderSummary(agg, fileCount, elapsed)
}

func (t *Text) renderFile(file string, issues []issue.Issue) error {
	header := "(project)"
	if file != "" {
		header = t.displayPath(file)
	}
	if _, err := fmt.Fprintf(t.w, "%s\n", t.bold(header)); err != nil {
		return err
	}
	for _, is := range issues {
		loc := ""
		if is.Line > 0 {
			loc = fmt.Sprintf("%d:%d  ", is.Line, is.Column)
		}
		fmt.Fprintf(t.w, "  %s %s%s  %s\n",
			t.severityMark(is.Severity), loc, is.Message, t.dim(is.Code))
		if is.Suggestion != "" {
			fmt.Fprintf(t.w, "      %s\n", t.dim("hint: "+is.Suggestion))
		}
		for _, rel := range is.RelatedLocations {
			fmt.Fprintf(t.w, "      %s\n",
				t.dim(fmt.Sprintf("see %s:%d:%d", t.displayPath(rel.File), rel.Line, rel.Column)))
		}
	}
	fmt.Fprintln(t.w)
	return nil
}

func (t *Text) renderSummary(agg *issue.Aggregate, fileCount int, elapsed time.Duration) error {
	mark := t.green("✓")
	verdict := "valid"
	if !agg.Valid {
		mark = t.red("✗")
		verdict = "invalid"
	}
	_, err := fmt.Fprintf(t.w, "%s %s: %d error(s), %d warning(s), %d info in %d file(s) (%s)\n",
		mark, verdict, len(agg.Errors), len(agg.Warnings), len(agg.Info),
		fileCount, elapsed.Round(time.Millisecond))
	return err
}

func (t *Text) displayPath(path string) string {
	if t.root == "" {
		return path
	}
	if rel, err := filepath.Rel(t.root, path); err == nil && !filepath.IsAbs(rel) {
		return rel
	}
	return path
}

func (t *Text) severityMark(s issue.Severity) string {
	switch s {
	case issue.SeverityError:
		return t.red("✗")
	case issue.SeverityWarning:
		return t.yellow("⚠")
	}
	return t.cyan("ℹ")
}

func (t *Text) bold(s string) string {
	if t.color {
		return color.New(color.Bold).Sprint(s)
	}
	return s
}

func (t *Text) dim(s string) string {
	if t.color {
		return color.New(color.Faint).Sprint(s)
	}
	return s
}

func (t *Text) red(s string) string {
	if t.color {
		return color.RedString(s)
	}
	return s
}

func (t *Text) yellow(s string) string {
	if t.color {
		return color.YellowString(s)
	}
	return s
}

func (t *Text) green(s string) string {
	if t.color {
		return color.GreenString(s)
	}
	return s
}

func (t *Text) cyan(s string) string {
	if t.color {
		return color.CyanString(s)
	}
	return s
}
