package issue

import (
	"fmt"
	"sort"
)

// Counts summarizes an aggregate result.
type Counts struct {
	Total       int            `json:"total"`
	ByValidator map[string]int `json:"byValidator"`
	BySeverity  map[string]int `json:"bySeverity"`
	ByFile      map[string]int `json:"byFile"`
}

// Aggregate is the final deterministic collection of issues for one run.
// Valid is true exactly when no error-severity issue was reported.
type Aggregate struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Info     []Issue `json:"info"`
	Counts   Counts  `json:"counts"`
}

// All returns every issue in sorted order, most severe first.
func (a *Aggregate) All() []Issue {
	out := make([]Issue, 0, len(a.Errors)+len(a.Warnings)+len(a.Info))
	out = append(out, a.Errors...)
	out = append(out, a.Warnings...)
	out = append(out, a.Info...)
	return out
}

// ExitCode maps the aggregate onto a process exit code given the configured
// failure threshold. Errors always fail unless failOn is "none"; warnings
// fail only when failOn elevates them.
func (a *Aggregate) ExitCode(failOn string) int {
	switch failOn {
	case "none":
		return 0
	case "warning":
		if len(a.Errors) > 0 || len(a.Warnings) > 0 {
			return 1
		}
	default: // "error"
		if len(a.Errors) > 0 {
			return 1
		}
	}
	return 0
}

// Aggregator collects (validator, issue) pairs during a run and produces a
// sorted, deduplicated Aggregate. It collapses exact duplicates within one
// validator but never across validators.
type Aggregator struct {
	items []Issue
	seen  map[string]bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]bool)}
}

// Add records an issue for the given validator. Issues with an identical
// (validator, code, file, line, column, message) tuple are collapsed to one.
func (ag *Aggregator) Add(validatorID string, is Issue) {
	is.Validator = validatorID
	key := fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%d\x00%s",
		is.Validator, is.Code, is.File, is.Line, is.Column, is.Message)
	if ag.seen[key] {
		return
	}
	ag.seen[key] = true
	ag.items = append(ag.items, is)
}

// AddAll records a batch of issues for one validator.
func (ag *Aggregator) AddAll(validatorID string, issues []Issue) {
	for _, is := range issues {
		ag.Add(validatorID, is)
	}
}

// Len reports the number of issues collected so far.
func (ag *Aggregator) Len() int {
	return len(ag.items)
}

// Result sorts the collected issues and computes summary counts. The
// aggregator can keep collecting afterwards; Result is a snapshot.
func (ag *Aggregator) Result() *Aggregate {
	sorted := make([]Issue, len(ag.items))
	copy(sorted, ag.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})

	agg := &Aggregate{
		Errors:   []Issue{},
		Warnings: []Issue{},
		Info:     []Issue{},
		Counts: Counts{
			ByValidator: make(map[string]int),
			BySeverity:  make(map[string]int),
			ByFile:      make(map[string]int),
		},
	}
	for _, is := range sorted {
		switch is.Severity {
		case SeverityError:
			agg.Errors = append(agg.Errors, is)
		case SeverityWarning:
			agg.Warnings = append(agg.Warnings, is)
		default:
			agg.Info = append(agg.Info, is)
		}
		agg.Counts.Total++
		agg.Counts.ByValidator[is.Validator]++
		agg.Counts.BySeverity[is.Severity.String()]++
		if is.File != "" {
			agg.Counts.ByFile[is.File]++
		}
	}
	agg.Valid = len(agg.Errors) == 0
	return agg
}
