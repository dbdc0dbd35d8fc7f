package link

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/processor"
	"github.com/storylint/storylint/internal/validator"
)

// genericLinkText lists link texts that never count as title mismatches:
// pronoun-like references a prose author uses deliberately.
var genericLinkText = map[string]bool{
	"here": true, "this": true, "that": true, "link": true, "see": true,
	"see also": true, "read more": true, "more": true, "doc": true,
	"docs": true, "page": true, "click here": true, "up": true,
	"back": true, "next": true, "previous": true, "home": true,
}

// Validate reports per-file link issues against the frozen graph.
func (v *Validator) Validate(f *processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
	g, err := v.graph(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := g.Nodes[f.Path]
	if !ok {
		return nil, nil
	}

	var issues []issue.Issue
	for _, edge := range node.Outgoing {
		switch edge.Kind {
		case EdgeBroken:
			issues = append(issues, issue.Issue{
				Code:     CodeBrokenLink,
				Severity: issue.SeverityError,
				Message:  fmt.Sprintf("broken link: %q does not resolve to a project file", edge.RawTarget),
				File:     edge.From,
				Line:     edge.Line,
				Column:   edge.Column,
			})
		case EdgeInternal:
			issues = append(issues, v.checkInternalEdge(g, edge)...)
		case EdgeAnchor:
			if edge.Fragment != "" && !node.Slugs[slugify(edge.Fragment)] {
				issues = append(issues, issue.Issue{
					Code:     CodeAnchorNotFound,
					Severity: issue.SeverityWarning,
					Message:  fmt.Sprintf("anchor %q not found in this document", edge.Fragment),
					File:     edge.From,
					Line:     edge.Line,
					Column:   edge.Column,
				})
			}
		}
	}
	return issues, nil
}

// checkInternalEdge covers LINK002 (title mismatch) and LINK004 (anchor not
// found) for one internal edge.
func (v *Validator) checkInternalEdge(g *Graph, edge Edge) []issue.Issue {
	var issues []issue.Issue
	target := g.Nodes[edge.Target]

	if !edge.IsImage {
		text := strings.TrimSpace(edge.Text)
		base := filepath.Base(edge.Target)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		switch {
		case text == "":
		case genericLinkText[strings.ToLower(text)]:
		case strings.EqualFold(text, target.Title):
		case strings.EqualFold(text, base):
		default:
			issues = append(issues, issue.Issue{
				Code:     CodeTitleMismatch,
				Severity: issue.SeverityInfo,
				Message: fmt.Sprintf("link text %q differs from the target's title %q",
					text, target.Title),
				File:       edge.From,
				Line:       edge.Line,
				Column:     edge.Column,
				Suggestion: fmt.Sprintf("consider using the target title %q as link text", target.Title),
			})
		}
	}

	if edge.Fragment != "" && !target.Slugs[slugify(edge.Fragment)] {
		issues = append(issues, issue.Issue{
			Code:     CodeAnchorNotFound,
			Severity: issue.SeverityWarning,
			Message: fmt.Sprintf("anchor %q not found in %s", edge.Fragment,
				filepath.Base(edge.Target)),
			File:   edge.From,
			Line:   edge.Line,
			Column: edge.Column,
		})
	}
	return issues
}

// ProjectValidate covers LINK003: files with no incoming internal edges
// that are unreachable from the orphan-detection roots. With no roots at
// all, orphan detection is skipped rather than flagging the whole project.
func (v *Validator) ProjectValidate(files []*processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
	g, err := v.graph(ctx)
	if err != nil {
		return nil, err
	}

	var roots []string
	for _, path := range g.Files {
		if isRootFile(path) {
			roots = append(roots, path)
		}
	}
	roots = append(roots, v.entryPointPaths()...)
	if len(roots) == 0 {
		return nil, nil
	}

	reached := g.Reachable(roots)
	var issues []issue.Issue
	for _, path := range g.Files {
		if reached[path] {
			continue
		}
		issues = append(issues, issue.Issue{
			Code:       CodeOrphanedDocument,
			Severity:   issue.SeverityWarning,
			Message:    "document is not reachable from any entry point",
			File:       path,
			Line:       1,
			Column:     1,
			Suggestion: "link to it from a reachable document or add it to linkValidator.entryPoints",
		})
	}
	return issues, nil
}

func (v *Validator) graph(ctx *validator.Context) (*Graph, error) {
	entry, ok := ctx.GlobalState.Get(ValidatorID)
	if !ok {
		return nil, fmt.Errorf("link graph missing from global state")
	}
	g, ok := entry.(*Graph)
	if !ok {
		return nil, fmt.Errorf("unexpected global state type %T", entry)
	}
	return g, nil
}
