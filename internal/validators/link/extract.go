package link

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/processor"
	"github.com/storylint/storylint/internal/validator"
)

// linkRef is one Markdown link or image occurrence.
type linkRef struct {
	RawTarget string
	Text      string
	Line      int
	Column    int
	IsImage   bool
}

// headingRef is one heading occurrence.
type headingRef struct {
	Text  string
	Depth int
	Line  int
	Column int
}

// extraction is the phase-A output for one file.
type extraction struct {
	File     string
	Title    string
	Links    []linkRef
	Headings []headingRef
}

// Extract collects every link node and heading from the file, plus the
// file's title: front-matter title first, then the first H1, then the file
// basename without extension.
func (v *Validator) Extract(f *processor.ParsedFile, ctx *validator.Context) (any, []issue.Issue, error) {
	ex := &extraction{File: f.Path}

	var firstH1 string
	_ = ast.Walk(f.Doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			text := processor.ExtractText(node, f.Body)
			line, col := headingPosition(f, node)
			ex.Headings = append(ex.Headings, headingRef{
				Text: text, Depth: node.Level, Line: line, Column: col,
			})
			if node.Level == 1 && firstH1 == "" {
				firstH1 = text
			}
		case *ast.Link:
			line, col := linkPosition(f, node, 1)
			ex.Links = append(ex.Links, linkRef{
				RawTarget: string(node.Destination),
				Text:      processor.ExtractText(node, f.Body),
				Line:      line,
				Column:    col,
			})
		case *ast.Image:
			line, col := linkPosition(f, node, 2)
			ex.Links = append(ex.Links, linkRef{
				RawTarget: string(node.Destination),
				Text:      processor.ExtractText(node, f.Body),
				Line:      line,
				Column:    col,
				IsImage:   true,
			})
		}
		return ast.WalkContinue, nil
	})

	ex.Title = fileTitle(f, firstH1)
	return ex, nil, nil
}

// fileTitle resolves a file's display title.
func fileTitle(f *processor.ParsedFile, firstH1 string) string {
	if f.FrontMatter != nil {
		if t, ok := f.FrontMatter["title"].(string); ok && strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	if firstH1 != "" {
		return firstH1
	}
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// linkPosition locates an inline link by its first text segment, stepping
// back over the opening bracket(s) so the position points at the link
// itself. Links with no text fall back to the enclosing block.
func linkPosition(f *processor.ParsedFile, n ast.Node, lead int) (line, col int) {
	if off, ok := processor.NodeOffset(n); ok {
		if off >= lead {
			off -= lead
		}
		return f.Position(off)
	}
	if off, ok := processor.NodeOffset(n.Parent()); ok {
		return f.Position(off)
	}
	return 1, 1
}

func headingPosition(f *processor.ParsedFile, h *ast.Heading) (line, col int) {
	if off, ok := processor.NodeOffset(h); ok {
		return f.Position(off)
	}
	return 1, 1
}
