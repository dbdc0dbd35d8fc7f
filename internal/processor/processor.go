// Package processor turns project files into parsed-file records: decoded
// content, stripped front matter, a goldmark AST and a line index. Results
// are cached by absolute path for the duration of a run.
package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/storylint/storylint/internal/issue"
)

// FileError reports a file that could not be processed. Code is one of the
// stable engine issue codes (encoding-error, parse-error).
type FileError struct {
	Path string
	Code string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Code, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ParsedFile is a processed Markdown document. It is created once per file
// per run and shared read-only by every validator.
type ParsedFile struct {
	// Path is the absolute path of the file.
	Path string

	// Content is the full original file content.
	Content []byte

	// Body is the content with front matter stripped; AST offsets are
	// relative to it.
	Body []byte

	// BodyOffset is the byte offset of Body within Content.
	BodyOffset int

	// Doc is the goldmark document node parsed from Body.
	Doc ast.Node

	// FrontMatter holds the parsed YAML front matter, nil when absent or
	// malformed.
	FrontMatter map[string]any

	// Issues carries processor-level findings (front-matter-error) that flow
	// to the aggregator alongside validator output.
	Issues []issue.Issue

	lineIndex *LineIndex
}

// Position maps a Body-relative byte offset to a 1-based (line, column) in
// the original file, accounting for stripped front matter.
func (f *ParsedFile) Position(bodyOffset int) (line, column int) {
	return f.lineIndex.Position(bodyOffset + f.BodyOffset)
}

// Processor parses files and caches the results for one run.
type Processor struct {
	markdown goldmark.Markdown

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	file *ParsedFile
	err  error
}

func New() *Processor {
	return &Processor{
		markdown: goldmark.New(),
		cache:    make(map[string]*cacheEntry),
	}
}

// Process reads and parses the file at path. Results (including failures)
// are cached by absolute path until Release.
func (p *Processor) Process(path string) (*ParsedFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	p.mu.Lock()
	if entry, ok := p.cache[abs]; ok {
		p.mu.Unlock()
		return entry.file, entry.err
	}
	p.mu.Unlock()

	content, err := os.ReadFile(abs)
	if err != nil {
		return p.store(abs, nil, fmt.Errorf("failed to read %s: %w", abs, err))
	}

	pf, err := p.parse(abs, content)
	return p.store(abs, pf, err)
}

// ProcessContent parses in-memory content under the given path. Used by
// tests and by validators reading auxiliary files through the context.
func (p *Processor) ProcessContent(path string, content []byte) (*ParsedFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	p.mu.Lock()
	if entry, ok := p.cache[abs]; ok {
		p.mu.Unlock()
		return entry.file, entry.err
	}
	p.mu.Unlock()

	pf, err := p.parse(abs, content)
	return p.store(abs, pf, err)
}

func (p *Processor) store(abs string, pf *ParsedFile, err error) (*ParsedFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[abs] = &cacheEntry{file: pf, err: err}
	return pf, err
}

func (p *Processor) parse(abs string, content []byte) (pf *ParsedFile, err error) {
	if !utf8.Valid(content) {
		return nil, &FileError{Path: abs, Code: issue.CodeEncodingError,
			Err: fmt.Errorf("content is not valid UTF-8")}
	}

	body, bodyOffset, rawFM := splitFrontMatter(content)

	pf = &ParsedFile{
		Path:       abs,
		Content:    content,
		Body:       body,
		BodyOffset: bodyOffset,
		lineIndex:  NewLineIndex(content),
	}

	if rawFM != nil {
		fm, fmErr := parseFrontMatter(rawFM)
		if fmErr != nil {
			// Malformed front matter is a warning; the body still parses.
			pf.Issues = append(pf.Issues, issue.Issue{
				Code:     issue.CodeFrontMatterError,
				Severity: issue.SeverityWarning,
				Message:  fmt.Sprintf("malformed YAML front matter: %v", fmErr),
				File:     abs,
				Line:     1,
				Column:   1,
			})
		} else {
			pf.FrontMatter = fm
		}
	}

	// goldmark does not return parse errors; a panic here means the parser
	// rejected the input outright.
	defer func() {
		if r := recover(); r != nil {
			pf = nil
			err = &FileError{Path: abs, Code: issue.CodeParseError,
				Err: fmt.Errorf("markdown parser failed: %v", r)}
		}
	}()
	pf.Doc = p.markdown.Parser().Parse(text.NewReader(body))
	return pf, nil
}

// Release drops every cached parsed file. Called by the orchestrator at
// finalize on every control path.
func (p *Processor) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]*cacheEntry)
}

// ExtractText returns the plain text of a node's subtree, concatenating
// text segments and string values in document order.
func ExtractText(n ast.Node, source []byte) string {
	var buf []byte
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		switch t := node.(type) {
		case *ast.Text:
			buf = append(buf, t.Segment.Value(source)...)
		case *ast.String:
			buf = append(buf, t.Value...)
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return string(buf)
}

// NodeOffset returns the Body-relative byte offset of the first text content
// under a node. Block nodes fall back to their first line segment.
func NodeOffset(n ast.Node) (int, bool) {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start, true
	}
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := NodeOffset(c); ok {
			return off, true
		}
	}
	return 0, false
}
