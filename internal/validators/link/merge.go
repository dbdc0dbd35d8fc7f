package link

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// EdgeKind classifies a link edge after target resolution.
type EdgeKind int

const (
	// EdgeInternal points at a file in the project set.
	EdgeInternal EdgeKind = iota
	// EdgeExternal points outside the project (scheme-prefixed target).
	EdgeExternal
	// EdgeAnchor is a fragment-only link into the source file itself.
	EdgeAnchor
	// EdgeBroken points at a project-relative path with no matching file.
	EdgeBroken
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeInternal:
		return "internal"
	case EdgeExternal:
		return "external"
	case EdgeAnchor:
		return "anchor"
	case EdgeBroken:
		return "broken"
	}
	return "unknown"
}

// Edge is one resolved link from a source position to a target.
type Edge struct {
	From      string
	Line      int
	Column    int
	RawTarget string

	// Target is the resolved absolute path for internal and broken edges.
	Target   string
	Fragment string
	Text     string
	Kind     EdgeKind
	IsImage  bool
}

// Node is one file in the link graph.
type Node struct {
	Path     string
	Title    string
	Incoming int
	Outgoing []Edge

	// Slugs holds the anchor slugs of the file's headings.
	Slugs map[string]bool
}

// Graph is this validator's global-state entry: the directed link graph
// over the project's files.
type Graph struct {
	// Nodes is keyed by absolute file path.
	Nodes map[string]*Node

	// Files holds the node paths in sorted order.
	Files []string
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// MergeGlobalState builds the link graph from every file's extraction.
// Partials arrive unordered; nodes and edges are keyed and sorted by path so
// the graph is identical for any permutation of the input.
func (v *Validator) MergeGlobalState(partials []any) (any, error) {
	extractions := make([]*extraction, 0, len(partials))
	for _, p := range partials {
		ex, ok := p.(*extraction)
		if !ok {
			return nil, fmt.Errorf("unexpected partial type %T", p)
		}
		extractions = append(extractions, ex)
	}
	sort.Slice(extractions, func(i, j int) bool {
		return extractions[i].File < extractions[j].File
	})

	g := &Graph{Nodes: make(map[string]*Node)}
	for _, ex := range extractions {
		g.Nodes[ex.File] = &Node{
			Path:  ex.File,
			Title: ex.Title,
			Slugs: slugSet(ex.Headings),
		}
		g.Files = append(g.Files, ex.File)
	}

	for _, ex := range extractions {
		node := g.Nodes[ex.File]
		for _, ref := range ex.Links {
			edge := v.resolve(g, ex.File, ref)
			node.Outgoing = append(node.Outgoing, edge)
			if edge.Kind == EdgeInternal {
				g.Nodes[edge.Target].Incoming++
			}
		}
	}
	return g, nil
}

// resolve classifies a raw link target against the project file set.
func (v *Validator) resolve(g *Graph, from string, ref linkRef) Edge {
	edge := Edge{
		From:      from,
		Line:      ref.Line,
		Column:    ref.Column,
		RawTarget: ref.RawTarget,
		Text:      ref.Text,
		IsImage:   ref.IsImage,
	}

	target := ref.RawTarget
	if i := strings.IndexByte(target, '#'); i >= 0 {
		edge.Fragment = target[i+1:]
		target = target[:i]
	}

	switch {
	case target == "":
		edge.Kind = EdgeAnchor
		edge.Target = from
	case schemeRe.MatchString(target):
		edge.Kind = EdgeExternal
	default:
		resolved := target
		if filepath.IsAbs(target) || strings.HasPrefix(target, "/") {
			resolved = filepath.Join(v.root, strings.TrimPrefix(target, "/"))
		} else {
			resolved = filepath.Join(filepath.Dir(from), target)
		}
		resolved = filepath.Clean(resolved)
		edge.Target = resolved
		if _, ok := g.Nodes[resolved]; ok {
			edge.Kind = EdgeInternal
		} else {
			edge.Kind = EdgeBroken
		}
	}
	return edge
}

// Reachable computes the set of files reachable from the given roots over
// internal edges, breadth-first. Cycles are harmless.
func (g *Graph) Reachable(roots []string) map[string]bool {
	visited := make(map[string]bool)
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if _, ok := g.Nodes[r]; ok && !visited[r] {
			visited[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.Nodes[cur].Outgoing {
			if e.Kind != EdgeInternal || visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			queue = append(queue, e.Target)
		}
	}
	return visited
}
