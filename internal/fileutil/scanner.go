// Package fileutil discovers project files for a run. Discovery walks the
// project root once, applies include/exclude glob patterns, and returns
// sorted absolute paths so every downstream phase sees a deterministic
// order.
package fileutil

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ScanOptions configures project file discovery.
type ScanOptions struct {
	// Include is a list of glob patterns (slash-separated, ** allowed)
	// matched against paths relative to the root.
	Include []string

	// Exclude is a list of glob patterns removed from the include set.
	Exclude []string
}

// Discover walks root and returns the sorted absolute paths of all files
// matched by the include patterns and not matched by the exclude patterns.
func Discover(root string, opts ScanOptions) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to access project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", absRoot)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			// Prune excluded directories early; "dir/**" style patterns
			// exclude the whole subtree.
			if matchAny(opts.Exclude, rel) || matchAny(opts.Exclude, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !matchAny(opts.Include, rel) {
			return nil
		}
		if matchAny(opts.Exclude, rel) {
			return nil
		}

		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk project root: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// matchAny reports whether any pattern matches the slash-separated relative
// path.
func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matchGlob(pat, rel) {
			return true
		}
	}
	return false
}

// matchGlob matches a glob pattern against a slash-separated path. Unlike
// path.Match, "**" matches across path separators: "docs/**/*.md" matches
// "docs/a/b/c.md" and "**/*.md" matches "c.md" at the root.
func matchGlob(pattern, name string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		// "**" matches zero or more leading segments.
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pat[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := path.Match(pat[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}
