package character

import (
	"fmt"
	"sort"
	"strings"
)

// pronounEvidence is one observation of a pronoun set for a character.
type pronounEvidence struct {
	Set    string
	File   string
	Line   int
	Column int
	Offset int
}

// Character is the merged cross-file record for one canonical name.
type Character struct {
	// Canonical is the representative display spelling after alias
	// resolution.
	Canonical string

	// Aliases maps lowercase spellings in this group to their display form.
	Aliases map[string]string

	// FirstSeen is the first mention across the run in file order.
	FirstSeen Mention

	// Introduction is the earliest mention carrying an introductory marker,
	// nil when the character is never introduced.
	Introduction *Mention

	// Mentions holds every mention in run order.
	Mentions []Mention

	// Pronouns holds pronoun evidence in run order.
	Pronouns []pronounEvidence
}

// State is this validator's global-state entry: the character map plus the
// file ordering used to compare mention positions across files.
type State struct {
	// FileRank maps file path to its position in sorted file order.
	FileRank map[string]int

	// Characters is keyed by lowercase canonical spelling.
	Characters map[string]*Character

	// Names holds the character keys sorted for deterministic iteration.
	Names []string

	// Decls holds explicit pronoun declarations in run order.
	Decls []pronounDecl
}

// Before reports whether position a precedes position b in run order.
func (s *State) Before(aFile string, aOff int, bFile string, bOff int) bool {
	ra, rb := s.FileRank[aFile], s.FileRank[bFile]
	if ra != rb {
		return ra < rb
	}
	return aOff < bOff
}

// MergeGlobalState folds every file's extraction into the character state.
// Partials arrive unordered; everything is sorted here so the result is the
// same for any permutation of the input.
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

	st := &State{
		FileRank:   make(map[string]int),
		Characters: make(map[string]*Character),
	}
	for i, ex := range extractions {
		st.FileRank[ex.File] = i
	}

	// Resolve aliases with a union-find over lowercase spellings. Configured
	// canonicals win representative elections; otherwise the
	// lexicographically smallest spelling represents the group, which also
	// collapses declaration cycles deterministically.
	uf := newUnionFind()
	display := make(map[string]string)
	note := func(spelling string) {
		key := strings.ToLower(spelling)
		uf.add(key)
		if _, ok := display[key]; !ok {
			display[key] = spelling
		}
	}
	for _, decl := range v.opts.Aliases {
		note(decl.Canonical)
		uf.prefer(strings.ToLower(decl.Canonical))
		for _, alias := range decl.Aliases {
			note(alias)
			uf.union(strings.ToLower(decl.Canonical), strings.ToLower(alias))
		}
	}
	for _, ex := range extractions {
		for _, pair := range ex.AliasPairs {
			note(pair[0])
			note(pair[1])
			uf.union(strings.ToLower(pair[0]), strings.ToLower(pair[1]))
		}
		for _, m := range ex.Mentions {
			note(m.Name)
		}
	}

	for _, ex := range extractions {
		mentions := append([]Mention(nil), ex.Mentions...)
		sort.Slice(mentions, func(i, j int) bool { return mentions[i].Offset < mentions[j].Offset })
		for _, m := range mentions {
			key := uf.find(strings.ToLower(m.Name))
			ch, ok := st.Characters[key]
			if !ok {
				ch = &Character{
					Canonical: display[key],
					Aliases:   make(map[string]string),
					FirstSeen: m,
				}
				st.Characters[key] = ch
			}
			ch.Aliases[strings.ToLower(m.Name)] = m.Name
			ch.Mentions = append(ch.Mentions, m)
			if m.IsIntroduction && ch.Introduction == nil {
				intro := m
				ch.Introduction = &intro
			}
			for _, set := range m.Pronouns {
				ch.Pronouns = append(ch.Pronouns, pronounEvidence{
					Set: set, File: m.File, Line: m.Line, Column: m.Column, Offset: m.Offset,
				})
			}
		}
		st.Decls = append(st.Decls, ex.PronounDecls...)
	}

	// Configured groups may never be mentioned; they still resolve.
	for _, decl := range v.opts.Aliases {
		key := uf.find(strings.ToLower(decl.Canonical))
		if ch, ok := st.Characters[key]; ok {
			ch.Canonical = decl.Canonical
			for _, alias := range decl.Aliases {
				ch.Aliases[strings.ToLower(alias)] = alias
			}
		}
	}

	for key := range st.Characters {
		st.Names = append(st.Names, key)
	}
	sort.Strings(st.Names)
	sort.Slice(st.Decls, func(i, j int) bool {
		return st.Before(st.Decls[i].File, st.Decls[i].Offset, st.Decls[j].File, st.Decls[j].Offset)
	})
	return st, nil
}

// unionFind resolves alias groups. Representatives prefer configured
// canonical names, then the lexicographically smallest member.
type unionFind struct {
	parent    map[string]string
	preferred map[string]bool
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string), preferred: make(map[string]bool)}
}

func (u *unionFind) add(key string) {
	if _, ok := u.parent[key]; !ok {
		u.parent[key] = key
	}
}

func (u *unionFind) prefer(key string) {
	u.add(key)
	u.preferred[key] = true
}

func (u *unionFind) find(key string) string {
	u.add(key)
	root := key
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[key] != root {
		u.parent[key], key = root, u.parent[key]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	rep := ra
	switch {
	case u.preferred[ra] && !u.preferred[rb]:
	case u.preferred[rb] && !u.preferred[ra]:
		rep = rb
	case rb < ra:
		rep = rb
	}
	if rep == ra {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
