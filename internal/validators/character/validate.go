package character

import (
	"fmt"

	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/processor"
	"github.com/storylint/storylint/internal/validator"
)

// Validate reports character issues attached to one file, reading the frozen
// global state built in phase B.
func (v *Validator) Validate(f *processor.ParsedFile, ctx *validator.Context) ([]issue.Issue, error) {
	entry, ok := ctx.GlobalState.Get(ValidatorID)
	if !ok {
		return nil, nil
	}
	st, ok := entry.(*State)
	if !ok {
		return nil, fmt.Errorf("unexpected global state type %T", entry)
	}

	var issues []issue.Issue
	issues = append(issues, v.checkSpellings(f, st)...)
	issues = append(issues, v.checkIntroductions(f, st)...)
	issues = append(issues, v.checkPronouns(f, st)...)
	return issues, nil
}

// checkSpellings covers CHAR001 (near-identical spellings that are not
// declared aliases) and CHAR004 (known nickname shapes with no declaration).
// The issue lands on the first mention of the spelling that appears later in
// the run, citing the earlier one.
func (v *Validator) checkSpellings(f *processor.ParsedFile, st *State) []issue.Issue {
	var issues []issue.Issue
	for _, laterKey := range st.Names {
		later := st.Characters[laterKey]
		if later.FirstSeen.File != f.Path || v.ignored(later.Canonical) {
			continue
		}
		for _, earlierKey := range st.Names {
			if earlierKey == laterKey {
				continue
			}
			earlier := st.Characters[earlierKey]
			if v.ignored(earlier.Canonical) {
				continue
			}
			if !st.Before(earlier.FirstSeen.File, earlier.FirstSeen.Offset,
				later.FirstSeen.File, later.FirstSeen.Offset) {
				continue
			}

			if nicknameRelated(earlier.Canonical, later.Canonical) {
				issues = append(issues, issue.Issue{
					Code:     CodeAliasUnconfirmed,
					Severity: issue.SeverityInfo,
					Message: fmt.Sprintf("%q looks like a nickname of %q but no alias is declared",
						later.Canonical, earlier.Canonical),
					File:       f.Path,
					Line:       later.FirstSeen.Line,
					Column:     later.FirstSeen.Column,
					Suggestion: fmt.Sprintf("declare %q as an alias of %q in characterValidator.aliases", later.Canonical, earlier.Canonical),
					RelatedLocations: []issue.Location{{
						File: earlier.FirstSeen.File, Line: earlier.FirstSeen.Line, Column: earlier.FirstSeen.Column,
					}},
				})
				continue
			}

			if damerauLevenshtein(earlier.Canonical, later.Canonical) <= 2 {
				issues = append(issues, issue.Issue{
					Code:     CodeNameInconsistency,
					Severity: issue.SeverityError,
					Message: fmt.Sprintf("%q is likely an inconsistent spelling of %q (first seen at %s:%d)",
						later.Canonical, earlier.Canonical, earlier.FirstSeen.File, earlier.FirstSeen.Line),
					File:       f.Path,
					Line:       later.FirstSeen.Line,
					Column:     later.FirstSeen.Column,
					Suggestion: fmt.Sprintf("use %q consistently or declare an alias", earlier.Canonical),
					RelatedLocations: []issue.Location{{
						File: earlier.FirstSeen.File, Line: earlier.FirstSeen.Line, Column: earlier.FirstSeen.Column,
					}},
				})
			}
		}
	}
	return issues
}

// checkIntroductions covers CHAR002: in strict mode, a mention in a file
// ordered before the character's introduction file is flagged unless the
// mention is retrospective or carries its own introductory marker.
func (v *Validator) checkIntroductions(f *processor.ParsedFile, st *State) []issue.Issue {
	if !v.opts.Strict {
		return nil
	}
	var issues []issue.Issue
	for _, key := range st.Names {
		ch := st.Characters[key]
		if ch.Introduction == nil || v.ignored(ch.Canonical) {
			continue
		}
		introRank := st.FileRank[ch.Introduction.File]
		for _, m := range ch.Mentions {
			if m.File != f.Path {
				continue
			}
			if st.FileRank[m.File] >= introRank {
				continue
			}
			if m.Retrospective || m.IsIntroduction {
				continue
			}
			issues = append(issues, issue.Issue{
				Code:     CodeIntroductionMissing,
				Severity: issue.SeverityWarning,
				Message: fmt.Sprintf("%q appears before being introduced in %s",
					ch.Canonical, ch.Introduction.File),
				File:       f.Path,
				Line:       m.Line,
				Column:     m.Column,
				Suggestion: "introduce the character earlier or mark the passage as retrospective",
				RelatedLocations: []issue.Location{{
					File: ch.Introduction.File, Line: ch.Introduction.Line, Column: ch.Introduction.Column,
				}},
			})
		}
	}
	return issues
}

// checkPronouns covers CHAR003: two incompatible pronoun sets attached to
// the same character, unless an explicit pronoun-change declaration sits
// between the observations.
func (v *Validator) checkPronouns(f *processor.ParsedFile, st *State) []issue.Issue {
	var issues []issue.Issue
	for _, key := range st.Names {
		ch := st.Characters[key]
		if v.ignored(ch.Canonical) || len(ch.Pronouns) < 2 {
			continue
		}
		current := ch.Pronouns[0]
		for _, ev := range ch.Pronouns[1:] {
			if ev.Set == current.Set {
				current = ev
				continue
			}
			if st.declBetween(current, ev) {
				current = ev
				continue
			}
			if ev.File == f.Path {
				issues = append(issues, issue.Issue{
					Code:     CodePronounInconsistency,
					Severity: issue.SeverityWarning,
					Message: fmt.Sprintf("%q is referred to with %s here but with %s at %s:%d",
						ch.Canonical, ev.Set, current.Set, current.File, current.Line),
					File:       f.Path,
					Line:       ev.Line,
					Column:     ev.Column,
					Suggestion: "add a pronoun-change marker such as [pronouns: they] if this is intentional",
					RelatedLocations: []issue.Location{{
						File: current.File, Line: current.Line, Column: current.Column,
					}},
				})
			}
			current = ev
		}
	}
	return issues
}

// declBetween reports whether an explicit pronoun declaration appears
// between two evidence positions in run order.
func (st *State) declBetween(a, b pronounEvidence) bool {
	for _, d := range st.Decls {
		afterA := st.Before(a.File, a.Offset, d.File, d.Offset)
		beforeB := st.Before(d.File, d.Offset, b.File, b.Offset) ||
			(d.File == b.File && d.Offset == b.Offset)
		if afterA && beforeB {
			return true
		}
	}
	return false
}
