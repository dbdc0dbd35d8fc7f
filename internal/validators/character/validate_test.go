package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storylint/storylint/internal/issue"
)

func issuesWithCode(issues []issue.Issue, code string) []issue.Issue {
	var out []issue.Issue
	for _, is := range issues {
		if is.Code == code {
			out = append(out, is)
		}
	}
	return out
}

func TestValidateNameInconsistency(t *testing.T) {
	byFile, _ := runPipeline(t, nil, map[string]string{
		"ch01.md": "Katherine arrived at court.\n",
		"ch02.md": "Katheryn smiled warmly.\n",
	})

	assert.Empty(t, byFile["ch01.md"])
	found := issuesWithCode(byFile["ch02.md"], CodeNameInconsistency)
	require.Len(t, found, 1)

	is := found[0]
	assert.Equal(t, issue.SeverityError, is.Severity)
	assert.Contains(t, is.Message, "Katheryn")
	assert.Contains(t, is.Message, "Katherine")
	assert.Equal(t, 1, is.Line)
	assert.Equal(t, 1, is.Column)
	require.Len(t, is.RelatedLocations, 1)
	assert.Contains(t, is.RelatedLocations[0].File, "ch01.md")
	assert.NotEmpty(t, is.Suggestion)
}

func TestValidateDeclaredAliasSuppressesInconsistency(t *testing.T) {
	opts := map[string]any{
		"aliases": []any{map[string]any{
			"canonical": "Katherine",
			"aliases":   []any{"Katheryn"},
		}},
	}
	byFile, _ := runPipeline(t, opts, map[string]string{
		"ch01.md": "Katherine arrived at court.\n",
		"ch02.md": "Katheryn smiled warmly.\n",
	})
	assert.Empty(t, issuesWithCode(byFile["ch02.md"], CodeNameInconsistency))
}

func TestValidateIgnoredNameSuppressesInconsistency(t *testing.T) {
	byFile, _ := runPipeline(t, map[string]any{"ignore": []any{"Katheryn"}},
		map[string]string{
			"ch01.md": "Katherine arrived at court.\n",
			"ch02.md": "Katheryn smiled warmly.\n",
		})
	assert.Empty(t, issuesWithCode(byFile["ch02.md"], CodeNameInconsistency))
}

func TestValidateNicknameSuggestion(t *testing.T) {
	byFile, _ := runPipeline(t, nil, map[string]string{
		"ch01.md": "Elizabeth curtseyed gracefully.\n",
		"ch02.md": "Liz grinned widely.\n",
	})

	found := issuesWithCode(byFile["ch02.md"], CodeAliasUnconfirmed)
	require.Len(t, found, 1)
	assert.Equal(t, issue.SeverityInfo, found[0].Severity)
	assert.Contains(t, found[0].Suggestion, "alias")
	// A nickname pair must not double-report as a spelling inconsistency.
	assert.Empty(t, issuesWithCode(byFile["ch02.md"], CodeNameInconsistency))
}

func TestValidateIntroductionRequiresStrict(t *testing.T) {
	files := map[string]string{
		"ch01.md": "Bob waved from the bridge.\n",
		"ch02.md": "Many met Bob at noon.\n",
	}

	byFile, _ := runPipeline(t, nil, files)
	assert.Empty(t, issuesWithCode(byFile["ch01.md"], CodeIntroductionMissing))

	byFile, _ = runPipeline(t, map[string]any{"strict": true}, files)
	found := issuesWithCode(byFile["ch01.md"], CodeIntroductionMissing)
	require.Len(t, found, 1)
	assert.Equal(t, issue.SeverityWarning, found[0].Severity)
	assert.Contains(t, found[0].Message, "Bob")
	require.Len(t, found[0].RelatedLocations, 1)
	assert.Contains(t, found[0].RelatedLocations[0].File, "ch02.md")

	// The introduction file itself is clean.
	assert.Empty(t, issuesWithCode(byFile["ch02.md"], CodeIntroductionMissing))
}

func TestValidateRetrospectiveMentionExemptFromIntroduction(t *testing.T) {
	byFile, _ := runPipeline(t, map[string]any{"strict": true}, map[string]string{
		"ch01.md": "Bob remembered the war.\n",
		"ch02.md": "Many met Bob at noon.\n",
	})
	assert.Empty(t, issuesWithCode(byFile["ch01.md"], CodeIntroductionMissing))
}

func TestValidatePronounInconsistency(t *testing.T) {
	byFile, _ := runPipeline(t, nil, map[string]string{
		"ch01.md": "Alex smiled as he waited. Alex frowned when she arrived.\n",
	})

	found := issuesWithCode(byFile["ch01.md"], CodePronounInconsistency)
	require.Len(t, found, 1)
	assert.Equal(t, issue.SeverityWarning, found[0].Severity)
	assert.Contains(t, found[0].Message, "she/her")
	assert.Contains(t, found[0].Message, "he/him")
}

func TestValidatePronounChangeMarkerSuppresses(t *testing.T) {
	byFile, _ := runPipeline(t, nil, map[string]string{
		"ch01.md": "Alex smiled as he waited. [pronouns: she] Alex frowned when she arrived.\n",
	})
	assert.Empty(t, issuesWithCode(byFile["ch01.md"], CodePronounInconsistency))
}

func TestValidatePronounInconsistencyAcrossFiles(t *testing.T) {
	byFile, _ := runPipeline(t, nil, map[string]string{
		"ch01.md": "Alex smiled as he waited.\n",
		"ch02.md": "Alex frowned when she arrived.\n",
	})
	assert.Empty(t, issuesWithCode(byFile["ch01.md"], CodePronounInconsistency))
	found := issuesWithCode(byFile["ch02.md"], CodePronounInconsistency)
	require.Len(t, found, 1)
	require.Len(t, found[0].RelatedLocations, 1)
	assert.Contains(t, found[0].RelatedLocations[0].File, "ch01.md")
}

func TestValidateCleanProject(t *testing.T) {
	byFile, _ := runPipeline(t, nil, map[string]string{
		"ch01.md": "Alice met Bob at the market.\n",
		"ch02.md": "Alice waved. Bob waved back at Alice.\n",
	})
	for name, issues := range byFile {
		assert.Empty(t, issues, "unexpected issues in %s", name)
	}
}

func TestValidateWithoutStateIsNoop(t *testing.T) {
	v, ctx := newTestValidator(t, nil)
	ctx.GlobalState = stateMap{}
	issues, err := v.Validate(nil, ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
