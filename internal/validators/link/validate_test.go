package link

import (
	"path/filepath"
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

func TestValidateBrokenLink(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"README.md": "See [the map](world/map.md).\n",
	})

	found := issuesWithCode(res.byFile["README.md"], CodeBrokenLink)
	require.Len(t, found, 1)
	assert.Equal(t, issue.SeverityError, found[0].Severity)
	assert.Contains(t, found[0].Message, "world/map.md")
	assert.Equal(t, 1, found[0].Line)
	assert.Equal(t, 5, found[0].Column)
}

func TestValidateExternalLinksUnchecked(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"README.md": "[site](https://example.com/missing) and [mail](mailto:a@b.c)\n",
	})
	assert.Empty(t, res.byFile["README.md"])
}

func TestValidateTitleMismatch(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"README.md": "[The Old Mill](castle.md)\n",
		"castle.md": "# The Castle\n\n[up](README.md)\n",
	})

	found := issuesWithCode(res.byFile["README.md"], CodeTitleMismatch)
	require.Len(t, found, 1)
	assert.Equal(t, issue.SeverityInfo, found[0].Severity)
	assert.Contains(t, found[0].Message, "The Castle")
	assert.Contains(t, found[0].Suggestion, "The Castle")
}

func TestValidateTitleMismatchSkips(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"README.md": "See [see](castle.md), [here](castle.md), [castle](castle.md), " +
			"[The Castle](castle.md), [the castle](castle.md) and ![The Old Mill](castle.md).\n",
		"castle.md": "# The Castle\n\n[up](README.md)\n",
	})
	// Generic text, basename match, exact and case-insensitive title match,
	// and images never count as mismatches.
	assert.Empty(t, issuesWithCode(res.byFile["README.md"], CodeTitleMismatch))
}

func TestValidateAnchorNotFound(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"README.md": "[setup](guide.md#setup) [missing](guide.md#nope)\n",
		"guide.md":  "# Guide\n\n## Setup\n\n[up](README.md)\n",
	})

	found := issuesWithCode(res.byFile["README.md"], CodeAnchorNotFound)
	require.Len(t, found, 1)
	assert.Equal(t, issue.SeverityWarning, found[0].Severity)
	assert.Contains(t, found[0].Message, "nope")
}

func TestValidateSelfAnchor(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"README.md": "[top](#top) [gone](#absent)\n\n# Top\n",
	})
	found := issuesWithCode(res.byFile["README.md"], CodeAnchorNotFound)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Message, "absent")
}

func TestProjectValidateOrphans(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"README.md": "[a](a.md)\n",
		"a.md":      "linked\n",
		"lost.md":   "nothing points here\n",
	})

	found := issuesWithCode(res.project, CodeOrphanedDocument)
	require.Len(t, found, 1)
	assert.Equal(t, issue.SeverityWarning, found[0].Severity)
	assert.Equal(t, filepath.Join(res.root, "lost.md"), found[0].File)
	assert.Equal(t, 1, found[0].Line)
	assert.Equal(t, 1, found[0].Column)
}

func TestProjectValidateEntryPoints(t *testing.T) {
	res := runPipeline(t, map[string]any{"entryPoints": []any{"lost.md"}},
		map[string]string{
			"README.md": "[a](a.md)\n",
			"a.md":      "linked\n",
			"lost.md":   "[b](b.md)\n",
			"b.md":      "reached via the entry point\n",
		})
	assert.Empty(t, issuesWithCode(res.project, CodeOrphanedDocument))
}

func TestProjectValidateNoRootsSkipsOrphanAnalysis(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"a.md": "alone\n",
		"b.md": "also alone\n",
	})
	assert.Empty(t, res.project)
}

func TestProjectValidateNestedReadmeIsRoot(t *testing.T) {
	res := runPipeline(t, nil, map[string]string{
		"docs/readme.md": "[x](x.md)\n",
		"docs/x.md":      "fine\n",
	})
	assert.Empty(t, issuesWithCode(res.project, CodeOrphanedDocument))
}
