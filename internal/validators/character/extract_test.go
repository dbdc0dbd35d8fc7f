package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSimpleMentions(t *testing.T) {
	ex := extractOne(t, nil, "Alice met Bob at the market.\n")
	assert.Equal(t, []string{"Alice", "Bob"}, mentionNames(ex))

	// "met" marks both surrounding names as introductions.
	assert.True(t, ex.Mentions[0].IsIntroduction)
	assert.True(t, ex.Mentions[1].IsIntroduction)

	assert.Equal(t, 1, ex.Mentions[0].Line)
	assert.Equal(t, 1, ex.Mentions[0].Column)
	assert.Equal(t, 11, ex.Mentions[1].Column)
}

func TestExtractMultiWordName(t *testing.T) {
	ex := extractOne(t, nil, "Everyone admired Mary Anne Smith.\n")
	assert.Contains(t, mentionNames(ex), "Mary Anne Smith")
}

func TestExtractTrimsLeadingStopword(t *testing.T) {
	ex := extractOne(t, nil, "Suddenly Marcus stood.\n")
	require.Equal(t, []string{"Marcus"}, mentionNames(ex))
	assert.Equal(t, 10, ex.Mentions[0].Column)
	assert.Equal(t, 9, ex.Mentions[0].Offset)
}

func TestExtractDropsSentenceCaseWords(t *testing.T) {
	// "Stone" only ever opens sentences and also occurs lowercased, so it is
	// an ordinary word, not a name.
	ex := extractOne(t, nil, "Stone walls rose high. Alice touched the stone.\n")
	assert.Equal(t, []string{"Alice"}, mentionNames(ex))
}

func TestExtractKeepsSentenceInitialNames(t *testing.T) {
	// "Alice" opens a sentence but never occurs lowercased: it stays a name.
	ex := extractOne(t, nil, "Alice walked in. Nobody looked up.\n")
	assert.Contains(t, mentionNames(ex), "Alice")
}

func TestExtractMidSentenceOccurrenceConfirmsName(t *testing.T) {
	ex := extractOne(t, nil, "Stone waved. Many liked Stone.\n")
	assert.Equal(t, []string{"Stone", "Stone"}, mentionNames(ex))
}

func TestExtractIgnoreOption(t *testing.T) {
	ex := extractOne(t, map[string]any{"ignore": []any{"London"}},
		"Alice reached London by dusk.\n")
	assert.Equal(t, []string{"Alice"}, mentionNames(ex))
}

func TestExtractRetrospectiveParagraph(t *testing.T) {
	ex := extractOne(t, nil, "Bob remembered the war.\n\nBob smiled now.\n")
	require.Len(t, ex.Mentions, 2)
	assert.True(t, ex.Mentions[0].Retrospective)
	assert.False(t, ex.Mentions[1].Retrospective)
}

func TestExtractConfiguredRetrospectiveMarker(t *testing.T) {
	ex := extractOne(t, map[string]any{"retrospectiveMarkers": []any{"in those days"}},
		"In those days Bob ruled the valley.\n")
	require.Len(t, ex.Mentions, 1)
	assert.Equal(t, "Bob", ex.Mentions[0].Name)
	assert.True(t, ex.Mentions[0].Retrospective)
}

func TestExtractBlockquoteIsRetrospective(t *testing.T) {
	ex := extractOne(t, nil, "> Bob fought bravely.\n")
	require.Len(t, ex.Mentions, 1)
	assert.True(t, ex.Mentions[0].Retrospective)
}

func TestExtractSentencePronouns(t *testing.T) {
	ex := extractOne(t, nil, "Alex smiled as he waited.\n")
	require.Len(t, ex.Mentions, 1)
	assert.Equal(t, []string{"he/him"}, ex.Mentions[0].Pronouns)
}

func TestExtractPronounDeclarations(t *testing.T) {
	ex := extractOne(t, nil, "Alex nodded. [pronouns: they]\n")
	require.Len(t, ex.PronounDecls, 1)
	assert.Equal(t, "they/them", ex.PronounDecls[0].Set)
}

func TestExtractAliasAlsoKnownAs(t *testing.T) {
	ex := extractOne(t, nil, "Elizabeth Bennet, also known as Lizzy Bennet, smiled.\n")
	assert.Contains(t, ex.AliasPairs, [2]string{"Elizabeth Bennet", "Lizzy Bennet"})
}

func TestExtractAliasCallMe(t *testing.T) {
	ex := extractOne(t, nil, "Marcus sighed and said call me Mark.\n")
	assert.Contains(t, ex.AliasPairs, [2]string{"Marcus", "Mark"})
}

func TestExtractAliasFormerly(t *testing.T) {
	ex := extractOne(t, nil, "The letter bore her new name - Vastra, formerly Victoria.\n")
	assert.Contains(t, ex.AliasPairs, [2]string{"Vastra", "Victoria"})
}

func TestExtractSkipsChapterHeadings(t *testing.T) {
	ex := extractOne(t, nil, "# Chapter One\n\nAlice arrived.\n")
	assert.Equal(t, []string{"Alice"}, mentionNames(ex))
}

func TestSplitSentencesCoversWholeInput(t *testing.T) {
	body := "One sentence. Another one! A third?\n"
	spans := splitSentences(body)
	require.NotEmpty(t, spans)
	assert.Equal(t, 0, spans[0].start)
	assert.Equal(t, len(body), spans[len(spans)-1].end)
	for i := 1; i < len(spans); i++ {
		assert.Equal(t, spans[i-1].end, spans[i].start, "spans must be contiguous")
	}
}
