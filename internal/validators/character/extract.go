package character

import (
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/yuin/goldmark/ast"

	"github.com/storylint/storylint/internal/issue"
	"github.com/storylint/storylint/internal/processor"
	"github.com/storylint/storylint/internal/validator"
)

// Mention is one occurrence of a name candidate.
type Mention struct {
	Name           string
	File           string
	Line           int
	Column         int
	Offset         int
	IsIntroduction bool
	Retrospective  bool
	Pronouns       []string
}

// pronounDecl is an explicit pronoun declaration such as "[pronouns: they]".
type pronounDecl struct {
	File   string
	Offset int
	Line   int
	Column int
	Set    string
}

// extraction is the phase-A output for one file.
type extraction struct {
	File         string
	Mentions     []Mention
	AliasPairs   [][2]string
	PronounDecls []pronounDecl
}

var (
	// nameCandidateRe matches one-to-three capitalized words.
	nameCandidateRe = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:[ \t]\p{Lu}\p{Ll}+){0,2}`)

	introMarkerRe = regexp.MustCompile(`(?i)\b(introduced|met|named|called|i am|my name is)\b`)

	alsoKnownAsRe = regexp.MustCompile(`(\p{Lu}\p{Ll}+(?:[ \t]\p{Lu}\p{Ll}+){0,2}),\s+also known as\s+(\p{Lu}\p{Ll}+(?:[ \t]\p{Lu}\p{Ll}+){0,2})`)
	callMeRe      = regexp.MustCompile(`\bcall me\s+(\p{Lu}\p{Ll}+(?:[ \t]\p{Lu}\p{Ll}+){0,2})`)
	formerlyRe    = regexp.MustCompile(`[—–-]\s*(\p{Lu}\p{Ll}+(?:[ \t]\p{Lu}\p{Ll}+){0,2}),\s+formerly\s+(\p{Lu}\p{Ll}+(?:[ \t]\p{Lu}\p{Ll}+){0,2})`)

	pronounDeclRe      = regexp.MustCompile(`(?i)\[pronouns:\s*([^\]]+)\]`)
	pronounChangeRe    = regexp.MustCompile(`(?i)\bcall me (?:him|her|them) now\b`)
	wordRe             = regexp.MustCompile(`[\p{L}']+`)
	sentenceLeadTrimRe = regexp.MustCompile(`^[\s"'“”‘’(\[—–-]+`)
)

// pronounSets maps individual pronoun words to their set label.
var pronounSets = map[string]string{
	"he": "he/him", "him": "he/him", "his": "he/him", "himself": "he/him",
	"she": "she/her", "her": "she/her", "hers": "she/her", "herself": "she/her",
	"they": "they/them", "them": "they/them", "their": "they/them",
	"theirs": "they/them", "themself": "they/them", "themselves": "they/them",
}

// Extract scans one file for name mentions, alias declarations and pronoun
// evidence. It sees no global state; everything here is derivable from the
// file alone.
func (v *Validator) Extract(f *processor.ParsedFile, ctx *validator.Context) (any, []issue.Issue, error) {
	body := string(f.Body)
	ex := &extraction{File: f.Path}

	sents := splitSentences(body)
	quoted := blockquoteRanges(f)

	// Candidate pass: collect raw matches with their sentence context so
	// sentence-initial occurrences can be disambiguated afterwards.
	type rawMatch struct {
		name          string
		offset        int
		sentence      sentenceSpan
		sentenceStart bool
	}
	var raws []rawMatch
	midSentence := make(map[string]bool)
	lowerWords := lowercaseWordSet(body)

	for _, loc := range nameCandidateRe.FindAllStringIndex(body, -1) {
		name, offset := trimCandidate(body[loc[0]:loc[1]], loc[0], v)
		if name == "" {
			continue
		}
		sent := sentenceAt(sents, offset)
		atStart := isSentenceInitial(body, sent, offset)
		if !atStart {
			midSentence[name] = true
		}
		raws = append(raws, rawMatch{name: name, offset: offset, sentence: sent, sentenceStart: atStart})
	}

	for _, m := range raws {
		if m.sentenceStart && !midSentence[m.name] {
			// Sentence-initial only: keep it unless the same word occurs
			// lowercased in the document, which marks it as an ordinary
			// sentence-case word rather than a name.
			first := strings.ToLower(firstWord(m.name))
			if lowerWords[first] {
				continue
			}
		}
		line, col := f.Position(m.offset)
		mention := Mention{
			Name:   m.name,
			File:   f.Path,
			Line:   line,
			Column: col,
			Offset: m.offset,
		}
		mention.IsIntroduction = hasIntroMarker(body, m.offset, m.offset+len(m.name))
		mention.Retrospective = v.isRetrospective(body, m.offset, quoted)
		mention.Pronouns = sentencePronouns(body[m.sentence.start:m.sentence.end])
		ex.Mentions = append(ex.Mentions, mention)
	}

	ex.AliasPairs = extractAliasPairs(body, sents)

	for _, loc := range pronounDeclRe.FindAllStringSubmatchIndex(body, -1) {
		set := normalizePronounSet(body[loc[2]:loc[3]])
		if set == "" {
			continue
		}
		line, col := f.Position(loc[0])
		ex.PronounDecls = append(ex.PronounDecls, pronounDecl{
			File: f.Path, Offset: loc[0], Line: line, Column: col, Set: set,
		})
	}
	for _, loc := range pronounChangeRe.FindAllStringIndex(body, -1) {
		line, col := f.Position(loc[0])
		words := strings.Fields(strings.ToLower(body[loc[0]:loc[1]]))
		set := pronounSets[words[2]] // "call me X now"
		ex.PronounDecls = append(ex.PronounDecls, pronounDecl{
			File: f.Path, Offset: loc[0], Line: line, Column: col, Set: set,
		})
	}

	return ex, nil, nil
}

// trimCandidate strips leading stopwords from a candidate and truncates at
// the first interior stopword, adjusting the offset to the kept prefix.
// Returns "" when nothing name-like remains.
func trimCandidate(candidate string, offset int, v *Validator) (string, int) {
	words := strings.Fields(candidate)
	for len(words) > 0 && isStopword(words[0]) {
		offset += len(words[0]) + 1
		words = words[1:]
	}
	kept := words[:0:0]
	for _, w := range words {
		if isStopword(w) {
			break
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return "", offset
	}
	name := strings.Join(kept, " ")
	if v.ignored(name) {
		return "", offset
	}
	return name, offset
}

type sentenceSpan struct{ start, end int }

// splitSentences segments the body into contiguous sentence spans using
// Unicode sentence boundaries. Spans cover the whole input.
func splitSentences(body string) []sentenceSpan {
	var spans []sentenceSpan
	iter := sentences.FromString(body)
	pos := 0
	for iter.Next() {
		s := iter.Value()
		spans = append(spans, sentenceSpan{start: pos, end: pos + len(s)})
		pos += len(s)
	}
	if len(spans) == 0 {
		spans = append(spans, sentenceSpan{start: 0, end: len(body)})
	}
	return spans
}

func sentenceAt(spans []sentenceSpan, offset int) sentenceSpan {
	for _, s := range spans {
		if offset >= s.start && offset < s.end {
			return s
		}
	}
	return spans[len(spans)-1]
}

// isSentenceInitial reports whether offset is the first word position of its
// sentence, skipping leading whitespace and opening punctuation.
func isSentenceInitial(body string, sent sentenceSpan, offset int) bool {
	lead := body[sent.start:offset]
	return sentenceLeadTrimRe.ReplaceAllString(lead, "") == ""
}

// hasIntroMarker checks the surrounding 50-character context for an
// introductory phrase.
func hasIntroMarker(body string, start, end int) bool {
	lo := start - 50
	if lo < 0 {
		lo = 0
	}
	hi := end + 50
	if hi > len(body) {
		hi = len(body)
	}
	return introMarkerRe.MatchString(body[lo:hi])
}

// isRetrospective reports whether the mention's paragraph carries a
// retrospective marker or the mention sits inside a block quote.
func (v *Validator) isRetrospective(body string, offset int, quoted []sentenceSpan) bool {
	for _, q := range quoted {
		if offset >= q.start && offset < q.end {
			return true
		}
	}
	start := strings.LastIndex(body[:offset], "\n\n")
	if start < 0 {
		start = 0
	}
	end := strings.Index(body[offset:], "\n\n")
	if end < 0 {
		end = len(body)
	} else {
		end += offset
	}
	para := strings.ToLower(body[start:end])
	for _, marker := range v.markers {
		if strings.Contains(para, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// blockquoteRanges collects the body-offset spans covered by block quotes.
func blockquoteRanges(f *processor.ParsedFile) []sentenceSpan {
	var spans []sentenceSpan
	if f.Doc == nil {
		return spans
	}
	_ = ast.Walk(f.Doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Blockquote); !ok {
			return ast.WalkContinue, nil
		}
		lo, hi := -1, -1
		_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering || child.Type() != ast.TypeBlock {
				return ast.WalkContinue, nil
			}
			lines := child.Lines()
			if lines == nil || lines.Len() == 0 {
				return ast.WalkContinue, nil
			}
			first, last := lines.At(0), lines.At(lines.Len()-1)
			if lo < 0 || first.Start < lo {
				lo = first.Start
			}
			if last.Stop > hi {
				hi = last.Stop
			}
			return ast.WalkContinue, nil
		})
		if lo >= 0 {
			spans = append(spans, sentenceSpan{start: lo, end: hi})
		}
		return ast.WalkSkipChildren, nil
	})
	return spans
}

// sentencePronouns collects the pronoun set labels present in a sentence.
func sentencePronouns(sentence string) []string {
	seen := map[string]bool{}
	var sets []string
	for _, w := range wordRe.FindAllString(strings.ToLower(sentence), -1) {
		if set, ok := pronounSets[w]; ok && !seen[set] {
			seen[set] = true
			sets = append(sets, set)
		}
	}
	return sets
}

// extractAliasPairs finds declared alias relations in the body.
func extractAliasPairs(body string, sents []sentenceSpan) [][2]string {
	var pairs [][2]string
	for _, m := range alsoKnownAsRe.FindAllStringSubmatch(body, -1) {
		pairs = append(pairs, [2]string{m[1], m[2]})
	}
	for _, m := range formerlyRe.FindAllStringSubmatch(body, -1) {
		pairs = append(pairs, [2]string{m[1], m[2]})
	}
	// "call me Y" pairs Y with the nearest preceding name in the same
	// paragraph; with no antecedent the phrase declares nothing.
	for _, loc := range callMeRe.FindAllStringSubmatchIndex(body, -1) {
		alias := body[loc[2]:loc[3]]
		paraStart := strings.LastIndex(body[:loc[0]], "\n\n")
		if paraStart < 0 {
			paraStart = 0
		}
		prior := nameCandidateRe.FindAllString(body[paraStart:loc[0]], -1)
		for i := len(prior) - 1; i >= 0; i-- {
			if !strings.EqualFold(prior[i], alias) && !isStopword(firstWord(prior[i])) {
				pairs = append(pairs, [2]string{prior[i], alias})
				break
			}
		}
	}
	return pairs
}

// normalizePronounSet maps a declared pronoun string to a set label.
func normalizePronounSet(decl string) string {
	for _, w := range wordRe.FindAllString(strings.ToLower(decl), -1) {
		if set, ok := pronounSets[w]; ok {
			return set
		}
	}
	return ""
}

// lowercaseWordSet collects every word that occurs lowercased in the body.
func lowercaseWordSet(body string) map[string]bool {
	set := map[string]bool{}
	for _, w := range wordRe.FindAllString(body, -1) {
		if w == strings.ToLower(w) {
			set[w] = true
		}
	}
	return set
}

func firstWord(name string) string {
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i]
	}
	return name
}
