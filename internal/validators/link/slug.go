package link

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// slugify converts heading text to a GitHub-style anchor slug: NFC
// normalized, lowercased, spaces and existing hyphens become hyphens, all
// other non-alphanumerics are stripped.
func slugify(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '\t':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// slugSet computes the anchor slugs for a file's headings, applying the
// GitHub duplicate rule: the second "intro" becomes "intro-1" and so on.
func slugSet(headings []headingRef) map[string]bool {
	seen := map[string]int{}
	set := map[string]bool{}
	for _, h := range headings {
		slug := slugify(h.Text)
		if n, dup := seen[slug]; dup {
			seen[slug] = n + 1
			slug = slug + "-" + strconv.Itoa(n)
		} else {
			seen[slug] = 1
		}
		set[slug] = true
	}
	return set
}
