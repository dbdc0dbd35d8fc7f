package character

import "strings"

// stopwords are capitalized English words that are never name candidates,
// plus weekday and month names.
var stopwords = map[string]bool{}

func init() {
	words := []string{
		"a", "an", "the", "and", "but", "or", "nor", "for", "yet", "so",
		"i", "you", "he", "she", "it", "we", "they",
		"my", "your", "his", "her", "its", "our", "their",
		"me", "him", "us", "them",
		"this", "that", "these", "those", "there", "here",
		"in", "on", "at", "by", "to", "of", "as", "up", "off", "out",
		"into", "onto", "over", "under", "with", "from", "about", "after",
		"before", "between", "through", "during", "against", "without",
		"when", "while", "where", "which", "what", "who", "whom", "whose",
		"why", "how", "if", "then", "than", "because", "although", "though",
		"once", "again", "still", "also", "just", "only", "even", "ever",
		"never", "always", "perhaps", "maybe", "suddenly", "meanwhile",
		"however", "instead", "indeed", "finally", "eventually", "soon",
		"now", "today", "tomorrow", "yesterday", "tonight",
		"yes", "no", "not", "all", "any", "some", "none", "both", "each",
		"every", "few", "many", "most", "other", "another", "such",
		"chapter", "part", "prologue", "epilogue", "book", "scene",
		"one", "two", "three", "four", "five", "six", "seven", "eight",
		"nine", "ten",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
		"sunday",
		"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december",
	}
	for _, w := range words {
		stopwords[w] = true
	}
}

func isStopword(word string) bool {
	return stopwords[strings.ToLower(word)]
}
