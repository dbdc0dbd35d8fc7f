package character

import "strings"

// damerauLevenshtein computes the restricted Damerau-Levenshtein distance
// between two strings: insertions, deletions, substitutions and adjacent
// transpositions each cost one. Comparison is case-insensitive.
func damerauLevenshtein(a, b string) int {
	s := []rune(strings.ToLower(a))
	t := []rune(strings.ToLower(b))

	if len(s) == 0 {
		return len(t)
	}
	if len(t) == 0 {
		return len(s)
	}

	rows := len(s) + 1
	cols := len(t) + 1
	d := make([][]int, rows)
	for i := range d {
		d[i] = make([]int, cols)
		d[i][0] = i
	}
	for j := 0; j < cols; j++ {
		d[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			del := d[i-1][j] + 1
			ins := d[i][j-1] + 1
			sub := d[i-1][j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			if i > 1 && j > 1 && s[i-1] == t[j-2] && s[i-2] == t[j-1] {
				if tr := d[i-2][j-2] + 1; tr < min {
					min = tr
				}
			}
			d[i][j] = min
		}
	}
	return d[rows-1][cols-1]
}
