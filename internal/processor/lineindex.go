package processor

import "sort"

// LineIndex maps byte offsets in a file to 1-based (line, column) pairs.
type LineIndex struct {
	// starts holds the byte offset of the first byte of each line.
	starts []int
	size   int
}

// NewLineIndex builds an index over the given content.
func NewLineIndex(content []byte) *LineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(content)}
}

// Position returns the 1-based line and column for a byte offset. Offsets
// past the end of the content clamp to the final position.
func (ix *LineIndex) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > ix.size {
		offset = ix.size
	}
	// First line start strictly greater than offset; the line is the one
	// before it.
	i := sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > offset
	})
	line = i
	column = offset - ix.starts[i-1] + 1
	return line, column
}
