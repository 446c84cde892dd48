package mdcode

import "sort"

type lineIndex []int

func newLineIndex(source []byte) lineIndex {
	idx := lineIndex{0}

	for i, c := range source {
		if c == '\n' {
			idx = append(idx, i+1)
		}
	}

	return idx
}

// line returns the 1-based line containing offset.
func (idx lineIndex) line(offset int) int {
	return sort.Search(len(idx), func(i int) bool { return idx[i] > offset })
}

func (idx lineIndex) position(offset int) Position {
	line := idx.line(offset)

	return Position{Line: line, Column: offset - idx[line-1] + 1, Offset: offset}
}

func (idx lineIndex) lineStart(offset int) int {
	return idx[idx.line(offset)-1]
}

// nextLine returns the offset of the line following the one containing
// offset, or size when that line is the last one.
func (idx lineIndex) nextLine(offset, size int) int {
	line := idx.line(offset)
	if line < len(idx) {
		return idx[line]
	}

	return size
}
