package mdcode

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownBlockIndex matches every [*UnknownIndexError].
var ErrUnknownBlockIndex = errors.New("unknown block index")

// UnknownIndexError reports a replacement keyed by an index that does not
// name an extracted block.
type UnknownIndexError struct {
	Index int
	Count int
}

func (e *UnknownIndexError) Error() string {
	return fmt.Sprintf("%v %d: document has %d code blocks", ErrUnknownBlockIndex, e.Index, e.Count)
}

func (e *UnknownIndexError) Is(target error) bool {
	return target == ErrUnknownBlockIndex
}

// Replacement rewrites the content of one block.
type Replacement struct {
	Index int
	Span  Span
	Code  string

	body    int
	closing int
	prefix  string
	eol     string
	leads   []lead
}

// Plan is a set of replacements ordered by descending start offset.
type Plan []Replacement

// NewPlan validates replacements, keyed by position in blocks, and orders
// them for [Apply]. A single unknown index rejects the whole plan.
func NewPlan(blocks Blocks, replacements map[int]string) (Plan, error) {
	indexes := make([]int, 0, len(replacements))
	for index := range replacements {
		indexes = append(indexes, index)
	}

	sort.Ints(indexes)

	plan := make(Plan, 0, len(indexes))

	for _, index := range indexes {
		if index < 0 || index >= len(blocks) {
			return nil, &UnknownIndexError{Index: index, Count: len(blocks)}
		}

		block := blocks[index]

		plan = append(plan, Replacement{
			Index:   block.Index,
			Span:    block.Span,
			Code:    replacements[index],
			body:    block.body,
			closing: block.closing,
			prefix:  block.prefix,
			eol:     block.eol,
			leads:   block.leads,
		})
	}

	sort.Slice(plan, func(i, j int) bool {
		return plan[i].Span.Start.Offset > plan[j].Span.Start.Offset
	})

	return plan, nil
}
