package format

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ezerfernandes/mdpatch/internal/mdcode"
	"golang.org/x/sync/errgroup"
)

// BlockError is a formatter refusal for one block.
type BlockError struct {
	Index int
	Lang  string
	Line  int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d (%s) at line %d: %v", e.Index, e.Lang, e.Line, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// Result collects the outcome of formatting a document's blocks.
type Result struct {
	// Replacements holds the formatted content of every block whose output
	// differs from its input, keyed by block index.
	Replacements map[int]string
	// Refused lists the blocks the formatter declined, ordered by index.
	Refused []*BlockError
}

// Run formats blocks concurrently with at most jobs formatters in flight.
// A refusal only leaves that block untouched; the error return is reserved
// for cancellation of ctx.
func Run(ctx context.Context, blocks mdcode.Blocks, formatter Formatter, jobs int) (*Result, error) {
	res := &Result{Replacements: make(map[int]string)}

	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		group.SetLimit(jobs)
	}

	for _, block := range blocks {
		block := block

		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := formatter.Format(gctx, block.Lang, block.Code)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				res.Refused = append(res.Refused, &BlockError{
					Index: block.Index,
					Lang:  block.Lang,
					Line:  block.Span.Start.Line,
					Err:   err,
				})
			case out != block.Code:
				res.Replacements[block.Index] = out
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(res.Refused, func(i, j int) bool { return res.Refused[i].Index < res.Refused[j].Index })

	return res, nil
}
