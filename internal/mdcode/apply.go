package mdcode

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpanOutOfBounds is returned by [Apply] when a replacement does not
	// fit the source it is applied to.
	ErrSpanOutOfBounds = errors.New("span out of bounds")

	// ErrPlanOrder is returned by [Apply] for a plan that is not sorted by
	// descending offset or has overlapping spans.
	ErrPlanOrder = errors.New("plan entries overlap or are out of order")
)

// Apply rewrites source according to plan. The opening and closing fence
// lines of every replaced block are kept byte for byte; only the lines in
// between change. An empty plan returns source itself.
//
// The plan is checked as a whole before anything is written, so either
// every replacement applies or none does.
func Apply(source []byte, plan Plan) ([]byte, error) {
	if len(plan) == 0 {
		return source, nil
	}

	if err := plan.check(len(source)); err != nil {
		return nil, err
	}

	result := source

	for i := range plan {
		repl := &plan[i]
		start, end := repl.Span.Start.Offset, repl.Span.End.Offset
		block := repl.rebuild(source)

		res := make([]byte, len(result)-(end-start)+len(block))

		copy(res, result[:start])
		copy(res[start:], block)
		copy(res[start+len(block):], result[end:])

		result = res
	}

	return result, nil
}

func (p Plan) check(size int) error {
	limit := size

	for i := range p {
		repl := &p[i]
		start, end := repl.Span.Start.Offset, repl.Span.End.Offset

		if start < 0 || start >= repl.body || repl.body > repl.closing || repl.closing >= end || end > size {
			return fmt.Errorf("%w: block %d spans [%d, %d) in %d bytes", ErrSpanOutOfBounds, repl.Index, start, end, size)
		}

		if end > limit {
			return fmt.Errorf("%w: block %d", ErrPlanOrder, repl.Index)
		}

		limit = start
	}

	return nil
}

// rebuild renders the replaced block: the original opening line, the new
// content, then the original closing line. Content line i takes the prefix
// the i-th original content line had in the source; lines past those get
// the continuation prefix of the opening fence.
func (r *Replacement) rebuild(source []byte) []byte {
	var buf bytes.Buffer

	buf.Write(source[r.Span.Start.Offset:r.body])

	if len(r.Code) > 0 {
		lines := strings.SplitAfter(r.Code, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for i, line := range lines {
			lead, text := r.lineLead(i, line)

			buf.WriteString(lead)
			buf.WriteString(text)
		}

		if !strings.HasSuffix(r.Code, "\n") {
			buf.WriteString(r.eol)
		}
	}

	buf.Write(source[r.closing:r.Span.End.Offset])

	return buf.Bytes()
}

// lineLead returns the prefix for content line i and the line with any
// indentation already covered by that prefix removed.
func (r *Replacement) lineLead(i int, line string) (string, string) {
	blank := len(strings.TrimSpace(line)) == 0

	if i >= len(r.leads) || (r.leads[i].blank && !blank) {
		if blank {
			return strings.TrimRight(r.prefix, " \t"), line
		}

		return r.prefix, line
	}

	lead := r.leads[i]

	if blank && !lead.blank {
		return strings.TrimRight(lead.text, " \t"), line
	}

	for n := 0; n < lead.padding && strings.HasPrefix(line, " "); n++ {
		line = line[1:]
	}

	return lead.text, line
}
