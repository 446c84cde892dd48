package mdcode

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	// ErrMalformed is returned by [Parse] when the Markdown parser cannot
	// produce a tree for the source.
	ErrMalformed = errors.New("malformed markdown")

	// ErrUnterminatedFence is returned by [Parse] for a fenced code block
	// that has no matching closing fence.
	ErrUnterminatedFence = errors.New("unterminated code fence")
)

const minFenceLen = 3

// Document is a parsed Markdown source. The tree is read-only; fenced code
// nodes are paired with the byte geometry of their fences in Source.
type Document struct {
	Source []byte
	Root   ast.Node

	lines  lineIndex
	fences map[ast.Node]*fence
}

type fence struct {
	char    byte
	length  int
	start   int // first fence character of the opening line
	body    int // first byte after the opening line
	closing int // first byte of the closing fence line
	end     int // first byte after the closing fence line
	info    string
	code    string
	prefix  string
	eol     string
	leads   []lead
}

// lead is the container prefix of one content line as written in the
// source, plus the columns of a partially consumed tab that goldmark
// reports as padding.
type lead struct {
	text    string
	padding int
	blank   bool
}

// Parse parses source and resolves the position of every fenced code block.
func Parse(source []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	doc = &Document{
		Source: source,
		Root:   root,
		lines:  newLineIndex(source),
		fences: make(map[ast.Node]*fence),
	}

	// cursor is the end of the last source line claimed by a block visited
	// so far; fences without any position are searched for after it.
	cursor := 0

	err = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var (
			f    *fence
			ferr error
		)

		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			f, ferr = doc.resolveFenced(n, cursor)
		case *ast.HTMLBlock:
			f = doc.resolveCommented(n)
		}

		if ferr != nil {
			return ast.WalkStop, ferr
		}

		if f != nil {
			doc.fences[node] = f
			cursor = max(cursor, f.end)
		}

		if node.Type() == ast.TypeBlock {
			if lines := node.Lines(); lines.Len() > 0 {
				cursor = max(cursor, lines.At(lines.Len()-1).Stop)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// resolveFenced locates the fences of a goldmark code block in the raw
// source. The opening line is found through the info string or the first
// content line; a block with neither is searched for from cursor.
func (d *Document) resolveFenced(fcb *ast.FencedCodeBlock, cursor int) (*fence, error) {
	lines := fcb.Lines()

	var anchor int

	switch {
	case fcb.Info != nil:
		anchor = fcb.Info.Segment.Start
	case lines.Len() > 0:
		first := d.lines.lineStart(lines.At(0).Start)
		if first == 0 {
			return nil, nil
		}

		anchor = first - 1
	default:
		return d.findEmpty(cursor)
	}

	lineStart := d.lines.lineStart(anchor)

	start := lineStart
	for start < len(d.Source) && d.Source[start] != '`' && d.Source[start] != '~' {
		start++
	}

	f := d.opening(lineStart, start)
	if f == nil {
		return nil, nil
	}

	if lines.Len() > 0 {
		f.closing = d.lines.nextLine(lines.At(lines.Len()-1).Stop-1, len(d.Source))
	}

	if err := d.closeFence(f); err != nil {
		return nil, err
	}

	var code strings.Builder

	f.leads = make([]lead, lines.Len())

	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		value := seg.Value(d.Source)

		code.Write(value)

		f.leads[i] = lead{
			text:    string(d.Source[d.lines.lineStart(seg.Start):seg.Start]),
			padding: seg.Padding,
			blank:   len(strings.TrimSpace(string(value))) == 0,
		}
	}

	f.code = trimEOL(code.String())

	return f, nil
}

// findEmpty anchors a fence that has neither info string nor content: the
// first line from cursor holding only container markers and a bare fence.
func (d *Document) findEmpty(cursor int) (*fence, error) {
	size := len(d.Source)

	for line := d.lines.lineStart(min(cursor, size)); line < size; line = d.lines.nextLine(line, size) {
		start := line
		for start < size && isContainerMark(d.Source[start]) {
			start++
		}

		f := d.opening(line, start)
		if f == nil || len(f.info) != 0 {
			continue
		}

		if err := d.closeFence(f); err != nil {
			return nil, err
		}

		return f, nil
	}

	return nil, nil
}

// opening reads the fence run at start on the line beginning at lineStart.
func (d *Document) opening(lineStart, start int) *fence {
	char, length := fenceRun(d.Source[start:])
	if length < minFenceLen {
		return nil
	}

	f := &fence{
		char:   char,
		length: length,
		start:  start,
		body:   d.lines.nextLine(start, len(d.Source)),
		prefix: continuation(d.Source[lineStart:start]),
	}

	f.info, f.eol = splitEOL(d.Source[start+length : f.body])
	f.info = strings.TrimSpace(f.info)
	f.closing = f.body

	return f
}

// closeFence checks that f.closing starts a line closing the fence and sets
// f.end past it.
func (d *Document) closeFence(f *fence) error {
	if len(f.eol) == 0 || f.closing >= len(d.Source) {
		return d.unterminated(f.start)
	}

	f.end = d.lines.nextLine(f.closing, len(d.Source))
	if !closesFence(d.Source[f.closing:f.end], f.char, f.length) {
		return d.unterminated(f.start)
	}

	return nil
}

func isContainerMark(c byte) bool {
	switch c {
	case ' ', '\t', '>', '-', '*', '+', '.', ')':
		return true
	}

	return c >= '0' && c <= '9'
}

var reCommentedCodeBlock = regexp.MustCompile(`^\s*(<!--)?\s*<script\s*type=["']text/markdown["']\s*>\s*$`)

// resolveCommented recognises a fenced block hidden inside an HTML block
// opened by <script type="text/markdown">, optionally within a comment.
func (d *Document) resolveCommented(html *ast.HTMLBlock) *fence {
	const minLines = 3

	lines := html.Lines()
	if lines.Len() < minLines {
		return nil
	}

	first := lines.At(0)
	if !reCommentedCodeBlock.Match(first.Value(d.Source)) {
		return nil
	}

	open, last := lines.At(1), lines.At(lines.Len()-1)

	start := open.Start
	for start < open.Stop && (d.Source[start] == ' ' || d.Source[start] == '\t') {
		start++
	}

	char, length := fenceRun(d.Source[start:open.Stop])
	if length < minFenceLen || !closesFence(last.Value(d.Source), char, length) {
		return nil
	}

	f := &fence{
		char:    char,
		length:  length,
		start:   start,
		body:    open.Stop,
		closing: last.Start,
		end:     last.Stop,
	}

	f.info, f.eol = splitEOL(d.Source[start+length : open.Stop])
	f.info = strings.TrimSpace(f.info)

	if len(f.eol) == 0 {
		return nil
	}

	f.code = trimEOL(string(d.Source[f.body:f.closing]))

	return f
}

func (d *Document) unterminated(offset int) error {
	pos := d.lines.position(offset)

	return fmt.Errorf("%w at line %d", ErrUnterminatedFence, pos.Line)
}

func fenceRun(line []byte) (byte, int) {
	if len(line) == 0 || (line[0] != '`' && line[0] != '~') {
		return 0, 0
	}

	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}

	return line[0], n
}

// closesFence reports whether line is a closing fence for an opening run of
// length characters: container prefix, at least length fence characters and
// nothing but whitespace after them.
func closesFence(line []byte, char byte, length int) bool {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t' || line[i] == '>') {
		i++
	}

	c, n := fenceRun(line[i:])
	if c != char || n < length {
		return false
	}

	return len(strings.TrimSpace(string(line[i+n:]))) == 0
}

// continuation turns the bytes before an opening fence into the prefix every
// following line of the block needs: quote markers and indentation are kept,
// list markers become spaces.
func continuation(lead []byte) string {
	prefix := make([]byte, len(lead))

	for i, c := range lead {
		switch c {
		case ' ', '\t', '>':
			prefix[i] = c
		default:
			prefix[i] = ' '
		}
	}

	return string(prefix)
}

func splitEOL(line []byte) (string, string) {
	s := string(line)

	switch {
	case strings.HasSuffix(s, "\r\n"):
		return s[:len(s)-2], "\r\n"
	case strings.HasSuffix(s, "\n"):
		return s[:len(s)-1], "\n"
	default:
		return s, ""
	}
}

func trimEOL(s string) string {
	s, _ = splitEOL([]byte(s))

	return s
}
