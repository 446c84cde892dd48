package mdcode

// Position locates a byte in the source document. Offset is authoritative;
// Line and Column (both 1-based, column counted in bytes) are for diagnostics.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Span is the region a fenced code block occupies in the source, from the
// first fence character of the opening line to just past the closing fence
// line (including its line ending when present).
type Span struct {
	Start Position
	End   Position
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Block is an immutable snapshot of one fenced code block taken from a single
// parse. It carries no reference into the syntax tree.
type Block struct {
	// Index is the zero-based position of the block in document order.
	Index int
	// Lang is the normalized language, empty when the fence has no info string.
	Lang string
	// Label is the language token exactly as written on the opening fence.
	Label string
	// Meta is the text following the label on the opening fence line.
	Meta string
	// Code is the text between the fences without the final line ending.
	Code string

	Span      Span
	FenceChar byte
	FenceLen  int

	body    int
	closing int
	prefix  string
	eol     string
	leads   []lead
}

// Attrs parses the block's meta string into key/value attributes.
func (b *Block) Attrs() (Attrs, error) {
	return parseAttrs([]byte(b.Meta))
}

// Lines returns the first and last line of the block, fences included.
func (b *Block) Lines() (int, int) {
	last := b.Span.End.Line
	if b.Span.End.Column == 1 && last > b.Span.Start.Line {
		last--
	}

	return b.Span.Start.Line, last
}

// Fence returns the fence marker of the opening line, e.g. "```" or "~~~~".
func (b *Block) Fence() string {
	marker := make([]byte, b.FenceLen)
	for i := range marker {
		marker[i] = b.FenceChar
	}

	return string(marker)
}

type Blocks []*Block
