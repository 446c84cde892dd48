package mdcode

// Walker is a callback invoked for each fenced code block found in a Markdown
// document. The walker may modify block.Code; any changes are written back
// into the document by [Walk].
type Walker func(block *Block) error

// Unfence parses a Markdown document and returns all fenced code blocks
// without modifying the source.
func Unfence(source []byte) (Blocks, error) {
	doc, err := Parse(source)
	if err != nil {
		return nil, err
	}

	return Extract(doc), nil
}

// Replace substitutes the content of the blocks named by index in
// replacements and returns the updated document.
func Replace(source []byte, replacements map[int]string) ([]byte, error) {
	blocks, err := Unfence(source)
	if err != nil {
		return nil, err
	}

	plan, err := NewPlan(blocks, replacements)
	if err != nil {
		return nil, err
	}

	return Apply(source, plan)
}

// Walk parses a Markdown document and calls walker for every fenced code block.
// If the walker modifies any block's Code, Walk returns true and the updated
// document. When no blocks are modified, it returns false and a nil slice.
func Walk(source []byte, walker Walker) (bool, []byte, error) {
	blocks, err := Unfence(source)
	if err != nil {
		return false, nil, err
	}

	changes := make(map[int]string)

	for i, block := range blocks {
		code := block.Code

		if err := walker(block); err != nil {
			return false, nil, err
		}

		if block.Code != code {
			changes[i] = block.Code
		}
	}

	if len(changes) == 0 {
		return false, nil, nil
	}

	plan, err := NewPlan(blocks, changes)
	if err != nil {
		return false, nil, err
	}

	result, err := Apply(source, plan)
	if err != nil {
		return false, nil, err
	}

	return true, result, nil
}
