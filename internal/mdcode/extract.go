package mdcode

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Extract returns the code blocks of doc in document order, with languages
// normalized by [DefaultLangs].
func Extract(doc *Document) Blocks {
	return ExtractWith(doc, DefaultLangs)
}

// ExtractWith is [Extract] with a custom language table.
//
// The tree is walked depth-first in pre-order, so blocks nested in lists or
// block quotes are numbered where they appear in the text. Fenced nodes
// without a resolvable position are skipped.
func ExtractWith(doc *Document, langs LangTable) Blocks {
	var blocks Blocks

	_ = ast.Walk(doc.Root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		f, ok := doc.fences[node]
		if !ok {
			return ast.WalkContinue, nil
		}

		blocks = append(blocks, doc.block(f, len(blocks), langs))

		return ast.WalkSkipChildren, nil
	})

	return blocks
}

func (d *Document) block(f *fence, index int, langs LangTable) *Block {
	label, meta := splitInfo(f.info)

	return &Block{
		Index: index,
		Lang:  langs.Normalize(label),
		Label: label,
		Meta:  meta,
		Code:  f.code,
		Span: Span{
			Start: d.lines.position(f.start),
			End:   d.lines.position(f.end),
		},
		FenceChar: f.char,
		FenceLen:  f.length,
		body:      f.body,
		closing:   f.closing,
		prefix:    f.prefix,
		eol:       f.eol,
		leads:     f.leads,
	}
}

// splitInfo separates the language label from the rest of an info string.
func splitInfo(info string) (string, string) {
	idx := strings.IndexAny(info, " \t")
	if idx < 0 {
		return info, ""
	}

	return info[:idx], strings.TrimLeft(info[idx:], " \t")
}
