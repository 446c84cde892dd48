package cmd

import (
	"os"

	"github.com/ezerfernandes/mdpatch/internal/mdcode"
)

// blocks parses source and returns every block along with the ones the
// filter selects. Plans are always built against the full list so indexes
// stay those of the document.
func blocks(source []byte, opts *options) (mdcode.Blocks, mdcode.Blocks, error) {
	doc, err := mdcode.Parse(source)
	if err != nil {
		return nil, nil, err
	}

	all := mdcode.ExtractWith(doc, opts.langs)

	var selected mdcode.Blocks

	for _, block := range all {
		if opts.filter(block) {
			selected = append(selected, block)
		}
	}

	return all, selected, nil
}

func patch(source []byte, all mdcode.Blocks, changes map[int]string) ([]byte, error) {
	plan, err := mdcode.NewPlan(all, changes)
	if err != nil {
		return nil, err
	}

	return mdcode.Apply(source, plan)
}

func patchFile(filename string, source []byte, all mdcode.Blocks, changes map[int]string) error {
	if len(changes) == 0 {
		return nil
	}

	result, err := patch(source, all, changes)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, result, fileMode)
}
