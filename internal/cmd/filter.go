package cmd

import (
	"fmt"

	"github.com/ezerfernandes/mdpatch/internal/mdcode"
	"github.com/gobwas/glob"
)

type filterFunc func(block *mdcode.Block) bool

// filter accepts a block when its language matches one of the lang patterns
// and every meta pattern matches the attribute of the same name. Patterns
// for languages are normalized through langs first, so "js" selects
// javascript blocks.
func filter(lang []string, meta map[string]string, langs mdcode.LangTable) (filterFunc, error) {
	langGlobs := make([]glob.Glob, 0, len(lang))

	for _, pattern := range lang {
		g, err := glob.Compile(langs.Normalize(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid language pattern %q: %w", pattern, err)
		}

		langGlobs = append(langGlobs, g)
	}

	metaGlobs := make(map[string]glob.Glob, len(meta))

	for key, pattern := range meta {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for %q: %w", key, err)
		}

		metaGlobs[key] = g
	}

	return func(block *mdcode.Block) bool {
		if !matchAny(langGlobs, block.Lang) {
			return false
		}

		if len(metaGlobs) == 0 {
			return true
		}

		attrs, err := block.Attrs()
		if err != nil {
			return false
		}

		for key, g := range metaGlobs {
			if !attrs.Has(key) || !g.Match(attrs.Get(key)) {
				return false
			}
		}

		return true
	}, nil
}

func matchAny(globs []glob.Glob, value string) bool {
	for _, g := range globs {
		if g.Match(value) {
			return true
		}
	}

	return false
}
