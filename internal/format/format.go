// Package format provides code formatters for fenced code blocks and a driver
// that runs them over the blocks of a document.
package format

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupported is returned when no formatter handles a language.
var ErrUnsupported = errors.New("unsupported language")

// Formatter turns the content of a code block into its formatted form.
type Formatter interface {
	Format(ctx context.Context, lang, code string) (string, error)
}

// Func adapts a plain function to [Formatter].
type Func func(ctx context.Context, lang, code string) (string, error)

func (f Func) Format(ctx context.Context, lang, code string) (string, error) {
	return f(ctx, lang, code)
}

// Registry maps normalized language names to formatters.
type Registry map[string]Formatter

// Default returns a registry with the built-in formatters.
func Default() Registry {
	reg := Registry{
		"go":   Func(Go),
		"json": Func(JSON),
		"yaml": Func(YAML),
	}

	for _, lang := range []string{"sh", "bash", "shell", "mksh"} {
		reg[lang] = Func(Shell)
	}

	return reg
}

// Format dispatches to the formatter registered for lang.
func (r Registry) Format(ctx context.Context, lang, code string) (string, error) {
	f, ok := r[lang]
	if !ok || len(lang) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, lang)
	}

	return f.Format(ctx, lang, code)
}

// Langs returns the registered languages in sorted order.
func (r Registry) Langs() []string {
	langs := make([]string, 0, len(r))
	for lang := range r {
		langs = append(langs, lang)
	}

	sort.Strings(langs)

	return langs
}

// finish strips the final line ending a formatter appends, matching the way
// block content is extracted.
func finish(out string) string {
	return strings.TrimSuffix(out, "\n")
}
