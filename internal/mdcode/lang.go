package mdcode

import (
	"fmt"
	"strings"
)

// LangTable maps lower-case fence labels to canonical language names.
// Canonical names are lower-case and never appear as keys, which keeps
// normalization idempotent.
type LangTable map[string]string

// DefaultLangs is the alias table used by [Extract] and [NormalizeLang].
var DefaultLangs = LangTable{ //nolint:gochecknoglobals
	"js":  "javascript",
	"jsx": "javascript",
	"ts":  "typescript",
	"tsx": "typescript",
	"yml": "yaml",
	"md":  "markdown",
}

// Normalize maps a raw fence label to its canonical language. Empty labels
// stay empty; labels without an alias are lower-cased.
func (t LangTable) Normalize(label string) string {
	label = strings.TrimSpace(label)
	if len(label) == 0 {
		return ""
	}

	lower := strings.ToLower(label)
	if canonical, ok := t[lower]; ok {
		return canonical
	}

	return lower
}

// With returns a copy of the table extended with aliases. An alias whose
// target is itself an alias is rejected.
func (t LangTable) With(aliases map[string]string) (LangTable, error) {
	merged := make(LangTable, len(t)+len(aliases))

	for alias, canonical := range t {
		merged[alias] = canonical
	}

	for alias, canonical := range aliases {
		alias, canonical = strings.ToLower(strings.TrimSpace(alias)), strings.ToLower(strings.TrimSpace(canonical))
		if len(alias) == 0 || len(canonical) == 0 {
			return nil, fmt.Errorf("empty language alias %q = %q", alias, canonical)
		}

		merged[alias] = canonical
	}

	for alias, canonical := range merged {
		if _, chained := merged[canonical]; chained && canonical != alias {
			return nil, fmt.Errorf("language alias %q points to alias %q", alias, canonical)
		}
	}

	return merged, nil
}

// NormalizeLang normalizes label with [DefaultLangs].
func NormalizeLang(label string) string {
	return DefaultLangs.Normalize(label)
}
