package mdcode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/shlex"
)

// Attrs holds key/value attributes written in a fenced code block's meta
// string, such as `file=main.go region=setup`.
type Attrs map[string]interface{}

// Get returns the attribute as a string, or "" when it is not set.
func (a Attrs) Get(name string) string {
	value, ok := a[name]
	if !ok {
		return ""
	}

	if s, isString := value.(string); isString {
		return s
	}

	return fmt.Sprint(value)
}

// Has reports whether the attribute is set.
func (a Attrs) Has(name string) bool {
	_, ok := a[name]

	return ok
}

var (
	reJSONObject = regexp.MustCompile(`^\s*{\s*["}]`)
	reBraced     = regexp.MustCompile(`^\s*{(.*)}\s*$`)
)

// parseAttrs accepts a JSON object, a braced word list ({a=1 b=2}) or plain
// shell words. Words without '=' carry no value and are dropped.
func parseAttrs(meta []byte) (Attrs, error) {
	attrs := make(Attrs)

	if len(strings.TrimSpace(string(meta))) == 0 {
		return attrs, nil
	}

	if reJSONObject.Match(meta) {
		if err := json.Unmarshal(meta, &attrs); err != nil {
			return nil, fmt.Errorf("invalid block attributes: %w", err)
		}

		return attrs, nil
	}

	if m := reBraced.FindSubmatch(meta); m != nil {
		meta = m[1]
	}

	words, err := shlex.Split(string(meta))
	if err != nil {
		return nil, fmt.Errorf("invalid block attributes: %w", err)
	}

	for _, word := range words {
		if key, value, found := strings.Cut(word, "="); found && len(key) > 0 {
			attrs[key] = value
		}
	}

	return attrs, nil
}
