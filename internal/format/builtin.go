package format

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	gofmt "go/format"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/syntax"
)

// Go formats Go source the way gofmt does.
func Go(_ context.Context, _, code string) (string, error) {
	out, err := gofmt.Source([]byte(code))
	if err != nil {
		return "", err
	}

	return finish(string(out)), nil
}

// JSON re-indents a JSON document with two spaces.
func JSON(_ context.Context, _, code string) (string, error) {
	var buf bytes.Buffer

	if err := json.Indent(&buf, []byte(strings.TrimSpace(code)), "", "  "); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// YAML re-encodes every document of a YAML stream with two-space
// indentation. Comments survive through the node tree.
func YAML(_ context.Context, _, code string) (string, error) {
	dec := yaml.NewDecoder(strings.NewReader(code))

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	for {
		var node yaml.Node

		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", err
		}

		if err := enc.Encode(&node); err != nil {
			return "", err
		}
	}

	if err := enc.Close(); err != nil {
		return "", err
	}

	return finish(buf.String()), nil
}

// Shell formats shell scripts with the shfmt printer, in the dialect named by
// lang.
func Shell(_ context.Context, lang, code string) (string, error) {
	variant := syntax.LangBash

	switch lang {
	case "sh":
		variant = syntax.LangPOSIX
	case "mksh":
		variant = syntax.LangMirBSDKorn
	}

	file, err := syntax.NewParser(syntax.KeepComments(true), syntax.Variant(variant)).Parse(strings.NewReader(code), "")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	if err := syntax.NewPrinter(syntax.Indent(0)).Print(&buf, file); err != nil {
		return "", err
	}

	return finish(buf.String()), nil
}
