// Package config loads the optional mdpatch configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ezerfernandes/mdpatch/internal/format"
	"github.com/ezerfernandes/mdpatch/internal/mdcode"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = ".mdpatch.toml"

// Config is the decoded configuration file.
type Config struct {
	// Alias adds fence labels to the language table, e.g. golang = "go".
	Alias map[string]string `toml:"alias"`
	// Formatters maps languages to shell commands. A command containing {}
	// edits a temporary file in place; otherwise it filters stdin to stdout.
	Formatters map[string]string `toml:"formatters"`
}

// Load reads the configuration at path. With an empty path it reads
// DefaultFile and treats its absence as an empty configuration.
func Load(path string) (*Config, error) {
	optional := len(path) == 0
	if optional {
		path = DefaultFile
	}

	cfg := new(Config)

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}

		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// Langs returns the default language table extended with the aliases.
func (c *Config) Langs() (mdcode.LangTable, error) {
	return mdcode.DefaultLangs.With(c.Alias)
}

// Registry returns the built-in formatters overlaid with the configured
// commands, keyed by normalized language.
func (c *Config) Registry(langs mdcode.LangTable) format.Registry {
	reg := format.Default()

	for lang, script := range c.Formatters {
		reg[langs.Normalize(lang)] = &format.Command{Script: script}
	}

	return reg
}
