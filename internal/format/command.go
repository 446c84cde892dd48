package format

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Command formats code by running a shell command. When Script contains the
// {} placeholder the code is written to a temporary file that the command
// rewrites in place; otherwise the code is piped to stdin and stdout is the
// result. {lang} expands to the block language.
type Command struct {
	Script string
	Dir    string
}

func (c *Command) Format(ctx context.Context, lang, code string) (string, error) {
	script := strings.ReplaceAll(c.Script, "{lang}", lang)

	if !strings.Contains(script, "{}") {
		var stdout, stderr bytes.Buffer

		if err := RunScript(ctx, script, c.Dir, strings.NewReader(code+"\n"), &stdout, &stderr); err != nil {
			return "", commandError(err, &stderr)
		}

		return finish(stdout.String()), nil
	}

	dir, err := os.MkdirTemp("", "mdpatch-fmt-")
	if err != nil {
		return "", err
	}

	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "block"+Extension(lang))
	if err := os.WriteFile(path, []byte(code+"\n"), 0o600); err != nil {
		return "", err
	}

	script = strings.ReplaceAll(script, "{}", Quote(path))

	var stderr bytes.Buffer

	if err := RunScript(ctx, script, c.workdir(dir), strings.NewReader(""), io.Discard, &stderr); err != nil {
		return "", commandError(err, &stderr)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return finish(string(out)), nil
}

func (c *Command) workdir(fallback string) string {
	if len(c.Dir) != 0 {
		return c.Dir
	}

	return fallback
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Status int
	Stderr string
}

func (e *ExitError) Error() string {
	if len(e.Stderr) == 0 {
		return fmt.Sprintf("command exited with %d", e.Status)
	}

	return fmt.Sprintf("command exited with %d: %s", e.Status, e.Stderr)
}

func commandError(err error, stderr *bytes.Buffer) error {
	if exit, ok := err.(*ExitError); ok { //nolint:errorlint
		exit.Stderr = strings.TrimSpace(stderr.String())
	}

	return err
}

// RunScript parses command as a shell script and runs it in dir with the mvdan.cc/sh
// interpreter. A non-zero exit status is returned as [*ExitError].
func RunScript(ctx context.Context, command, dir string, stdin io.Reader, stdout, stderr io.Writer) error {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return err
	}

	opts := []interp.RunnerOption{interp.StdIO(stdin, stdout, stderr)}
	if len(dir) != 0 {
		opts = append(opts, interp.Dir(dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return err
	}

	err = runner.Run(ctx, file)
	if status, ok := interp.IsExitStatus(err); ok {
		if status == 0 {
			return nil
		}

		return &ExitError{Status: int(status)}
	}

	return err
}

// Extension returns the file extension used for temporary copies of blocks
// in lang.
func Extension(lang string) string {
	if ext, ok := extensions[lang]; ok {
		return ext
	}

	if len(lang) > 0 {
		return "." + strings.ToLower(lang)
	}

	return ".txt"
}

var extensions = map[string]string{ //nolint:gochecknoglobals
	"javascript": ".js",
	"typescript": ".ts",
	"python":     ".py",
	"markdown":   ".md",
	"shell":      ".sh",
	"bash":       ".sh",
	"golang":     ".go",
	"ruby":       ".rb",
	"rust":       ".rs",
}

// Quote returns s as a single shell word.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
