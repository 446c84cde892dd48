package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezerfernandes/mdpatch/internal/format"
	"github.com/ezerfernandes/mdpatch/internal/mdcode"
	"github.com/spf13/cobra"
)

//go:embed help/exec.md
var execHelp string

type blockInfo struct {
	block    *mdcode.Block
	file     string
	tempPath string
}

type execRun struct {
	opts   *options
	script string
	dir    string
	update bool
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func execCmd(opts *options) *cobra.Command {
	var (
		update bool
		batch  bool
	)

	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "exec [flags] [filename] [-- command]",
		Aliases: []string{"e"},
		Short:   "Execute shell commands on individual code blocks",
		Long:    execHelp,
		Args:    checkargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scr, args := script(cmd, args)
			if len(scr) == 0 {
				return errMissingCommand
			}

			if !cmd.Flag("dir").Changed {
				dir, err := os.MkdirTemp(".", "mdpatch-exec-")
				if err != nil {
					return err
				}

				opts.dir = dir

				if !opts.keep {
					defer os.RemoveAll(dir)
				}
			}

			absDir, err := filepath.Abs(opts.dir)
			if err != nil {
				return err
			}

			ex := &execRun{
				opts:   opts,
				script: scr,
				dir:    absDir,
				update: update,
				stdin:  cmd.InOrStdin(),
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
			}

			return ex.file(cmd.Context(), source(args), batch)
		},

		DisableAutoGenTag: true,
	}

	dirFlag(cmd, opts, "directory for the block files (default: a temporary directory)")

	cmd.Flags().BoolVar(&update, "update", false, "update markdown code blocks with modified files")
	cmd.Flags().BoolVar(&batch, "batch", false, "run command once for all files instead of once per block")
	cmd.Flags().BoolVarP(&opts.keep, "keep", "k", false, "don't remove temporary directory")

	return cmd
}

func (r *execRun) file(ctx context.Context, filename string, batch bool) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	all, selected, err := blocks(src, r.opts)
	if err != nil {
		return err
	}

	var entries []*blockInfo

	for _, block := range selected {
		if info := writeBlockToTemp(block, r.dir, r.opts.status); info != nil {
			entries = append(entries, info)
		}
	}

	if len(entries) == 0 {
		return nil
	}

	var (
		changes map[int]string
		runErr  error
	)

	if batch {
		changes, runErr = r.batch(ctx, entries)
	} else {
		changes, runErr = r.perBlock(ctx, filename, entries)
	}

	if r.update {
		if err := patchFile(filename, src, all, changes); err != nil {
			return err
		}
	}

	return runErr
}

func (r *execRun) perBlock(ctx context.Context, filename string, entries []*blockInfo) (map[int]string, error) {
	changes := make(map[int]string)
	failures := 0

	for _, info := range entries {
		block := info.block
		first, last := block.Lines()

		r.opts.status("--- block %d (%s%s) : L%d-%d : %s ---\n", block.Index, block.Lang, fileLabel(info.file), first, last, filepath.Base(filename))

		err := format.RunScript(ctx, expandCommand(r.script, info, r.dir), r.dir, r.stdin, r.stdout, r.stderr)

		var exit *format.ExitError
		if errors.As(err, &exit) {
			failures++

			if r.update {
				r.opts.status("warning: block %d exited with %d, skipping update\n", block.Index, exit.Status)
			}

			continue
		}

		if err != nil {
			return nil, err
		}

		if r.update {
			if err := readBack(info, changes); err != nil {
				return nil, err
			}
		}
	}

	if failures > 0 {
		return changes, fmt.Errorf("%d block(s) failed", failures)
	}

	return changes, nil
}

func (r *execRun) batch(ctx context.Context, entries []*blockInfo) (map[int]string, error) {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = format.Quote(e.tempPath)
	}

	expanded := strings.ReplaceAll(r.script, "{}", strings.Join(paths, " "))
	expanded = strings.ReplaceAll(expanded, "{dir}", format.Quote(r.dir))

	r.opts.status("--- batch (%d blocks) ---\n", len(entries))

	err := format.RunScript(ctx, expanded, r.dir, r.stdin, r.stdout, r.stderr)

	var exit *format.ExitError
	if errors.As(err, &exit) {
		if r.update {
			r.opts.status("warning: command exited with %d, skipping update\n", exit.Status)
		}

		return nil, err
	}

	if err != nil {
		return nil, err
	}

	changes := make(map[int]string)

	if r.update {
		for _, info := range entries {
			if err := readBack(info, changes); err != nil {
				return nil, err
			}
		}
	}

	return changes, nil
}

func readBack(info *blockInfo, changes map[int]string) error {
	data, err := os.ReadFile(info.tempPath)
	if err != nil {
		return err
	}

	if code := strings.TrimSuffix(string(data), "\n"); code != info.block.Code {
		changes[info.block.Index] = code
	}

	return nil
}

func writeBlockToTemp(block *mdcode.Block, dir string, status statusFunc) *blockInfo {
	attrs, _ := block.Attrs()

	info := &blockInfo{
		block: block,
		file:  attrs.Get(metaFile),
	}

	info.tempPath = filepath.Join(dir, tempFilename(block, info.file))

	if err := os.MkdirAll(filepath.Dir(info.tempPath), dirMode); err != nil {
		status("warning: failed to create directory for block %d: %v\n", block.Index, err)

		return nil
	}

	data := block.Code
	if len(data) > 0 {
		data += "\n"
	}

	if err := os.WriteFile(info.tempPath, []byte(data), fileMode); err != nil {
		status("warning: failed to write block %d: %v\n", block.Index, err)

		return nil
	}

	return info
}

func tempFilename(block *mdcode.Block, file string) string {
	if len(file) != 0 {
		return fmt.Sprintf("%d_%s", block.Index, filepath.Base(filepath.FromSlash(file)))
	}

	return fmt.Sprintf("block_%d%s", block.Index, format.Extension(block.Lang))
}

func expandCommand(scr string, info *blockInfo, dir string) string {
	expanded := strings.ReplaceAll(scr, "{}", format.Quote(info.tempPath))
	expanded = strings.ReplaceAll(expanded, "{lang}", info.block.Lang)
	expanded = strings.ReplaceAll(expanded, "{index}", fmt.Sprint(info.block.Index))
	expanded = strings.ReplaceAll(expanded, "{dir}", format.Quote(dir))

	return expanded
}

func fileLabel(file string) string {
	if len(file) != 0 {
		return ", file=" + file
	}

	return ""
}

// checkargs allows at most one filename before the "--" separator.
func checkargs(cmd *cobra.Command, args []string) error {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		dash = len(args)
	}

	if dash > 1 {
		return fmt.Errorf("accepts at most 1 filename, received %d", dash)
	}

	return nil
}

// script returns the command after "--" and the arguments before it.
func script(cmd *cobra.Command, args []string) (string, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return "", args
	}

	return strings.Join(args[dash:], " "), args[:dash]
}

var errMissingCommand = errors.New("command is required after '--'")
