// Package cmd implements the mdpatch command line.
package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ezerfernandes/mdpatch/internal/config"
	"github.com/ezerfernandes/mdpatch/internal/format"
	"github.com/ezerfernandes/mdpatch/internal/mdcode"
	"github.com/spf13/cobra"
)

//go:embed help/root.md
var rootHelp string

const (
	fileMode = 0o600
	dirMode  = 0o750

	defaultSource = "README.md"

	metaFile    = "file"
	metaRegion  = "region"
	metaOutline = "outline"
)

type statusFunc func(format string, args ...interface{})

type options struct {
	lang   []string
	meta   map[string]string
	quiet  bool
	config string
	dir    string
	keep   bool
	jobs   int

	filter   filterFunc
	status   statusFunc
	langs    mdcode.LangTable
	registry format.Registry
}

func (opts *options) createStatus(out io.Writer) {
	if opts.quiet {
		opts.status = func(string, ...interface{}) {}

		return
	}

	opts.status = func(format string, args ...interface{}) {
		fmt.Fprintf(out, format, args...)
	}
}

func (opts *options) setup(cmd *cobra.Command) error {
	opts.createStatus(cmd.ErrOrStderr())

	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}

	if opts.langs, err = cfg.Langs(); err != nil {
		return err
	}

	opts.registry = cfg.Registry(opts.langs)

	opts.filter, err = filter(opts.lang, opts.meta, opts.langs)

	return err
}

func rootCmd() *cobra.Command {
	opts := &options{meta: map[string]string{}}

	root := &cobra.Command{ //nolint:exhaustruct
		Use:           "mdpatch",
		Short:         "Rewrite fenced code blocks in Markdown without touching anything else",
		Long:          rootHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},

		DisableAutoGenTag: true,
	}

	flags := root.PersistentFlags()
	flags.StringSliceVarP(&opts.lang, "lang", "l", []string{"*"}, "language glob patterns of the blocks to process")
	flags.StringToStringVarP(&opts.meta, "meta", "m", nil, "block attribute filters as key=glob pairs")
	flags.StringVarP(&opts.config, "config", "c", "", "configuration file (default "+config.DefaultFile+" if present)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress status messages")

	root.AddCommand(listCmd(opts), fmtCmd(opts), execCmd(opts), updateCmd(opts))

	return root
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return root.ExecuteContext(ctx)
}

// Execute runs the command line and exits the process on failure.
func Execute(args []string, stdout, stderr io.Writer) {
	if err := run(context.Background(), args, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "mdpatch:", err)

		if errors.Is(err, errUnformatted) {
			os.Exit(2) //nolint:gomnd
		}

		os.Exit(1)
	}
}

func dirFlag(cmd *cobra.Command, opts *options, usage string) {
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", usage)
}

func jobsFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "number of blocks formatted concurrently")
}

func source(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return defaultSource
}
