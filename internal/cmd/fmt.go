package cmd

import (
	_ "embed"
	"errors"
	"os"

	"github.com/ezerfernandes/mdpatch/internal/format"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

//go:embed help/fmt.md
var fmtHelp string

var errUnformatted = errors.New("some code blocks are not formatted")

func fmtCmd(opts *options) *cobra.Command {
	var write, check bool

	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:   "fmt [flags] [filename...]",
		Short: "Format code blocks with the registered formatters",
		Long:  fmtHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{defaultSource}
			}

			warn := color.New(color.FgYellow)
			dirty := false

			for _, filename := range args {
				src, err := os.ReadFile(filename)
				if err != nil {
					return err
				}

				all, selected, err := blocks(src, opts)
				if err != nil {
					return err
				}

				res, err := format.Run(cmd.Context(), selected, opts.registry, opts.jobs)
				if err != nil {
					return err
				}

				for _, refused := range res.Refused {
					if !errors.Is(refused, format.ErrUnsupported) {
						opts.status("warning: %s: %v\n", filename, refused)
					}
				}

				result, err := patch(src, all, res.Replacements)
				if err != nil {
					return err
				}

				switch {
				case check:
					if len(res.Replacements) > 0 {
						dirty = true

						warn.Fprintf(cmd.ErrOrStderr(), "would reformat %s (%d blocks)\n", filename, len(res.Replacements))
					}
				case write:
					if len(res.Replacements) > 0 {
						opts.status("reformatted %s (%d blocks)\n", filename, len(res.Replacements))

						if err := os.WriteFile(filename, result, fileMode); err != nil {
							return err
						}
					}
				default:
					if _, err := cmd.OutOrStdout().Write(result); err != nil {
						return err
					}
				}
			}

			if dirty {
				return errUnformatted
			}

			return nil
		},

		DisableAutoGenTag: true,
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to the source file instead of stdout")
	cmd.Flags().BoolVar(&check, "check", false, "report files that would change and fail if any")
	jobsFlag(cmd, opts)

	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}
