package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

func listCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "list [flags] [filename]",
		Aliases: []string{"ls"},
		Short:   "List fenced code blocks",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(source(args))
			if err != nil {
				return err
			}

			_, selected, err := blocks(src, opts)
			if err != nil {
				return err
			}

			tbl := table.New("#", "LANG", "LABEL", "FENCE", "LINES", "META").
				WithWriter(cmd.OutOrStdout()).
				WithHeaderFormatter(color.New(color.Bold).SprintfFunc())

			for _, block := range selected {
				first, last := block.Lines()
				tbl.AddRow(block.Index, block.Lang, block.Label, block.Fence(), fmt.Sprintf("%d-%d", first, last), block.Meta)
			}

			tbl.Print()

			return nil
		},

		DisableAutoGenTag: true,
	}

	return cmd
}
