package cmd

import (
	_ "embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ezerfernandes/mdpatch/internal/mdcode"
	"github.com/ezerfernandes/mdpatch/internal/region"
	"github.com/spf13/cobra"
)

//go:embed help/update.md
var updateHelp string

func updateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "update [flags] [filename]",
		Aliases: []string{"u"},
		Short:   "Update code blocks from the files they reference",
		Long:    updateHelp,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := source(args)

			base := opts.dir
			if !cmd.Flag("dir").Changed {
				base = filepath.Dir(filename)
			}

			src, err := os.ReadFile(filename)
			if err != nil {
				return err
			}

			all, selected, err := blocks(src, opts)
			if err != nil {
				return err
			}

			changes := updateBlocks(os.DirFS(base), selected, opts.status)
			if len(changes) > 0 {
				opts.status("updated %d block(s) in %s\n", len(changes), filename)
			}

			return patchFile(filename, src, all, changes)
		},

		DisableAutoGenTag: true,
	}

	dirFlag(cmd, opts, "base directory of referenced files (default: the markdown file's directory)")

	return cmd
}

// updateBlocks reads the file named by each block's file attribute from fsys,
// narrowed to the region attribute when present, and returns the blocks whose
// content differs. Blocks that cannot be resolved are reported and skipped.
func updateBlocks(fsys fs.FS, selected mdcode.Blocks, status statusFunc) map[int]string {
	changes := make(map[int]string)

	for _, block := range selected {
		attrs, err := block.Attrs()
		if err != nil {
			status("warning: block %d: %v\n", block.Index, err)

			continue
		}

		file := attrs.Get(metaFile)
		if len(file) == 0 {
			continue
		}

		name := path.Clean(filepath.ToSlash(file))
		if !fs.ValidPath(name) {
			status("warning: block %d: invalid file %q\n", block.Index, file)

			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			status("warning: block %d: %v\n", block.Index, err)

			continue
		}

		if section := attrs.Get(metaRegion); len(section) != 0 {
			body, found, err := region.Read(data, section)
			if err != nil || !found {
				status("warning: block %d: region %q not found in %s\n", block.Index, section, file)

				continue
			}

			data = body
		}

		if outline, _ := strconv.ParseBool(attrs.Get(metaOutline)); outline {
			if data, _, err = region.Outline(data); err != nil {
				status("warning: block %d: %v\n", block.Index, err)

				continue
			}
		}

		if code := strings.TrimSuffix(string(data), "\n"); code != block.Code {
			changes[block.Index] = code
		}
	}

	return changes
}
