package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dendrascience/dataminer/util"
	"github.com/spf13/cobra"
)

// NewCountCmd creates and returns the count subcommand for the dataminer CLI.
// It summarizes a recorded tree, or counts files on disk with --disk.
func NewCountCmd(g *globals) *cobra.Command {
	var (
		path         string
		disk         bool
		showProgress bool
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "count [PATH]",
		Short: "Summarize a tree or count files in a directory",
		Long: `Summarize the tree recorded in PATH/tree.json by node type.

With --disk the tree record is ignored and the regular files below PATH are
counted instead, which is useful for comparing a record with what is on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				path = args[0]
			}
			if disk {
				return runCountDisk(cmd.OutOrStdout(), path, limit, showProgress)
			}
			return runCountTree(cmd.OutOrStdout(), filepath.Join(path, g.cfg.TreeFile))
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "./", "Path to count in")
	cmd.Flags().BoolVar(&disk, "disk", false, "Count files on disk instead of reading the tree")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show progress every 10,000 files (with --disk)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop counting after this many files (with --disk, 0 for no limit)")

	return cmd
}

func runCountTree(out io.Writer, treePath string) error {
	tree, err := util.ReadTree(treePath)
	if err != nil {
		return err
	}
	stats := tree.Stats()
	fmt.Fprintf(out, "Tree: %s\n", treePath)
	fmt.Fprintf(out, "  Directories: %d\n", stats.Directories)
	fmt.Fprintf(out, "  Images: %d\n", stats.Images)
	fmt.Fprintf(out, "  Other files: %d\n", stats.Unknown)
	fmt.Fprintf(out, "  Depth: %d\n", stats.MaxDepth)
	fmt.Fprintf(out, "Total nodes: %d\n", stats.Total())
	return nil
}

func runCountDisk(out io.Writer, path string, limit int, showProgress bool) error {
	var progress func(int)
	if showProgress {
		progress = func(count int) {
			if count%10000 == 0 {
				fmt.Fprintf(out, "Progress: %d files counted\n", count)
			}
		}
	}

	count, overage, err := util.CountFilesFunc(path, limit, progress)
	if err != nil {
		return fmt.Errorf("counting files: %w", err)
	}
	if overage {
		fmt.Fprintf(out, "Total files: more than %d\n", limit)
		return nil
	}
	fmt.Fprintf(out, "Total files: %d\n", count)
	return nil
}
