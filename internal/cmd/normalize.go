package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dendrascience/dataminer/internal/normalize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewNormalizeCmd creates and returns the normalize subcommand for the dataminer CLI.
func NewNormalizeCmd(g *globals) *cobra.Command {
	var (
		outputPath string
		destPath   string
		width      int
		height     int
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Resize every image recorded in a tree to one size",
		Long: `Read the tree.json of an unpacked output directory and write a resized copy
of every PNG it lists into DEST, keeping the directory layout.

The unpacked data is not modified. A width or height of 0 keeps the aspect
ratio along that axis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if cmd.Flags().Changed("output") {
				cfg.Normalize.Output = destPath
			}
			if cmd.Flags().Changed("width") {
				cfg.Normalize.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Normalize.Height = height
			}
			if cfg.Normalize.Output == "" {
				return fmt.Errorf(`required flag(s) "output" not set`)
			}
			return runNormalize(cmd.OutOrStdout(), g, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "path", "p", "", "Path to the unpacked output directory (required)")
	cmd.Flags().StringVarP(&destPath, "output", "o", "", "Directory for the resized images")
	cmd.Flags().IntVar(&width, "width", 256, "Target width in pixels")
	cmd.Flags().IntVar(&height, "height", 256, "Target height in pixels")

	cmd.MarkFlagRequired("path")

	return cmd
}

func runNormalize(out io.Writer, g *globals, outputPath string) error {
	cfg := g.cfg
	dest := cfg.Normalize.Output
	if pathsOverlap(outputPath, dest) {
		return fmt.Errorf("destination %s overlaps the unpacked data in %s", dest, outputPath)
	}

	n, err := normalize.New(cfg.Normalize.Width, cfg.Normalize.Height, g.log)
	if err != nil {
		return err
	}
	res, err := n.Tree(filepath.Join(outputPath, cfg.TreeFile), dest)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Normalized %d images to %dx%d in %s\n", res.Images, cfg.Normalize.Width, cfg.Normalize.Height, dest)
	if len(res.Failed) > 0 {
		fmt.Fprintf(out, "  Failed: %d\n", len(res.Failed))
		for _, p := range res.Failed {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		g.log.Warn("some images could not be decoded", zap.Int("failed", len(res.Failed)))
	}
	return nil
}
