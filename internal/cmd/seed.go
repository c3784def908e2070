package cmd

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/dendrascience/dataminer/util"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/korean"
)

// NewSeedCmd creates and returns the seed subcommand for the dataminer CLI.
// It generates a sample archive with archives nested inside it.
func NewSeedCmd(g *globals) *cobra.Command {
	var (
		outputPath string
		name       string
		depth      int
		images     int
		legacy     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a nested sample archive",
		Long: `Generate a sample ZIP archive for trying out and testing dataminer.

Every level holds a few PNG images, a notes directory with a text file and,
except for the last level, the archive of the next level. With --korean the
entry names include Hangul stored in EUC-KR without the UTF-8 flag, the way
older Korean archivers wrote them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 {
				return fmt.Errorf("--depth must be at least 1, got %d", depth)
			}
			if images < 0 {
				return fmt.Errorf("--images must not be negative, got %d", images)
			}
			path, err := runSeed(cmd.OutOrStdout(), outputPath, name, depth, images, legacy, verbose)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d levels, %d images per level)\n", path, depth, images)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "sample.zip", "File name of the generated archive")
	cmd.Flags().IntVarP(&depth, "depth", "d", 3, "Number of nested archive levels")
	cmd.Flags().IntVar(&images, "images", 3, "Number of images per level")
	cmd.Flags().BoolVar(&legacy, "korean", false, "Use Hangul entry names stored in EUC-KR")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("output")

	return cmd
}

// runSeed builds the levels innermost first, each archive going into the
// staging directory of the level above.
func runSeed(out io.Writer, outputPath, name string, depth, images int, legacy, verbose bool) (string, error) {
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return "", err
	}
	work, err := os.MkdirTemp("", "dataminer-seed-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(work)

	var opts util.CompressOptions
	if legacy {
		opts.LegacyNames = korean.EUCKR
	}

	inner := ""
	for level := depth; level >= 1; level-- {
		stage := filepath.Join(work, fmt.Sprintf("stage-%d", level))
		if err := seedLevel(stage, level, images, legacy); err != nil {
			return "", err
		}
		if inner != "" {
			if err := os.Rename(inner, filepath.Join(stage, filepath.Base(inner))); err != nil {
				return "", err
			}
		}

		archive := filepath.Join(work, fmt.Sprintf("level-%d.zip", level))
		if err := util.CompressDirectory(stage, archive, opts); err != nil {
			return "", fmt.Errorf("level %d: %w", level, err)
		}
		if verbose {
			fmt.Fprintf(out, "Created level %d/%d\n", depth-level+1, depth)
		}
		inner = archive
	}

	dest := filepath.Join(outputPath, name)
	if _, err := util.CopyToDir(inner, outputPath); err != nil {
		return "", err
	}
	if err := os.Rename(filepath.Join(outputPath, filepath.Base(inner)), dest); err != nil {
		return "", err
	}
	if verbose {
		hash, err := util.GetFileHash(dest)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(out, "SHA-256: %s\n", hash)
	}
	return dest, nil
}

func seedLevel(stage string, level, images int, legacy bool) error {
	notes := filepath.Join(stage, "notes")
	if err := os.MkdirAll(notes, 0o755); err != nil {
		return err
	}

	id := uuid.New()
	if err := os.WriteFile(filepath.Join(notes, id.String()+".txt"), []byte(id.String()+"\n"), 0o644); err != nil {
		return err
	}

	for i := 0; i < images; i++ {
		name := fmt.Sprintf("image-%d-%02d.png", level, i)
		if legacy {
			name = fmt.Sprintf("사진-%d-%02d.png", level, i)
		}
		// colors come from the level's uuid so levels are told apart at a glance
		c := color.NRGBA{R: id[i%16], G: id[(i+5)%16], B: id[(i+10)%16], A: 0xff}
		img := imaging.New(16+8*i, 16, c)
		if err := imaging.Save(img, filepath.Join(stage, name)); err != nil {
			return err
		}
	}
	return nil
}
