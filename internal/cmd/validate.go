package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dendrascience/dataminer/util"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates and returns the validate subcommand for the dataminer CLI.
// It checks a tree record against its invariants and against the disk.
func NewValidateCmd(g *globals) *cobra.Command {
	var (
		outputPath string
		inputPath  string
		treeFile   string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a tree.json against its invariants and the disk",
		Long: `Validate the tree record of an unpacked output directory.

This command checks the invariants of the record (directory root carrying the
hash, no archive nodes, child counts), then verifies that every recorded path
exists with the recorded type and that no archive was left unexpanded.
With --input it also checks that the record belongs to that input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("tree-file") {
				treeFile = g.cfg.TreeFile
			}
			return runValidate(cmd.OutOrStdout(), outputPath, treeFile, inputPath, g.cfg.HashAlgorithm, verbose)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "path", "p", "", "Path to the unpacked output directory (required)")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Also check the recorded hash against this input")
	cmd.Flags().StringVar(&treeFile, "tree-file", util.TreeFileName, "Name of the tree record inside the output directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("path")

	return cmd
}

func runValidate(out io.Writer, outputPath, treeFile, inputPath, hashAlgorithm string, verbose bool) error {
	treePath := filepath.Join(outputPath, treeFile)
	if verbose {
		fmt.Fprintf(out, "Validating %s\n", treePath)
	}

	tree, err := util.ReadTree(treePath)
	if err != nil {
		return err
	}

	problems := validateTree(tree, treePath)

	if inputPath != "" {
		alg, err := util.ParseDigestAlgorithm(hashAlgorithm)
		if err != nil {
			return err
		}
		sum, err := util.GetFileDigest(inputPath, alg)
		if err != nil {
			return err
		}
		if sum.Encoded() != tree.Hash {
			problems = append(problems, (&util.HashMismatchError{
				Path:     treePath,
				Stored:   tree.Hash,
				Expected: sum.Encoded(),
			}).Error())
		}
	}

	stats := tree.Stats()
	fmt.Fprintf(out, "\nValidation complete:\n")
	fmt.Fprintf(out, "  Nodes checked: %d\n", stats.Total())
	fmt.Fprintf(out, "  Total errors: %d\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(out, "  - %s\n", p)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %d problems in %s", util.ErrInvalidTree, len(problems), treePath)
	}
	return nil
}

// validateTree returns every problem found, not just the first.
func validateTree(tree *util.Node, treePath string) []string {
	var problems []string
	if err := util.ValidateTree(tree); err != nil {
		problems = append(problems, err.Error())
	}

	recorded := make(map[string]bool)
	tree.Walk(func(n *util.Node, _ int) bool {
		recorded[n.Path] = true
		info, err := os.Lstat(n.Path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", n.Path, err))
			return false
		}
		switch n.Type {
		case util.TypeDirectory:
			if !info.IsDir() {
				problems = append(problems, fmt.Sprintf("%s: recorded as a directory", n.Path))
			}
		case util.TypePNG:
			if got := util.Classify(n.Path); got != util.TypePNG {
				problems = append(problems, fmt.Sprintf("%s: recorded as PNG, found %s", n.Path, got))
			}
		case util.TypeUnknown:
			if info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
				problems = append(problems, fmt.Sprintf("%s: recorded as a file, found a directory", n.Path))
			}
		}
		return true
	})

	// anything on disk the record misses, and archives left behind
	err := filepath.WalkDir(tree.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == treePath || (filepath.Dir(path) == tree.Path && util.IsCacheTemp(d.Name())) {
			return nil
		}
		if d.Type()&os.ModeSymlink == 0 && util.Classify(path) == util.TypeZip {
			problems = append(problems, fmt.Sprintf("%s: archive left unexpanded", path))
		}
		if !recorded[path] {
			problems = append(problems, fmt.Sprintf("%s: not in the tree", path))
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		problems = append(problems, err.Error())
	}
	return problems
}
