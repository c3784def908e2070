package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dendrascience/dataminer/internal/config"
	"github.com/dendrascience/dataminer/internal/logging"
	"github.com/dendrascience/dataminer/internal/metrics"
	"github.com/dendrascience/dataminer/unpacker"
	"github.com/dendrascience/dataminer/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// unpackFlags are shared by unpack and watch. Values only override the
// config file when the flag was given.
type unpackFlags struct {
	input            string
	output           string
	force            bool
	clean            bool
	maxDepth         int
	maxBytes         int64
	encoding         string
	encodingFallback string
	hash             string
	treeFile         string
	metricsFile      string
}

func (f *unpackFlags) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&f.input, "input", "i", "", "Path to the input ZIP archive (required)")
	flags.StringVarP(&f.output, "output", "o", "", "Path to the output directory (required)")
	flags.BoolVar(&f.force, "force", false, "Rebuild when tree.json belongs to a different input")
	flags.BoolVar(&f.clean, "clean", false, "Empty the output directory before rebuilding")
	flags.IntVar(&f.maxDepth, "max-depth", unpacker.DefaultMaxArchiveDepth, "Maximum archive nesting depth (0 for no limit)")
	flags.Int64Var(&f.maxBytes, "max-bytes", unpacker.DefaultMaxExpandedBytes, "Maximum uncompressed bytes per run (0 for no limit)")
	flags.StringVar(&f.encoding, "encoding", util.DefaultNameEncoding, "Encoding of entry names without the UTF-8 flag")
	flags.StringVar(&f.encodingFallback, "encoding-fallback", string(util.FallbackFail), "Undecodable entry names: fail, raw or skip")
	flags.StringVar(&f.hash, "hash", "sha256", "Content digest: sha256, sha384 or sha512")
	flags.StringVar(&f.treeFile, "tree-file", util.TreeFileName, "Name of the tree record inside the output directory")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
}

func (f *unpackFlags) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("input") {
		cfg.Input = f.input
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("force") {
		cfg.Force = f.force
	}
	if flags.Changed("clean") {
		cfg.Clean = f.clean
	}
	if flags.Changed("max-depth") {
		cfg.MaxArchiveDepth = f.maxDepth
	}
	if flags.Changed("max-bytes") {
		cfg.MaxExpandedBytes = f.maxBytes
	}
	if flags.Changed("encoding") {
		cfg.FilenameEncoding = f.encoding
	}
	if flags.Changed("encoding-fallback") {
		cfg.EncodingFallback = f.encodingFallback
	}
	if flags.Changed("hash") {
		cfg.HashAlgorithm = f.hash
	}
	if flags.Changed("tree-file") {
		cfg.TreeFile = f.treeFile
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
}

// NewUnpackCmd creates and returns the unpack subcommand for the dataminer CLI.
func NewUnpackCmd(g *globals) *cobra.Command {
	var (
		flags     unpackFlags
		printTree bool
	)

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Unpack an archive and every archive nested inside it",
		Long: `Unpack a ZIP archive into an output directory, expanding nested archives
until none are left, and record the result in tree.json.

When tree.json already describes the same input (same content hash) the
recorded tree is used and nothing on disk changes. A tree.json written for a
different input is left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd.Flags(), g.cfg)
			return runUnpack(cmd.OutOrStdout(), g, printTree)
		},
	}

	flags.bind(cmd.Flags())
	cmd.Flags().BoolVar(&printTree, "print", false, "Print the tree as JSON")

	return cmd
}

// newUnpacker builds an Unpacker from cfg.
func newUnpacker(cfg *config.Config, log *zap.Logger) (*unpacker.Unpacker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	alg, err := util.ParseDigestAlgorithm(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	fallback, err := util.ParseEncodingFallback(cfg.EncodingFallback)
	if err != nil {
		return nil, err
	}
	names, err := util.NewNameDecoder(cfg.FilenameEncoding, fallback)
	if err != nil {
		return nil, err
	}
	return unpacker.New(
		unpacker.WithTreeFile(cfg.TreeFile),
		unpacker.WithDigest(alg),
		unpacker.WithNameDecoder(names),
		unpacker.WithMaxArchiveDepth(cfg.MaxArchiveDepth),
		unpacker.WithMaxExpandedBytes(cfg.MaxExpandedBytes),
		unpacker.WithForce(cfg.Force),
		unpacker.WithClean(cfg.Clean),
		unpacker.WithLogger(log),
	)
}

func requireInputOutput(cfg *config.Config) error {
	var missing []string
	if cfg.Input == "" {
		missing = append(missing, "input")
	}
	if cfg.Output == "" {
		missing = append(missing, "output")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required flag(s) %s not set", `"`+strings.Join(missing, `", "`)+`"`)
	}
	return nil
}

func runUnpack(out io.Writer, g *globals, printTree bool) error {
	cfg := g.cfg
	if err := requireInputOutput(cfg); err != nil {
		return err
	}

	log, _ := logging.WithRunID(g.log)
	u, err := newUnpacker(cfg, log)
	if err != nil {
		return err
	}

	rec := metrics.New()
	res, err := unpackOnce(u, cfg, rec)
	if err != nil {
		return err
	}

	if printTree {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(res.Tree)
	}
	printResult(out, cfg, res)
	return nil
}

// unpackOnce runs u and records the outcome, writing the metrics textfile
// when one is configured.
func unpackOnce(u *unpacker.Unpacker, cfg *config.Config, rec *metrics.Recorder) (unpacker.Result, error) {
	res, runErr := u.Run(cfg.Input, cfg.Output)
	if runErr != nil {
		rec.ObserveError(res.Duration.Seconds())
	} else {
		rec.ObserveRun(metrics.Run{
			Cached:   res.Cached,
			Archives: res.Archives,
			Bytes:    res.Bytes,
			Stats:    res.Stats,
			Seconds:  res.Duration.Seconds(),
		})
	}
	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			return res, errors.Join(runErr, fmt.Errorf("writing metrics: %w", err))
		}
	}
	return res, runErr
}

func printResult(out io.Writer, cfg *config.Config, res unpacker.Result) {
	treePath := filepath.Join(cfg.Output, cfg.TreeFile)
	if res.Cached {
		fmt.Fprintf(out, "Up to date: %s already describes %s\n", treePath, cfg.Input)
	} else {
		fmt.Fprintf(out, "Unpacked %s into %s\n", cfg.Input, cfg.Output)
		fmt.Fprintf(out, "  Archives extracted: %d\n", res.Archives)
		fmt.Fprintf(out, "  Files written: %d\n", res.Files)
		fmt.Fprintf(out, "  Bytes written: %d\n", res.Bytes)
	}
	fmt.Fprintf(out, "  Directories: %d\n", res.Stats.Directories)
	fmt.Fprintf(out, "  Images: %d\n", res.Stats.Images)
	fmt.Fprintf(out, "  Other files: %d\n", res.Stats.Unknown)
	fmt.Fprintf(out, "  Hash: %s\n", res.Tree.Hash)
}
