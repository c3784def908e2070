package cmd

import (
	"github.com/dendrascience/dataminer/internal/config"
	"github.com/dendrascience/dataminer/internal/logging"
	"github.com/dendrascience/dataminer/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globals carries what the root command resolves before any subcommand runs.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCmd creates and returns the root cobra command for the dataminer CLI.
// It sets up all subcommands, command groups, and the shared config and logger.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "dataminer",
		Short: "dataminer - recursive ZIP unpacker with a content-addressed tree cache",
		Long: `dataminer unpacks a ZIP archive, and every archive nested inside it, into an
output directory and records the resulting layout in tree.json.

The record is keyed by the content hash of the input, so unpacking the same
archive again returns the recorded tree without touching the disk.

Use subcommands to perform different operations:
  - unpack: Unpack an archive and write its tree
  - watch: Unpack again whenever the archive changes
  - validate: Check a tree.json against its invariants and the disk
  - count: Summarize a tree or count files on disk
  - normalize: Resize every image of a tree to one size
  - seed: Generate a nested sample archive
  - version: Print build information`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (.yaml, .ini or .json); defaults to ./dataminer.yaml if present")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: console or json")

	groupUnpacking := "unpacking"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUnpacking,
		Title: "Unpacking",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	unpackCmd := NewUnpackCmd(g)
	watchCmd := NewWatchCmd(g)
	validateCmd := NewValidateCmd(g)
	countCmd := NewCountCmd(g)
	normalizeCmd := NewNormalizeCmd(g)
	seedCmd := NewSeedCmd(g)
	versionCmd := NewVersionCmd()

	unpackCmd.GroupID = groupUnpacking
	watchCmd.GroupID = groupUnpacking
	validateCmd.GroupID = groupUtilities
	countCmd.GroupID = groupUtilities
	normalizeCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities
	versionCmd.GroupID = groupUtilities

	rootCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func (g *globals) init(cmd *cobra.Command) error {
	path := g.configPath
	if path == "" {
		path = config.Find()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	}); err != nil {
		return err
	}

	g.cfg = cfg
	g.log = logging.L()
	if src := cfg.Source(); src != "" {
		g.log.Debug("loaded config", zap.String("path", src))
	}
	return nil
}
