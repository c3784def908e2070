package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dendrascience/dataminer/internal/logging"
	"github.com/dendrascience/dataminer/internal/metrics"
	"github.com/dendrascience/dataminer/internal/watcher"
	"github.com/dendrascience/dataminer/util"
	"github.com/dendrascience/dataminer/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewWatchCmd creates and returns the watch subcommand for the dataminer CLI.
func NewWatchCmd(g *globals) *cobra.Command {
	var (
		flags    unpackFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Unpack an archive and unpack it again whenever it changes",
		Long: `Unpack INPUT into OUTPUT, then keep watching INPUT and unpack it again each
time it is rewritten, until interrupted.

The first run honours --force and --clean like unpack does, so a tree built
from another input is left alone. Once this watcher has written OUTPUT, a
changed input rebuilds it from scratch, but only while the recorded tree is
still the one this watcher produced. Failed runs are logged and watching
continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd.Flags(), g.cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, g, debounce)
		},
	}

	flags.bind(cmd.Flags())
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet time after a change before unpacking")

	return cmd
}

func runWatch(ctx context.Context, g *globals, debounce time.Duration) error {
	cfg := g.cfg
	if err := requireInputOutput(cfg); err != nil {
		return err
	}

	check, err := newUnpacker(cfg, g.log)
	if err != nil {
		return err
	}
	treePath := check.TreePath(cfg.Output)
	rec := metrics.New()

	// the initial run and the watcher's runs must not overlap
	var (
		mu       sync.Mutex
		lastHash string
	)
	run := func(changed bool) {
		mu.Lock()
		defer mu.Unlock()
		log, _ := logging.WithRunID(g.log)

		runCfg := *cfg
		if changed && ownsTree(treePath, lastHash) {
			runCfg.Force = true
			runCfg.Clean = true
		}
		u, err := newUnpacker(&runCfg, log)
		if err != nil {
			log.Error("unpacker setup failed", zap.Error(err))
			return
		}
		res, err := unpackOnce(u, &runCfg, rec)
		if err != nil {
			log.Error("unpack failed", zap.Error(err))
			return
		}
		lastHash = res.Tree.Hash
		log.Info("unpack finished",
			zap.Bool("cached", res.Cached),
			zap.Int("archives", res.Archives),
			zap.Int("nodes", res.Stats.Total()),
			zap.Duration("took", res.Duration),
		)
	}

	w, err := watcher.New(cfg.Input, debounce, g.log)
	if err != nil {
		return err
	}
	w.OnChange(func(string) { run(true) })

	if err := w.Start(); err != nil {
		return err
	}
	fmt.Printf("dataminer %s watching %s\n", version.GetFullVersion(), w.Path())
	run(false)

	<-ctx.Done()

	g.log.Info("received interrupt signal, shutting down")
	return w.Stop()
}

// ownsTree reports whether the record at treePath is the one this watcher
// last wrote.
func ownsTree(treePath, lastHash string) bool {
	if lastHash == "" {
		return false
	}
	tree, err := util.ReadTree(treePath)
	if err != nil {
		return false
	}
	return tree.Hash == lastHash
}
