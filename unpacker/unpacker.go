package unpacker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dendrascience/dataminer/util"
	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"
)

// Unpacker expands nested ZIP archives into output directories and keeps a
// tree.json record of the result keyed by the input's content hash.
// An Unpacker holds no state between runs; the output directory is the only
// shared state, and runs against the same directory must not overlap.
type Unpacker struct {
	treeFile string
	digest   digest.Algorithm
	names    *util.NameDecoder
	maxDepth int
	maxBytes int64
	force    bool
	clean    bool
	log      *zap.Logger
}

// Result describes one run.
type Result struct {
	Tree *util.Node
	// Cached is set when the tree came from an existing record and nothing
	// on disk was touched.
	Cached   bool
	Archives int
	Files    int
	Bytes    int64
	Stats    util.TreeStats
	Duration time.Duration
}

// New creates an Unpacker. Defaults: tree.json, SHA-256, EUC-KR entry names
// failing on undecodable ones, DefaultMaxArchiveDepth, DefaultMaxExpandedBytes.
func New(opts ...Option) (*Unpacker, error) {
	names, err := util.NewNameDecoder(util.DefaultNameEncoding, util.FallbackFail)
	if err != nil {
		return nil, err
	}
	u := &Unpacker{
		treeFile: util.TreeFileName,
		digest:   digest.Canonical,
		names:    names,
		maxDepth: DefaultMaxArchiveDepth,
		maxBytes: DefaultMaxExpandedBytes,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if !u.digest.Available() {
		return nil, fmt.Errorf("%w: %q", util.ErrUnsupportedDigest, u.digest)
	}
	if u.treeFile != filepath.Base(u.treeFile) {
		return nil, fmt.Errorf("tree file %q must be a plain file name", u.treeFile)
	}
	return u, nil
}

// TreePath is where the cache record for outputDir lives.
func (u *Unpacker) TreePath(outputDir string) string {
	return filepath.Join(outputDir, u.treeFile)
}

// Unpack guarantees that outputDir holds the fully expanded contents of
// inputFile and returns the tree describing it, from cache when the record
// matches the input's hash.
func (u *Unpacker) Unpack(inputFile, outputDir string) (*util.Node, error) {
	res, err := u.Run(inputFile, outputDir)
	if err != nil {
		return nil, err
	}
	return res.Tree, nil
}

// Run is Unpack with run details.
func (u *Unpacker) Run(inputFile, outputDir string) (Result, error) {
	start := time.Now()

	input, err := filepath.Abs(inputFile)
	if err != nil {
		return Result{}, err
	}
	output, err := filepath.Abs(outputDir)
	if err != nil {
		return Result{}, err
	}

	sum, err := util.GetFileDigest(input, u.digest)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", util.ErrMissingInput, inputFile, err)
	}
	hash := sum.Encoded()

	if isWithin(output, input) {
		return Result{}, fmt.Errorf("%w: %s is below %s", util.ErrInputInsideOutput, input, output)
	}

	log := u.log.With(zap.String("input", input), zap.String("output", output), zap.String("hash", hash))
	cachePath := u.TreePath(output)

	tree, err := util.LoadTree(cachePath, hash)
	switch {
	case err == nil:
		log.Info("tree cache hit")
		return Result{Tree: tree, Cached: true, Stats: tree.Stats(), Duration: time.Since(start)}, nil
	case errors.Is(err, util.ErrCacheNotFound):
		log.Debug("no tree cache, unpacking")
	case errors.Is(err, util.ErrCorruptCache):
		log.Warn("tree cache is corrupt, unpacking again", zap.Error(err))
	case errors.Is(err, util.ErrHashMismatch):
		if !u.force {
			log.Error("tree cache belongs to another input, leaving it untouched", zap.Error(err))
			return Result{}, err
		}
		log.Warn("tree cache belongs to another input, rebuilding", zap.Error(err))
	default:
		return Result{}, err
	}

	res, err := u.build(input, output, hash, cachePath, log)
	res.Duration = time.Since(start)
	return res, err
}

func (u *Unpacker) build(input, output, hash, cachePath string, log *zap.Logger) (Result, error) {
	if err := os.MkdirAll(output, 0o755); err != nil {
		return Result{}, err
	}
	if u.clean {
		if err := emptyDir(output); err != nil {
			return Result{}, err
		}
	}
	if _, err := util.CopyToDir(input, output); err != nil {
		return Result{}, err
	}

	root := util.NewDirectory(output)
	root.Hash = hash

	e := &expander{u: u, log: log, cachePath: cachePath}
	if err := e.expand(root, 0); err != nil {
		log.Error("unpack failed", zap.Error(err), zap.Int("archives", e.archives))
		return Result{}, err
	}
	if err := util.SaveTree(cachePath, root); err != nil {
		return Result{}, err
	}

	stats := root.Stats()
	log.Info("unpacked",
		zap.Int("archives", e.archives),
		zap.Int("files", e.files),
		zap.Int64("bytes", e.bytes),
		zap.Int("nodes", stats.Total()),
	)
	return Result{
		Tree:     root,
		Archives: e.archives,
		Files:    e.files,
		Bytes:    e.bytes,
		Stats:    stats,
	}, nil
}

// isWithin reports whether path lies strictly below dir.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
