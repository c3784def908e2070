// Package normalize resizes every image recorded in a tree.json to one size.
// It only reads the tree; the unpacked data is left as it is and resized
// copies go to a separate directory with the same layout.
package normalize

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/dendrascience/dataminer/util"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Normalizer resizes images to a fixed size. A zero width or height keeps
// the aspect ratio along that axis.
type Normalizer struct {
	width  int
	height int
	log    *zap.Logger
}

// Result counts what a run did.
type Result struct {
	Images int
	Failed []string
}

// New creates a Normalizer.
func New(width, height int, log *zap.Logger) (*Normalizer, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{width: width, height: height, log: log}, nil
}

// Tree resizes the images of the tree stored at treePath into destDir.
// An image that fails to decode is logged and listed in Result.Failed
// without stopping the run; write failures stop it.
func (n *Normalizer) Tree(treePath, destDir string) (Result, error) {
	var res Result

	tree, err := util.ReadTree(treePath)
	if err != nil {
		return res, err
	}

	var walkErr error
	tree.Walk(func(node *util.Node, _ int) bool {
		if walkErr != nil {
			return false
		}
		if node.Type != util.TypePNG {
			return true
		}
		rel, err := filepath.Rel(tree.Path, node.Path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			walkErr = fmt.Errorf("%w: %s is outside %s", util.ErrInvalidTree, node.Path, tree.Path)
			return false
		}
		img, err := imaging.Open(node.Path)
		if err != nil {
			n.log.Warn("image not normalized", zap.String("path", node.Path), zap.Error(err))
			res.Failed = append(res.Failed, node.Path)
			return true
		}
		if err := n.write(img, filepath.Join(destDir, rel)); err != nil {
			walkErr = err
			return false
		}
		res.Images++
		return true
	})
	if walkErr != nil {
		return res, walkErr
	}

	n.log.Info("normalized images",
		zap.Int("images", res.Images),
		zap.Int("failed", len(res.Failed)),
		zap.String("dest", destDir),
	)
	return res, nil
}

// File resizes one image from src into dst, creating dst's directory.
func (n *Normalizer) File(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return err
	}
	return n.write(img, dst)
}

func (n *Normalizer) write(img image.Image, dst string) error {
	out := imaging.Resize(img, n.width, n.height, imaging.Lanczos)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return imaging.Save(out, dst)
}
