package unpacker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dendrascience/dataminer/util"
	"go.uber.org/zap"
)

// pending is a queued directory entry. depth counts the archives enclosing it.
type pending struct {
	name    string
	depth   int
	symlink bool
}

type expander struct {
	u         *Unpacker
	log       *zap.Logger
	cachePath string

	archives int
	files    int
	bytes    int64
}

// expand fills node.Children from the directory at node.Path. Archives found
// on the way are extracted next to themselves, deleted, and their directory
// is queued again on the same level so it gets picked up as an ordinary
// directory later in this pass.
//
// Entries are visited in name order; directories produced by extraction come
// after the entries listed up front.
func (e *expander) expand(node *util.Node, depth int) error {
	entries, err := os.ReadDir(node.Path)
	if err != nil {
		return err
	}

	cacheDir := filepath.Dir(e.cachePath)
	queue := make([]pending, 0, len(entries))
	for _, entry := range entries {
		if node.Path == cacheDir && (entry.Name() == filepath.Base(e.cachePath) || util.IsCacheTemp(entry.Name())) {
			continue
		}
		queue = append(queue, pending{
			name:    entry.Name(),
			depth:   depth,
			symlink: entry.Type()&os.ModeSymlink != 0,
		})
	}

	seen := make(map[string]int)
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		path := filepath.Join(node.Path, item.name)

		kind := util.Classify(path)
		if item.symlink {
			// never followed, so a link cannot loop the walk
			kind = util.TypeUnknown
		}

		var child *util.Node
		switch kind {
		case util.TypeZip:
			dirName, err := e.extract(path, item.depth+1)
			if err != nil {
				return err
			}
			queue = requeue(queue, pending{name: dirName, depth: item.depth + 1})
			continue
		case util.TypeDirectory:
			child = util.NewDirectory(path)
			if err := e.expand(child, item.depth); err != nil {
				return err
			}
		case util.TypePNG:
			child = util.NewImage(path)
		default:
			child = util.NewUnknown(path)
		}

		// a directory visited before an archive expanded into it is replaced
		if i, ok := seen[item.name]; ok {
			node.Children[i] = child
			continue
		}
		seen[item.name] = len(node.Children)
		node.Children = append(node.Children, child)
	}
	return nil
}

// requeue appends p unless an entry of the same name is still waiting, in
// which case that entry takes the deeper of the two depths.
func requeue(queue []pending, p pending) []pending {
	for i := range queue {
		if queue[i].name == p.name {
			queue[i].depth = max(queue[i].depth, p.depth)
			queue[i].symlink = false
			return queue
		}
	}
	return append(queue, p)
}

// extract expands the archive at path into its sibling directory, removes
// the archive and returns the directory's base name.
func (e *expander) extract(path string, depth int) (string, error) {
	if e.u.maxDepth > 0 && depth > e.u.maxDepth {
		return "", fmt.Errorf("%w: %s is nested %d archives deep (max %d)",
			util.ErrExpansionLimit, path, depth, e.u.maxDepth)
	}

	var budget int64
	if e.u.maxBytes > 0 {
		budget = e.u.maxBytes - e.bytes
		if budget <= 0 {
			return "", fmt.Errorf("%w: %d bytes already expanded before %s",
				util.ErrExpansionLimit, e.bytes, path)
		}
	}

	dest, err := util.ArchiveDirName(path)
	if err != nil {
		return "", err
	}
	res, err := util.ExtractZip(path, dest, util.ExtractOptions{Names: e.u.names, MaxBytes: budget})
	e.bytes += res.Bytes
	e.files += res.Files
	if err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	e.archives++

	e.log.Debug("extracted archive",
		zap.String("archive", path),
		zap.Int("depth", depth),
		zap.Int("files", res.Files),
		zap.Int("skipped", res.Skipped),
		zap.Int64("bytes", res.Bytes),
	)
	return filepath.Base(dest), nil
}
