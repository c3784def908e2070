package util

import (
	"io/fs"
	"os"
	"path/filepath"
)

// TreeStats summarizes a tree by node type.
type TreeStats struct {
	Directories int `json:"directories"`
	Images      int `json:"images"`
	Unknown     int `json:"unknown"`
	MaxDepth    int `json:"max_depth"`
}

// Total is the number of nodes including the root.
func (s TreeStats) Total() int {
	return s.Directories + s.Images + s.Unknown
}

func (n *Node) Stats() TreeStats {
	var s TreeStats
	n.Walk(func(node *Node, depth int) bool {
		switch node.Type {
		case TypeDirectory:
			s.Directories++
		case TypePNG:
			s.Images++
		default:
			s.Unknown++
		}
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		return true
	})
	return s
}

// CountFiles counts the regular files below path, stopping early once target
// is exceeded when target is positive.
func CountFiles(path string, target int) (count int, overage bool, err error) {
	return CountFilesFunc(path, target, nil)
}

// CountFilesFunc is CountFiles calling progress with the running count after
// every file.
func CountFilesFunc(path string, target int, progress func(count int)) (count int, overage bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false, err
	}
	if !info.IsDir() {
		return 0, false, ErrExpectedDirectory
	}
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			count++
			if progress != nil {
				progress(count)
			}
			if target > 0 && count > target {
				overage = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	return count, overage, err
}
