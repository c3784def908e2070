package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TreeFileName is the cache record written at the root of an output directory.
const TreeFileName = "tree.json"

// tempPrefix marks in-flight cache writes; the unpacker ignores such files.
const tempPrefix = ".tree-"

// IsCacheTemp reports whether name is an in-flight SaveTree temp file.
func IsCacheTemp(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, ".tmp")
}

// LoadTree returns the tree stored at cachePath when it was built from an
// input whose hash is expectedHash.
//
// Errors: ErrCacheNotFound when there is no record, ErrCorruptCache when the
// record cannot be decoded or lacks a hash, and *HashMismatchError (matching
// ErrHashMismatch) when it belongs to other content.
func LoadTree(cachePath, expectedHash string) (*Node, error) {
	root, err := ReadTree(cachePath)
	if err != nil {
		return nil, err
	}
	if err := ValidateTree(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptCache, cachePath, err)
	}
	if root.Hash != expectedHash {
		return nil, &HashMismatchError{Path: cachePath, Stored: root.Hash, Expected: expectedHash}
	}
	return root, nil
}

// ReadTree loads the record at cachePath checking only that it exists and
// carries a hash.
func ReadTree(cachePath string) (*Node, error) {
	data, err := os.ReadFile(cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCacheNotFound, cachePath)
	}
	if err != nil {
		return nil, err
	}

	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptCache, cachePath, err)
	}
	if root.Hash == "" {
		return nil, fmt.Errorf("%w: %s: missing hash", ErrCorruptCache, cachePath)
	}
	return &root, nil
}

// SaveTree persists root at cachePath. The record is written to a temp file
// in the same directory and renamed over the previous one.
func SaveTree(cachePath string, root *Node) error {
	if err := ValidateTree(root); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return err
	}

	dir := filepath.Dir(cachePath)
	tmp, err := os.CreateTemp(dir, tempPrefix+"*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, cachePath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
