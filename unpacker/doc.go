// Package unpacker turns one archive into a fully expanded directory and a
// tree describing it.
//
// A run copies the input into the output directory, then walks it level by
// level. Every ZIP met on the way is extracted into a sibling directory named
// after it, removed, and the directory is walked like any other, so archives
// nested at any depth end up expanded and no ZIP survives in the output.
// The finished tree is stored as tree.json next to the expanded data, keyed by
// the input's content hash, and later runs with the same input return it
// without touching the disk.
//
// Basic usage:
//
//	u, err := unpacker.New(unpacker.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	tree, err := u.Unpack("dataset.zip", "out/dataset")
package unpacker
