// Package main provides the dataminer command-line interface.
//
// dataminer unpacks a ZIP archive and every archive nested inside it into an
// output directory, describes the result in tree.json, and skips the work on
// later runs while the input's content hash is unchanged.
//
// The main binary supports multiple subcommands:
//   - unpack: Unpack an archive into an output directory
//   - watch: Unpack again whenever the archive changes
//   - validate: Check a tree.json against its invariants and the disk
//   - count: Summarize a tree or count files on disk
//   - normalize: Resize every image of a tree to one size
//   - seed: Generate a nested sample archive
//   - version: Print build information
package main
