// Package util provides the building blocks of the dataminer unpacker.
//
// Key Components:
//
// Hashing:
//   - go-digest based content digests, streamed in 64 KiB blocks
//   - SHA-256 by default; the hex form is the cache key
//
// Classification:
//   - Directory, ZIP, PNG or Unknown, decided by extension through the mime table
//
// Archives:
//   - ZIP extraction with zstd support, byte budgets and zip-slip rejection
//   - Legacy entry name decoding (EUC-KR by default) with a fallback policy
//   - Directory compression for fixtures and sample data
//
// Trees:
//   - Node, a tagged variant serialized in the tree.json schema
//   - Invariant validation and per-type statistics
//   - Atomic persistence and hash-checked loading of the cache record
//
// Everything here is synchronous; callers serialize access per output directory.
package util
