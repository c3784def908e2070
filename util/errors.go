package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for package util.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// File and directory errors
	ErrExpectedFile      = errors.New("expected file, got directory")
	ErrExpectedDirectory = errors.New("expected directory but got file")
	ErrMissingInput      = errors.New("input file is missing or unreadable")
	ErrInputInsideOutput = errors.New("input file lies inside the output directory")

	// Digest errors
	ErrUnsupportedDigest = errors.New("unsupported digest algorithm")

	// Archive errors
	ErrArchiveExtraction = errors.New("archive extraction failed")
	ErrFilenameEncoding  = errors.New("archive entry name cannot be decoded")
	ErrUnsafeEntryPath   = errors.New("archive entry escapes the extraction directory")
	ErrExpansionLimit    = errors.New("archive expansion limit exceeded")
	ErrArchiveDirName    = errors.New("archive has no usable directory name")

	// Tree errors
	ErrArchiveNode        = errors.New("archive node cannot appear in a finalized tree")
	ErrChildCountMismatch = errors.New("childnum does not match number of children")
	ErrInvalidTree        = errors.New("invalid tree")

	// Cache errors
	ErrCacheNotFound = errors.New("tree cache not found")
	ErrCorruptCache  = errors.New("tree cache is corrupt")
	ErrHashMismatch  = errors.New("tree cache belongs to different input")
)

// HashMismatchError reports a cache file whose stored hash differs from the
// hash of the current input.
type HashMismatchError struct {
	Path     string
	Stored   string
	Expected string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("%s: stored hash %s, input hash %s", ErrHashMismatch, e.Stored, e.Expected)
}

func (e *HashMismatchError) Is(target error) bool {
	return target == ErrHashMismatch
}
