package util

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"io"
	"os"

	"github.com/opencontainers/go-digest"
)

// HashBlockSize is the read size used when streaming a file through a digester.
const HashBlockSize = 64 << 10

// ParseDigestAlgorithm maps a configuration name ("sha256", "sha384", "sha512")
// onto a go-digest algorithm. An empty name selects the canonical algorithm.
func ParseDigestAlgorithm(name string) (digest.Algorithm, error) {
	if name == "" {
		return digest.Canonical, nil
	}
	alg := digest.Algorithm(name)
	switch alg {
	case digest.SHA256, digest.SHA384, digest.SHA512:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDigest, name)
	}
	if !alg.Available() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDigest, name)
	}
	return alg, nil
}

// GetFileDigest streams the file at path through alg in HashBlockSize reads.
func GetFileDigest(path string, alg digest.Algorithm) (digest.Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", ErrExpectedFile
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return GetDigest(file, alg)
}

// GetDigest computes the digest of everything readable from r.
func GetDigest(r io.Reader, alg digest.Algorithm) (digest.Digest, error) {
	if !alg.Available() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDigest, alg)
	}
	d := alg.Digester()
	buf := make([]byte, HashBlockSize)
	if _, err := io.CopyBuffer(d.Hash(), r, buf); err != nil {
		return "", err
	}
	return d.Digest(), nil
}

// Hashes a file and returns the SHA-256 hash as a hex string
func GetFileHash(path string) (string, error) {
	d, err := GetFileDigest(path, digest.Canonical)
	if err != nil {
		return "", err
	}
	return d.Encoded(), nil
}

// GetHash calculates the SHA-256 hash of data from an io.Reader.
// It returns the hash as a hexadecimal string.
func GetHash(r io.Reader) (string, error) {
	d, err := GetDigest(r, digest.Canonical)
	if err != nil {
		return "", err
	}
	return d.Encoded(), nil
}
