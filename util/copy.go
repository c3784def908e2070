package util

import (
	"io"
	"os"
	"path/filepath"
)

// CopyToDir copies the file at path into dir under its base name and returns
// the new path. An existing file of that name is overwritten.
func CopyToDir(path, dir string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if stat.IsDir() {
		return "", ErrExpectedFile
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	newPath := filepath.Join(dir, filepath.Base(path))
	newFile, err := os.OpenFile(newPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, stat.Mode().Perm()|0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(newFile, file); err != nil {
		newFile.Close()
		return "", err
	}
	return newPath, newFile.Close()
}
