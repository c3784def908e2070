package util

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding"
)

// utf8NameFlag is general purpose bit 11: the entry name is UTF-8.
const utf8NameFlag = 0x800

// ExtractOptions controls ExtractZip.
type ExtractOptions struct {
	// Names decodes entry names; nil keeps names as stored.
	Names *NameDecoder
	// MaxBytes caps the uncompressed bytes written; 0 means unlimited.
	MaxBytes int64
}

// ExtractResult reports what ExtractZip wrote.
type ExtractResult struct {
	Files   int
	Skipped int
	Bytes   int64
}

// ArchiveDirName is the sibling directory an archive expands into: the
// archive path with its extension removed. A name that is all extension,
// like ".zip", has no such directory.
func ArchiveDirName(archivePath string) (string, error) {
	base := filepath.Base(archivePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == ".." {
		return "", fmt.Errorf("%w: %s", ErrArchiveDirName, archivePath)
	}
	return filepath.Join(filepath.Dir(archivePath), stem), nil
}

// ExtractZip expands the ZIP archive at archivePath into destDir. Entries
// written before a failure are left in place.
func ExtractZip(archivePath, destDir string, opts ExtractOptions) (ExtractResult, error) {
	var res ExtractResult

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return res, extractionError(archivePath, err)
	}
	defer zr.Close()
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	zr.RegisterDecompressor(zstd.ZipMethodPKWare, zstd.ZipDecompressor())

	if info, err := os.Lstat(destDir); err == nil && !info.IsDir() {
		return res, extractionError(archivePath,
			fmt.Errorf("%w: %s already exists and is not a directory", ErrArchiveDirName, destDir))
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return res, extractionError(archivePath, err)
	}

	for _, f := range zr.File {
		name := f.Name
		utf8Name := f.Flags&utf8NameFlag != 0
		if !utf8Name {
			if u, ok := unicodePath(f.Extra, f.Name); ok {
				name, utf8Name = u, true
			}
		}
		if opts.Names != nil {
			decoded, skip, decErr := opts.Names.Decode(name, utf8Name)
			if decErr != nil {
				return res, extractionError(archivePath, decErr)
			}
			if skip {
				res.Skipped++
				continue
			}
			name = decoded
		}

		target, err := entryTarget(destDir, name)
		if err != nil {
			return res, extractionError(archivePath, err)
		}
		if target == "" {
			continue
		}

		if f.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return res, extractionError(archivePath, err)
			}
			continue
		}

		var budget int64 = -1
		if opts.MaxBytes > 0 {
			budget = opts.MaxBytes - res.Bytes
		}
		n, err := extractFile(f, target, budget)
		res.Bytes += n
		if err != nil {
			return res, extractionError(archivePath, err)
		}
		res.Files++
	}
	return res, nil
}

func extractionError(archivePath string, err error) error {
	if errors.Is(err, ErrArchiveExtraction) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrArchiveExtraction, archivePath, err)
}

// entryTarget maps an entry name onto a path below destDir. Backslashes are
// treated as separators since legacy archivers wrote them. An empty result
// means the entry names destDir itself.
func entryTarget(destDir, name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if path.IsAbs(slashed) || filepath.VolumeName(slashed) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntryPath, name)
	}
	clean := path.Clean(slashed)
	if clean == "." {
		return "", nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntryPath, name)
	}
	return filepath.Join(destDir, filepath.FromSlash(clean)), nil
}

// extractFile copies one entry to target. budget < 0 means unlimited.
func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0o600)
	if err != nil {
		return 0, err
	}

	var src io.Reader = rc
	if budget >= 0 {
		// one byte past the budget tells an exact fit from an overflow
		src = io.LimitReader(rc, budget+1)
	}
	n, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if copyErr != nil {
		return n, copyErr
	}
	if budget >= 0 && n > budget {
		return n, fmt.Errorf("%w: more than %d bytes expanded", ErrExpansionLimit, budget)
	}
	return n, closeErr
}

// CompressOptions controls CompressDirectory.
type CompressOptions struct {
	// LegacyNames, when set, stores non-ASCII entry names in this encoding
	// without the UTF-8 flag, the way older archivers did.
	LegacyNames encoding.Encoding
}

// CompressDirectoryToDest writes every file below path into a new ZIP
// archive at dest, with names relative to path.
func CompressDirectoryToDest(path string, dest string) error {
	return CompressDirectory(path, dest, CompressOptions{})
}

// CompressDirectory is CompressDirectoryToDest with options.
func CompressDirectory(path, dest string, opts CompressOptions) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrExpectedDirectory
	}
	os.Remove(dest)
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	w := zip.NewWriter(file)

	err = filepath.WalkDir(path, func(subpath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if subpath == path || subpath == dest {
			return nil
		}
		rel, err := filepath.Rel(path, subpath)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		legacy := false
		if opts.LegacyNames != nil && !isASCII(name) {
			if name, err = opts.LegacyNames.NewEncoder().String(name); err != nil {
				return fmt.Errorf("%w: %q: %w", ErrFilenameEncoding, rel, err)
			}
			legacy = true
		}
		if d.IsDir() {
			_, err := w.CreateHeader(&zip.FileHeader{Name: name + "/", NonUTF8: legacy})
			return err
		}
		return addFileToZip(w, subpath, name, legacy)
	})
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return file.Close()
}

func addFileToZip(w *zip.Writer, src, name string, nonUTF8 bool) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	writer, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, NonUTF8: nonUTF8})
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, f)
	return err
}
