// Package testutil builds archive fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// ZipEntry is one member of a fixture archive. A Name ending in "/" is a
// directory entry.
type ZipEntry struct {
	Name string
	Body []byte
	// NonUTF8 stores Name as raw bytes without the UTF-8 flag.
	NonUTF8 bool
	// Zstd compresses the body with zstd (method 93) instead of deflate.
	Zstd bool
	// Extra is written verbatim as the entry's extra fields.
	Extra []byte
}

// ZipBytes returns an in-memory archive holding entries in order.
func ZipBytes(tb testing.TB, entries ...ZipEntry) []byte {
	tb.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	for _, e := range entries {
		method := zip.Deflate
		if e.Zstd {
			method = zstd.ZipMethodWinZip
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method, NonUTF8: e.NonUTF8, Extra: e.Extra})
		if err != nil {
			tb.Fatalf("Failed to add %q to fixture archive: %v", e.Name, err)
		}
		if len(e.Body) > 0 {
			if _, err := fw.Write(e.Body); err != nil {
				tb.Fatalf("Failed to write %q: %v", e.Name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("Failed to finish fixture archive: %v", err)
	}
	return buf.Bytes()
}

// UnicodePathExtra builds an Info-ZIP Unicode Path extra field (0x7075)
// carrying name for an entry whose header name is raw.
func UnicodePathExtra(raw, name string) []byte {
	field := make([]byte, 0, 9+len(name))
	field = binary.LittleEndian.AppendUint16(field, 0x7075)
	field = binary.LittleEndian.AppendUint16(field, uint16(5+len(name)))
	field = append(field, 1)
	field = binary.LittleEndian.AppendUint32(field, crc32.ChecksumIEEE([]byte(raw)))
	return append(field, name...)
}

// WriteZip writes a fixture archive to path and returns path.
func WriteZip(tb testing.TB, path string, entries ...ZipEntry) string {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, ZipBytes(tb, entries...), 0o644); err != nil {
		tb.Fatalf("Failed to write fixture archive: %v", err)
	}
	return path
}

// PNG returns an encoded w x h image.
func PNG(tb testing.TB, w, h int) []byte {
	tb.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		tb.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}
