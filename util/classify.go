package util

import (
	"mime"
	"os"
	"path/filepath"
)

// FileType is the classification of a filesystem entry. ZIP is transient:
// archives are expanded into directories before a tree is finalized.
type FileType string

const (
	TypeUnknown   FileType = "UNKNOWN"
	TypeDirectory FileType = "DIRECTORY"
	TypeZip       FileType = "ZIP"
	TypePNG       FileType = "PNG"
)

var (
	archiveMIMETypes = map[string]bool{
		"application/zip":              true,
		"application/x-zip-compressed": true,
	}
	imageMIMEType = "image/png"
)

func init() {
	// The builtin table has no entry for .zip, and /etc/mime.types is not
	// present everywhere.
	_ = mime.AddExtensionType(".zip", "application/zip")
}

// Classify reports the type of the entry at path. Directories win; files are
// typed purely by extension, so misnamed or extensionless files are UNKNOWN.
func Classify(path string) FileType {
	info, err := os.Stat(path)
	if err != nil {
		return TypeUnknown
	}
	if info.IsDir() {
		return TypeDirectory
	}
	if !info.Mode().IsRegular() {
		return TypeUnknown
	}
	return classifyMIME(mimeTypeOf(path))
}

func mimeTypeOf(path string) string {
	ext := filepath.Ext(path)
	// dotfiles such as ".zip" have no extension, only a name
	if ext == "" || ext == filepath.Base(path) {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}

func classifyMIME(mediaType string) FileType {
	switch {
	case archiveMIMETypes[mediaType]:
		return TypeZip
	case mediaType == imageMIMEType:
		return TypePNG
	default:
		return TypeUnknown
	}
}
