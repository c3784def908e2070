package util

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// unicodePathExtraID tags the Info-ZIP Unicode Path extra field.
const unicodePathExtraID = 0x7075

// DefaultNameEncoding is the legacy codepage assumed for archive entry names
// that do not carry the UTF-8 flag.
const DefaultNameEncoding = "EUC-KR"

// EncodingFallback decides what happens to an entry name that cannot be
// decoded from the configured encoding.
type EncodingFallback string

const (
	FallbackFail EncodingFallback = "fail"
	FallbackRaw  EncodingFallback = "raw"
	FallbackSkip EncodingFallback = "skip"
)

// ParseEncodingFallback accepts "fail", "raw" or "skip"; empty means fail.
func ParseEncodingFallback(s string) (EncodingFallback, error) {
	switch EncodingFallback(strings.ToLower(s)) {
	case "", FallbackFail:
		return FallbackFail, nil
	case FallbackRaw:
		return FallbackRaw, nil
	case FallbackSkip:
		return FallbackSkip, nil
	}
	return "", fmt.Errorf("unknown encoding fallback %q", s)
}

// NameDecoder turns raw archive entry names into UTF-8.
type NameDecoder struct {
	name     string
	enc      encoding.Encoding // nil means names are already UTF-8
	fallback EncodingFallback
}

// NewNameDecoder looks encodingName up in the IANA registry ("EUC-KR",
// "Shift_JIS", "IBM437", ...). "UTF-8" disables transcoding.
func NewNameDecoder(encodingName string, fallback EncodingFallback) (*NameDecoder, error) {
	if encodingName == "" {
		encodingName = DefaultNameEncoding
	}
	if fallback == "" {
		fallback = FallbackFail
	}
	d := &NameDecoder{name: encodingName, fallback: fallback}
	if strings.EqualFold(encodingName, "utf-8") || strings.EqualFold(encodingName, "utf8") {
		return d, nil
	}
	enc, err := ianaindex.IANA.Encoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("filename encoding %q: %w", encodingName, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("filename encoding %q is not supported", encodingName)
	}
	d.enc = enc
	return d, nil
}

func (d *NameDecoder) String() string {
	return d.name
}

// Decode returns the UTF-8 form of raw. Names flagged as UTF-8 by the archive
// and plain ASCII names pass through untouched. skip is set when the fallback
// policy drops an undecodable entry.
func (d *NameDecoder) Decode(raw string, utf8Flag bool) (name string, skip bool, err error) {
	if utf8Flag || d.enc == nil || isASCII(raw) {
		return raw, false, nil
	}
	decoded, err := d.enc.NewDecoder().String(raw)
	if err == nil && !strings.ContainsRune(decoded, utf8.RuneError) {
		return decoded, false, nil
	}

	switch d.fallback {
	case FallbackRaw:
		return raw, false, nil
	case FallbackSkip:
		return "", true, nil
	default:
		return "", false, fmt.Errorf("%w: %q is not valid %s", ErrFilenameEncoding, raw, d.name)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// unicodePath returns the UTF-8 name from the Info-ZIP Unicode Path extra
// field. The field only counts while its CRC still matches raw, the name in
// the entry header; tools that rename entries leave a stale field behind.
func unicodePath(extra []byte, raw string) (string, bool) {
	for len(extra) >= 4 {
		tag := binary.LittleEndian.Uint16(extra)
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		extra = extra[4:]
		if size > len(extra) {
			return "", false
		}
		field := extra[:size]
		extra = extra[size:]

		// version 1, name CRC32, UTF-8 name
		if tag != unicodePathExtraID || len(field) < 5 || field[0] != 1 {
			continue
		}
		if binary.LittleEndian.Uint32(field[1:5]) != crc32.ChecksumIEEE([]byte(raw)) {
			return "", false
		}
		name := string(field[5:])
		if name == "" || !utf8.ValidString(name) {
			return "", false
		}
		return name, true
	}
	return "", false
}
