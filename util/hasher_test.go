package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileHash(t *testing.T) {
	// Create temp directory for test files
	tmpDir := t.TempDir()

	// Create test files with known content
	emptyFile := filepath.Join(tmpDir, "empty.txt")
	os.WriteFile(emptyFile, []byte{}, 0644)

	helloFile := filepath.Join(tmpDir, "hello.txt")
	os.WriteFile(helloFile, []byte("hello world"), 0644)

	binaryFile := filepath.Join(tmpDir, "binary.bin")
	os.WriteFile(binaryFile, []byte{0x00, 0x01, 0x02, 0xff}, 0644)

	subDir := filepath.Join(tmpDir, "subdir")
	os.Mkdir(subDir, 0755)

	tests := []struct {
		name     string
		path     string
		wantHash string
		wantErr  error
	}{
		{
			name:     "empty file",
			path:     emptyFile,
			wantHash: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			wantErr:  nil,
		},
		{
			name:     "hello world file",
			path:     helloFile,
			wantHash: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
			wantErr:  nil,
		},
		{
			name:     "binary file",
			path:     binaryFile,
			wantHash: "3d1f57c984978ef98a18378c8166c1cb8ede02c03eeb6aee7e2f121dfeee3e56",
			wantErr:  nil,
		},
		{
			name:    "directory returns error",
			path:    subDir,
			wantErr: ErrExpectedFile,
		},
		{
			name:    "non-existent file",
			path:    filepath.Join(tmpDir, "nonexistent.txt"),
			wantErr: os.ErrNotExist, // Will be wrapped, check with errors.Is
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHash, err := GetFileHash(tt.path)

			if tt.wantErr != nil {
				if err == nil {
					t.Errorf("GetFileHash() expected error %v, got nil", tt.wantErr)
					return
				}
				// For os.ErrNotExist, the error is wrapped
				if tt.wantErr == os.ErrNotExist {
					if !os.IsNotExist(err) {
						t.Errorf("GetFileHash() error = %v, want os.ErrNotExist", err)
					}
					return
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetFileHash() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("GetFileHash() unexpected error = %v", err)
				return
			}

			if gotHash != tt.wantHash {
				t.Errorf("GetFileHash() = %v, want %v", gotHash, tt.wantHash)
			}
		})
	}
}

func TestGetFileHash_LargeFile(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a larger file (1MB)
	largeFile := filepath.Join(tmpDir, "large.bin")
	data := make([]byte, 1024*1024)
	for i := range data {
		data[i] = byte(i % 256)
	}
	os.WriteFile(largeFile, data, 0644)

	hash, err := GetFileHash(largeFile)
	if err != nil {
		t.Fatalf("GetFileHash() error = %v", err)
	}

	// Hash should be 64 hex characters (256 bits = 32 bytes = 64 hex chars)
	if len(hash) != 64 {
		t.Errorf("GetFileHash() hash length = %d, want 64", len(hash))
	}

	// Should be all lowercase hex
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("GetFileHash() hash contains invalid character: %c", c)
			break
		}
	}
}

func TestGetHash(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		input   string
		wantErr error
	}{
		{
			name:    "empty input",
			input:   "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			wantErr: nil,
		},
		{
			name:    "hello world",
			input:   "hello world",
			want:    "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
			wantErr: nil,
		},
		{
			name:    "newline at end",
			input:   "hello\n",
			want:    "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03",
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(tt.input)
			got, err := GetHash(reader)
			if err != tt.wantErr {
				t.Errorf("GetHash() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("GetHash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetFileHash_SingleByteFlip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.zip")
	data := []byte(strings.Repeat("dataminer", 20000))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	before, err := GetFileHash(path)
	require.NoError(t, err)

	for _, offset := range []int{0, HashBlockSize - 1, HashBlockSize, len(data) - 1} {
		flipped := append([]byte(nil), data...)
		flipped[offset] ^= 0x01
		require.NoError(t, os.WriteFile(path, flipped, 0o644))

		after, err := GetFileHash(path)
		require.NoError(t, err)
		assert.NotEqual(t, before, after, "flipping byte %d must change the hash", offset)
	}

	require.NoError(t, os.WriteFile(path, data, 0o644))
	again, err := GetFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, before, again)
}

func TestParseDigestAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    digest.Algorithm
		wantErr bool
	}{
		{name: "empty selects canonical", input: "", want: digest.Canonical},
		{name: "sha256", input: "sha256", want: digest.SHA256},
		{name: "sha384", input: "sha384", want: digest.SHA384},
		{name: "sha512", input: "sha512", want: digest.SHA512},
		{name: "sha1 is rejected", input: "sha1", wantErr: true},
		{name: "garbage", input: "crc32", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDigestAlgorithm(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedDigest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFileDigest_Algorithms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	for _, alg := range []digest.Algorithm{digest.SHA256, digest.SHA384, digest.SHA512} {
		d, err := GetFileDigest(path, alg)
		require.NoError(t, err)
		assert.Equal(t, alg, d.Algorithm())
		assert.Equal(t, alg.FromString("hello world"), d)
		assert.NoError(t, d.Validate())
	}
}
