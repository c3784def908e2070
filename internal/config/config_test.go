package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "tree.json", cfg.TreeFile)
	assert.Equal(t, "sha256", cfg.HashAlgorithm)
	assert.Equal(t, "EUC-KR", cfg.FilenameEncoding)
	assert.Equal(t, "fail", cfg.EncodingFallback)
	assert.Equal(t, 16, cfg.MaxArchiveDepth)
	assert.Equal(t, int64(8<<30), cfg.MaxExpandedBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Empty(t, cfg.Source())
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "dataminer.yaml",
			content: `input: data.zip
output: out
filename_encoding: Shift_JIS
encoding_fallback: skip
max_archive_depth: 4
force: true
log:
  level: debug
  format: json
normalize:
  width: 64
`,
		},
		{
			name: "json",
			file: "dataminer2.json",
			content: `{"input": "data.zip", "output": "out", "filename_encoding": "Shift_JIS",
"encoding_fallback": "skip", "max_archive_depth": 4, "force": true,
"log": {"level": "debug", "format": "json"}, "normalize": {"width": 64}}`,
		},
		{
			name: "ini",
			file: "dataminer.ini",
			content: `input = data.zip
output = out
filename_encoding = Shift_JIS
encoding_fallback = skip
max_archive_depth = 4
force = true

[log]
level = debug
format = json

[normalize]
width = 64
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			cfg, err := Load(path)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			assert.Equal(t, path, cfg.Source())
			assert.Equal(t, "data.zip", cfg.Input)
			assert.Equal(t, "out", cfg.Output)
			assert.Equal(t, "Shift_JIS", cfg.FilenameEncoding)
			assert.Equal(t, "skip", cfg.EncodingFallback)
			assert.Equal(t, 4, cfg.MaxArchiveDepth)
			assert.True(t, cfg.Force)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, "json", cfg.Log.Format)
			assert.Equal(t, 64, cfg.Normalize.Width)

			// untouched keys keep their defaults
			assert.Equal(t, "tree.json", cfg.TreeFile)
			assert.Equal(t, int64(8<<30), cfg.MaxExpandedBytes)
			assert.Equal(t, 256, cfg.Normalize.Height)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "dataminer.toml", "a = 1"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "bad.yaml", "max_archive_depth: [1"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "bad.ini", "max_archive_depth = many"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"nested tree file", func(c *Config) { c.TreeFile = "a/tree.json" }},
		{"unknown digest", func(c *Config) { c.HashAlgorithm = "md5" }},
		{"unknown encoding", func(c *Config) { c.FilenameEncoding = "no-such-charset" }},
		{"unknown fallback", func(c *Config) { c.EncodingFallback = "guess" }},
		{"negative depth", func(c *Config) { c.MaxArchiveDepth = -1 }},
		{"negative bytes", func(c *Config) { c.MaxExpandedBytes = -1 }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative size", func(c *Config) { c.Normalize.Width = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	assert.Empty(t, Find())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataminer.json"), []byte("{}"), 0o644))
	assert.Equal(t, "dataminer.json", Find())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataminer.yaml"), []byte(""), 0o644))
	assert.Equal(t, "dataminer.yaml", Find())
}
