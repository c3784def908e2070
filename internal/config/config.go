// Package config loads dataminer settings from YAML, INI or JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dendrascience/dataminer/util"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for unreadable files and out-of-range values.
var ErrInvalidConfig = errors.New("invalid configuration")

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// NormalizeConfig configures the image normalizer.
type NormalizeConfig struct {
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Config holds every setting the commands read.
type Config struct {
	Input            string `yaml:"input,omitempty" json:"input,omitempty"`
	Output           string `yaml:"output,omitempty" json:"output,omitempty"`
	TreeFile         string `yaml:"tree_file" json:"tree_file"`
	HashAlgorithm    string `yaml:"hash_algorithm" json:"hash_algorithm"`
	FilenameEncoding string `yaml:"filename_encoding" json:"filename_encoding"`
	EncodingFallback string `yaml:"encoding_fallback" json:"encoding_fallback"`
	MaxArchiveDepth  int    `yaml:"max_archive_depth" json:"max_archive_depth"`
	MaxExpandedBytes int64  `yaml:"max_expanded_bytes" json:"max_expanded_bytes"`
	Force            bool   `yaml:"force" json:"force"`
	Clean            bool   `yaml:"clean" json:"clean"`
	MetricsFile      string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`

	Log       LogConfig       `yaml:"log" json:"log"`
	Normalize NormalizeConfig `yaml:"normalize" json:"normalize"`

	// path the settings came from, empty for defaults
	source string
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		TreeFile:         util.TreeFileName,
		HashAlgorithm:    "sha256",
		FilenameEncoding: util.DefaultNameEncoding,
		EncodingFallback: string(util.FallbackFail),
		MaxArchiveDepth:  16,
		MaxExpandedBytes: 8 << 30,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Normalize: NormalizeConfig{
			Width:  256,
			Height: 256,
		},
	}
}

// GetConfigDir returns the per-user config directory.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "dataminer")
	}
	return filepath.Join(home, ".config", "dataminer")
}

// Find returns the first existing config file among ./dataminer.yaml,
// ./dataminer.json and GetConfigDir()/config.yaml, or "".
func Find() string {
	candidates := []string{
		"dataminer.yaml",
		"dataminer.json",
		filepath.Join(GetConfigDir(), "config.yaml"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c
		}
	}
	return ""
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml, .ini/.cfg or .json. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".ini", ".cfg":
		err = cfg.loadINI(data)
	default:
		return nil, fmt.Errorf("%w: unknown config format %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	cfg.source = path
	return cfg, nil
}

// Source is the file the configuration was loaded from.
func (c *Config) Source() string {
	return c.source
}

// loadINI maps top-level keys from the default section and the nested ones
// from [log] and [normalize].
func (c *Config) loadINI(data []byte) error {
	f, err := ini.Load(data)
	if err != nil {
		return err
	}

	var errs []error
	str := func(sec *ini.Section, key string, dst *string) {
		if sec.HasKey(key) {
			*dst = sec.Key(key).String()
		}
	}
	num := func(sec *ini.Section, key string, dst *int) {
		if sec.HasKey(key) {
			v, err := sec.Key(key).Int()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}
	flag := func(sec *ini.Section, key string, dst *bool) {
		if sec.HasKey(key) {
			v, err := sec.Key(key).Bool()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}

	root := f.Section("")
	str(root, "input", &c.Input)
	str(root, "output", &c.Output)
	str(root, "tree_file", &c.TreeFile)
	str(root, "hash_algorithm", &c.HashAlgorithm)
	str(root, "filename_encoding", &c.FilenameEncoding)
	str(root, "encoding_fallback", &c.EncodingFallback)
	num(root, "max_archive_depth", &c.MaxArchiveDepth)
	if root.HasKey("max_expanded_bytes") {
		v, err := root.Key("max_expanded_bytes").Int64()
		if err != nil {
			errs = append(errs, fmt.Errorf("max_expanded_bytes: %w", err))
		} else {
			c.MaxExpandedBytes = v
		}
	}
	flag(root, "force", &c.Force)
	flag(root, "clean", &c.Clean)
	str(root, "metrics_file", &c.MetricsFile)

	logSec := f.Section("log")
	str(logSec, "level", &c.Log.Level)
	str(logSec, "format", &c.Log.Format)
	str(logSec, "output", &c.Log.Output)

	norm := f.Section("normalize")
	num(norm, "width", &c.Normalize.Width)
	num(norm, "height", &c.Normalize.Height)
	str(norm, "output", &c.Normalize.Output)

	return errors.Join(errs...)
}

// Validate reports every bad value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.TreeFile == "" || c.TreeFile != filepath.Base(c.TreeFile) {
		errs = append(errs, fmt.Errorf("tree_file %q must be a plain file name", c.TreeFile))
	}
	if _, err := util.ParseDigestAlgorithm(c.HashAlgorithm); err != nil {
		errs = append(errs, err)
	}
	fallback, err := util.ParseEncodingFallback(c.EncodingFallback)
	if err != nil {
		errs = append(errs, err)
	} else if _, err := util.NewNameDecoder(c.FilenameEncoding, fallback); err != nil {
		errs = append(errs, err)
	}
	if c.MaxArchiveDepth < 0 {
		errs = append(errs, fmt.Errorf("max_archive_depth must not be negative, got %d", c.MaxArchiveDepth))
	}
	if c.MaxExpandedBytes < 0 {
		errs = append(errs, fmt.Errorf("max_expanded_bytes must not be negative, got %d", c.MaxExpandedBytes))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Normalize.Width < 0 || c.Normalize.Height < 0 {
		errs = append(errs, fmt.Errorf("normalize size must not be negative, got %dx%d", c.Normalize.Width, c.Normalize.Height))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
