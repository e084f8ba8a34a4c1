// Package config holds the compiler's Options and the YAML configuration
// layer around it, in the style of fbc's config package.
package config

import (
	"bytes"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// SourceMapConfig controls Source Map v3 emission, per spec.md §6.
type SourceMapConfig struct {
	Enable       bool   `yaml:"enable"`
	EmbedSources bool   `yaml:"embed_sources"`
	Path         string `yaml:"path,omitempty"`
}

// Options is the embedding surface's compile-time configuration, per
// spec.md §6 "compile-string(source, options)".
type Options struct {
	Version        int             `yaml:"version"`
	OutputStyle    OutputStyle     `yaml:"output_style"`
	Precision      int             `yaml:"precision"`
	Linefeed       Linefeed        `yaml:"linefeed"`
	Indent         string          `yaml:"indent"`
	SourceComments bool            `yaml:"source_comments"`
	IncludePaths   []string        `yaml:"include_paths"`
	SourceMap      SourceMapConfig `yaml:"source_map"`
	Logging        LoggingConfig   `yaml:"logging"`
}

// Default returns the compiler's out-of-the-box configuration.
func Default() *Options {
	return &Options{
		Version:     1,
		OutputStyle: Nested,
		Precision:   5,
		Linefeed:    LF,
		Indent:      "  ",
	}
}

// LoadConfiguration reads and validates the YAML file at path, applying its
// values on top of Default(). An empty path returns the defaults.
func LoadConfiguration(path string) (*Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read configuration '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("unable to parse configuration '%s': %w", path, err)
	}
	if opts.Precision <= 0 {
		return nil, fmt.Errorf("configuration: precision must be positive, got %d", opts.Precision)
	}
	return opts, nil
}

// Dump serializes opts back to YAML, for the `dumpconfig` command.
func Dump(opts *Options) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(opts); err != nil {
		return nil, fmt.Errorf("unable to marshal configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Prepare returns the embedded default configuration, for `dumpconfig
// --default`.
func Prepare() ([]byte, error) {
	return Dump(Default())
}
