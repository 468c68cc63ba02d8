package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ResolvePath and ApplyEnv.
const (
	EnvConfig   = "SECRETCODE_CONFIG"
	EnvLogLevel = "SECRETCODE_LOG_LEVEL"
	EnvLogFile  = "SECRETCODE_LOG_FILE"
	EnvInput    = "SECRETCODE_INPUT"
)

// DefaultFileName is looked up in the user config directory.
const DefaultFileName = "config.toml"

// Format identifies a config file syntax.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format implied by the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ResolvePath picks the config file: the explicit path if set, then
// $SECRETCODE_CONFIG, then <user config dir>/secretcode/config.toml.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p, ok := os.LookupEnv(EnvConfig); ok && p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(dir, "secretcode", DefaultFileName)
}

// Load reads and validates the file at path. A missing file yields
// Default. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			ApplyEnv(cfg, os.LookupEnv)
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(path, format, data)
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the given format. Unknown keys are rejected.
// Unset sections get their defaults; the result is not validated.
func Parse(source string, format Format, data []byte) (*Config, error) {
	var cfg Config
	var err error

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		// An empty document is an empty config.
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, newParseError(source, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

func newParseError(source string, err error) *ParseError {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}

	var de *toml.DecodeError
	if errors.As(err, &de) {
		pe.Line, pe.Column = de.Position()
	}
	var sme *toml.StrictMissingError
	if errors.As(err, &sme) {
		pe.Message = sme.String()
	}
	return pe
}

// ApplyEnv overrides cfg from environment variables obtained by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		cfg.Log.File = v
	}
	if v, ok := lookup(EnvInput); ok && v != "" {
		cfg.Input.Source = v
	}
}
