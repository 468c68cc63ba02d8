package config

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dshills/secretcode/internal/input/key"
	"github.com/dshills/secretcode/internal/sequence"
)

// Input sources.
const (
	InputTerminal = "terminal"
	InputStdin    = "stdin"
)

// Config is the complete application configuration.
type Config struct {
	Log   LogConfig    `toml:"log" yaml:"log"`
	Input InputConfig  `toml:"input" yaml:"input"`
	Codes []CodeConfig `toml:"code" yaml:"code"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
	// File receives log output. Empty means stderr for stdin input and
	// nowhere for terminal input.
	File string `toml:"file" yaml:"file"`
}

// InputConfig selects where key presses come from.
type InputConfig struct {
	Source string `toml:"source" yaml:"source"`
}

// CodeConfig defines one secret code.
type CodeConfig struct {
	// Name is the notification ID published on a match.
	Name string `toml:"name" yaml:"name"`

	// Keys is the target as key names, e.g. "Up Up Down Down b a".
	Keys string `toml:"keys" yaml:"keys"`

	// Sequence is the target as raw key codes.
	Sequence []int `toml:"sequence" yaml:"sequence"`

	// IdleTimeoutMs is the idle timeout in milliseconds. Zero means the
	// default.
	IdleTimeoutMs int `toml:"idle_timeout_ms" yaml:"idle_timeout_ms"`

	// Message is shown when the code is matched.
	Message string `toml:"message" yaml:"message"`

	// Script is Lua source run when the code is matched.
	Script string `toml:"script" yaml:"script"`

	// Once releases the matcher after its first match.
	Once bool `toml:"once" yaml:"once"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log:   LogConfig{Level: "info"},
		Input: InputConfig{Source: InputTerminal},
		Codes: []CodeConfig{DefaultCode()},
	}
}

// DefaultCode returns the demo code definition.
func DefaultCode() CodeConfig {
	seq := make([]int, len(sequence.DefaultTarget))
	for i, c := range sequence.DefaultTarget {
		seq[i] = int(c)
	}
	return CodeConfig{
		Name:          sequence.DefaultNotificationID,
		Sequence:      seq,
		IdleTimeoutMs: int(sequence.DefaultIdleTimeout / time.Millisecond),
		Message:       "Secret code entered!",
	}
}

// Target resolves the code's key sequence.
func (c CodeConfig) Target() ([]key.Code, error) {
	if c.Keys != "" && len(c.Sequence) > 0 {
		return nil, ErrAmbiguousTarget
	}
	if c.Keys != "" {
		return key.ParseCodes(c.Keys)
	}
	codes := make([]key.Code, len(c.Sequence))
	for i, n := range c.Sequence {
		codes[i] = key.Code(n)
	}
	return codes, nil
}

// MatcherConfig converts the entry into a validated matcher configuration.
func (c CodeConfig) MatcherConfig() (sequence.Config, error) {
	target, err := c.Target()
	if err != nil {
		return sequence.Config{}, err
	}
	timeout := sequence.DefaultIdleTimeout
	if c.IdleTimeoutMs != 0 {
		timeout = time.Duration(c.IdleTimeoutMs) * time.Millisecond
	}
	mc := sequence.Config{
		Target:         target,
		NotificationID: c.Name,
		IdleTimeout:    timeout,
	}
	if err := mc.Validate(); err != nil {
		return sequence.Config{}, err
	}
	return mc, nil
}

// Validate checks every section and returns the first error.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	switch c.Input.Source {
	case "", InputTerminal, InputStdin:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidInput, c.Input.Source)
	}

	seen := make(map[string]bool, len(c.Codes))
	for i, code := range c.Codes {
		mc, err := code.MatcherConfig()
		if err != nil {
			return &CodeError{Index: i, Name: code.Name, Err: err}
		}
		id := mc.ResolvedID()
		if !validCodeName(id) {
			return &CodeError{Index: i, Name: code.Name, Err: fmt.Errorf("%w: %q", ErrInvalidCodeName, id)}
		}
		if seen[id] {
			return &CodeError{Index: i, Name: code.Name, Err: ErrDuplicateCode}
		}
		seen[id] = true
	}
	return nil
}

// validCodeName reports whether name can stand as one segment of the
// "code.<name>" match topic: no dots, no wildcards, no spaces.
func validCodeName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return r == '.' || r == '*' || unicode.IsSpace(r)
	})
}

// ApplyDefaults fills unset sections. A config without codes gets the
// demo code.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Input.Source == "" {
		c.Input.Source = InputTerminal
	}
	if len(c.Codes) == 0 {
		c.Codes = []CodeConfig{DefaultCode()}
	}
}
