package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration.
var (
	// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidInput is returned for an unknown input source.
	ErrInvalidInput = errors.New("invalid input source")

	// ErrDuplicateCode is returned when two codes share a notification ID.
	ErrDuplicateCode = errors.New("duplicate code name")

	// ErrInvalidCodeName is returned for a code name that cannot be used as
	// a single event topic segment.
	ErrInvalidCodeName = errors.New("invalid code name")

	// ErrAmbiguousTarget is returned when a code sets both keys and sequence.
	ErrAmbiguousTarget = errors.New("code sets both keys and sequence")
)

// ParseError reports a file that could not be decoded.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CodeError reports an invalid [[code]] entry.
type CodeError struct {
	// Index is the position of the entry in the file.
	Index int
	Name  string
	Err   error
}

func (e *CodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("code %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("code %d: %v", e.Index, e.Err)
}

func (e *CodeError) Unwrap() error {
	return e.Err
}
