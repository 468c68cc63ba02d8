package sequence

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	// ErrEmptyTarget indicates a matcher was configured without a target.
	ErrEmptyTarget = errors.New("target sequence is empty")

	// ErrInvalidTimeout indicates a non-positive idle timeout.
	ErrInvalidTimeout = errors.New("idle timeout must be positive")

	// ErrInvalidSymbol indicates a negative key code in the target.
	ErrInvalidSymbol = errors.New("key code must not be negative")

	// ErrNilSource indicates a matcher was created without an input source.
	ErrNilSource = errors.New("input source is nil")

	// ErrNilNotifier indicates a matcher was created without a notifier.
	ErrNilNotifier = errors.New("notifier is nil")
)

// ConfigError reports an invalid matcher configuration field.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sequence config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
