package sequence

import (
	"slices"
	"time"

	"github.com/dshills/secretcode/internal/input/key"
)

// Defaults used by DefaultConfig.
const (
	DefaultNotificationID = "SecretCodeMatch"
	DefaultIdleTimeout    = 850 * time.Millisecond
)

// DefaultTarget is the demo code: the digit keys 1 2 3 4 5.
var DefaultTarget = []key.Code{49, 50, 51, 52, 53}

// Config configures a Matcher.
type Config struct {
	// Target is the sequence to recognize. Must not be empty.
	Target []key.Code

	// NotificationID names the success notification.
	// Empty resolves to DefaultNotificationID.
	NotificationID string

	// IdleTimeout clears a partial match after this long without input.
	// Must be positive.
	IdleTimeout time.Duration
}

// DefaultConfig returns a configuration with the demo defaults.
func DefaultConfig() Config {
	return Config{
		Target:         slices.Clone(DefaultTarget),
		NotificationID: DefaultNotificationID,
		IdleTimeout:    DefaultIdleTimeout,
	}
}

// Validate reports the first configuration error, or nil.
func (c Config) Validate() error {
	if len(c.Target) == 0 {
		return &ConfigError{Field: "target", Err: ErrEmptyTarget}
	}
	for _, code := range c.Target {
		if code < 0 {
			return &ConfigError{Field: "target", Err: ErrInvalidSymbol}
		}
	}
	if c.IdleTimeout <= 0 {
		return &ConfigError{Field: "idle_timeout", Err: ErrInvalidTimeout}
	}
	return nil
}

// ResolvedID returns the notification ID with the default applied.
func (c Config) ResolvedID() string {
	if c.NotificationID == "" {
		return DefaultNotificationID
	}
	return c.NotificationID
}
