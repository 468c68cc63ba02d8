package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrCompile is returned when script source does not parse.
	ErrCompile = errors.New("lua compile error")
)

// ScriptError wraps a runtime error raised by a script.
type ScriptError struct {
	Script string
	Err    error
}

func (e *ScriptError) Error() string {
	return "lua script " + e.Script + ": " + e.Err.Error()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
