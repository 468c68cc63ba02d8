package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application is not running.
	ErrNotRunning = errors.New("application not running")

	// ErrInitialization indicates a component failed to start.
	ErrInitialization = errors.New("initialization failed")

	// ErrShutdownTimeout indicates shutdown timed out.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name, e.g. "reload"
	Target string // Target of the operation, e.g. a file path or code name
	Err    error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

func (e *OperationError) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ComponentError reports a failure of one component during startup.
type ComponentError struct {
	Component string // e.g. "bus", "input", "code"
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInitialization, e.Component, e.Err)
}

func (e *ComponentError) Unwrap() []error {
	return []error{ErrInitialization, e.Err}
}
