package scene

import (
	"errors"
	"fmt"
)

// Errors for scene loading and execution.
var (
	// ErrUnsupportedScene is returned for files that are neither Lua nor JSON.
	ErrUnsupportedScene = errors.New("unsupported scene format")

	// ErrSceneClosed is returned when running a closed scene.
	ErrSceneClosed = errors.New("scene is closed")

	// ErrTimeout is returned when a script runs longer than its limit.
	ErrTimeout = errors.New("scene script timeout")
)

// ScriptError reports a failure in scene source, with the line when known.
type ScriptError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
