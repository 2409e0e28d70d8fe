package script

import "errors"

// Errors for script engine operations.
var (
	// ErrEngineClosed is returned when compiling or running on a closed engine.
	ErrEngineClosed = errors.New("script engine is closed")

	// ErrNotFunction is returned when a compiled chunk does not yield a function.
	ErrNotFunction = errors.New("script did not produce a function")
)

// ScriptError wraps a Lua compile or runtime error with the listener name.
type ScriptError struct {
	// Name identifies the script listener.
	Name string

	// Err is the underlying Lua error.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return "script " + e.Name + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
