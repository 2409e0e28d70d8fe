package scenario

import (
	"errors"
	"fmt"
)

// Errors returned while loading and validating scenarios.
var (
	ErrUnknownFormat   = errors.New("unknown scenario format")
	ErrNoSteps         = errors.New("scenario has no steps")
	ErrUnknownListener = errors.New("unknown listener")
	ErrInvalidStep     = errors.New("invalid step")
	ErrInvalidListener = errors.New("invalid listener")
)

// ParseError reports a file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports an invalid part of a scenario.
type ValidationError struct {
	// Field locates the problem, e.g. "steps[2]" or "listeners.a".
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ListenerError is returned by scenario listeners configured to fail.
type ListenerError struct {
	Listener string
	Message  string
}

func (e *ListenerError) Error() string {
	return e.Message
}
