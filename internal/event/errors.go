package event

import "errors"

// ErrInvalidStopLevel is returned by ParseStopLevel for unknown names.
var ErrInvalidStopLevel = errors.New("invalid stop level")
