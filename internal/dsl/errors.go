package dsl

import "errors"

// Sentinel errors. Every parse or projection failure wraps one of these with
// %w so callers can classify without matching message text.
var (
	ErrEmpty       = errors.New("empty input")
	ErrSyntax      = errors.New("syntax error")
	ErrValue       = errors.New("invalid value")
	ErrUnsupported = errors.New("unsupported")
)
