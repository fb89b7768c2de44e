package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrNotConfigured = errors.New("classifier not configured")
	ErrUnrecognized  = errors.New("no recognizable company name")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoInput       = errors.New("no readable input")
)
