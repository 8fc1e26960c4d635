package domain

import "errors"

var (
	// ErrInvalidQuery signals a missing or malformed request parameter.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrProviderNotConfigured signals missing provider credentials.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrProviderUnavailable signals a transient provider failure
	// (network error, non-2xx status, timeout).
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrEngineUnavailable signals a catalog index failure.
	ErrEngineUnavailable = errors.New("catalog engine unavailable")
)
