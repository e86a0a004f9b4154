package services

import "errors"

var (
	// ErrModelUnavailable means the backend could not be loaded; the process must not serve.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrGeneration wraps failures inside a generation call.
	ErrGeneration = errors.New("generation failed")
	// ErrNotConfigured is returned by the activity hook when DATA_BASE_URL is unset.
	ErrNotConfigured = errors.New("DATA_BASE_URL is not configured")
	// ErrStore wraps failures of a configured store.
	ErrStore = errors.New("store error")
)
