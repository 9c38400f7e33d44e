package httpclient

import "errors"

var (
	// ErrInvalidURL indicates a toggle service URL that is empty or not absolute.
	ErrInvalidURL = errors.New("invalid toggle service url")

	// ErrMissingAppName indicates that no application name was configured.
	ErrMissingAppName = errors.New("application name is required")

	// ErrHeaderFunc wraps failures of the custom header function.
	ErrHeaderFunc = errors.New("custom header function failed")
)
