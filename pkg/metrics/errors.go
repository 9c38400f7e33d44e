package metrics

import "errors"

var (
	// ErrTransport indicates that a register or metrics request could not be sent.
	ErrTransport = errors.New("metrics request failed")

	// ErrUnexpectedStatus indicates a non-2xx response other than 404.
	ErrUnexpectedStatus = errors.New("unexpected metrics response status")

	// ErrEndpointNotFound indicates a 404 response. Reporting is disabled for
	// the rest of the process lifetime.
	ErrEndpointNotFound = errors.New("metrics endpoint not found")

	// ErrNilClient is returned by New when no transport is given.
	ErrNilClient = errors.New("http client cannot be nil")

	// ErrAlreadyStarted is returned by Start on a reporter that was started before.
	ErrAlreadyStarted = errors.New("metrics reporter already started")
)
