package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport indicates that the toggle service could not be reached,
	// including failures to compute custom headers.
	ErrTransport = errors.New("toggle service request failed")

	// ErrUnexpectedStatus indicates a response status other than 2xx or 304.
	ErrUnexpectedStatus = errors.New("unexpected toggle service response status")

	// ErrPayloadParse indicates a 2xx response whose body is not a valid toggle document.
	ErrPayloadParse = errors.New("cannot parse toggle service response")

	// ErrAlreadyStarted is returned by Start on a repository that was started before.
	ErrAlreadyStarted = errors.New("repository already started")

	// ErrNilClient is returned by New when no transport is given.
	ErrNilClient = errors.New("http client cannot be nil")
)

// StatusError reports a non-2xx, non-304 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d", e.URL, e.StatusCode)
}

// Is matches ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
