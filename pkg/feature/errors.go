package feature

import "errors"

// Predefined errors for the feature package.
var (
	// ErrMalformedFeature indicates a toggle definition that cannot be evaluated,
	// for example one whose strategies field is not a list.
	ErrMalformedFeature = errors.New("malformed feature")

	// ErrInvalidStrategy indicates a strategy that cannot be registered.
	ErrInvalidStrategy = errors.New("invalid feature strategy")

	// ErrInvalidDefinitions indicates a definitions document that cannot be decoded.
	ErrInvalidDefinitions = errors.New("invalid feature definitions")

	// ErrInvalidFlag indicates that the provided definition parameters are invalid.
	ErrInvalidFlag = errors.New("invalid feature flag parameters")

	// ErrFlagNotFound indicates that the requested feature flag was not found.
	ErrFlagNotFound = errors.New("feature flag not found")
)
