package flagsync

import "errors"

var (
	// ErrInvalidConfig is returned by New and Config.Validate for unusable settings.
	ErrInvalidConfig = errors.New("invalid flagsync config")

	// ErrBootstrap is returned by New when the bootstrap file cannot be read or decoded.
	ErrBootstrap = errors.New("cannot load bootstrap toggles")

	// ErrBackend is returned by New when the Redis backup backend cannot be reached.
	ErrBackend = errors.New("cannot open backup backend")
)
