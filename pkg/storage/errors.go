package storage

import "errors"

var (
	// ErrNotFound is returned by a Backend when nothing has been persisted yet.
	ErrNotFound = errors.New("backup not found")

	// ErrLoadFailed indicates the backup could not be read.
	ErrLoadFailed = errors.New("failed to load backup")

	// ErrCorruptBackup indicates the backup was read but could not be decoded.
	ErrCorruptBackup = errors.New("corrupt backup")

	// ErrPersistFailed indicates the backup could not be written.
	ErrPersistFailed = errors.New("failed to persist backup")
)
