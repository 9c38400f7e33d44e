package storage

import (
	"context"
	"strings"
)

// Backend reads and writes the serialized backup of one application.
type Backend interface {
	// Read returns the persisted bytes, or ErrNotFound when nothing was persisted.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the persisted bytes.
	Write(ctx context.Context, data []byte) error
}

// SafeName replaces every rune outside [A-Za-z0-9._-] with an underscore so
// application names can be used in file names and keys.
func SafeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}
