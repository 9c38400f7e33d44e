package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FilePrefix is the prefix of backup file names.
const FilePrefix = "flagsync-repo-schema-v1-"

// FileBackend stores the backup as a JSON file. Writes go to a temporary file
// in the same directory which is then renamed over the backup. The directory
// is never created.
type FileBackend struct {
	fs   afero.Fs
	path string
}

// NewFileBackend creates a file backend for app in dir. An empty dir means
// the operating system temp directory; a nil fs means the real filesystem.
func NewFileBackend(fsys afero.Fs, dir, app string) *FileBackend {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileBackend{
		fs:   fsys,
		path: filepath.Join(dir, FilePrefix+SafeName(app)+".json"),
	}
}

// Path returns the backup file path.
func (b *FileBackend) Path() string {
	return b.path
}

// Read returns the backup file content.
func (b *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write atomically replaces the backup file.
func (b *FileBackend) Write(_ context.Context, data []byte) error {
	dir, name := filepath.Split(b.path)
	tmp, err := afero.TempFile(b.fs, dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmpName)
		return err
	}
	if err := b.fs.Rename(tmpName, b.path); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
