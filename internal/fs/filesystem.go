package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"

	"github.com/spf13/afero"
)

// ErrNotRegularFile is returned when a path names a directory or device
var ErrNotRegularFile = errors.New("not a regular file")

// Factory provides filesystem instances for production and testing
type Factory interface {
	// Production returns a filesystem that operates on the real OS filesystem
	Production() afero.Fs
	// Memory returns an in-memory filesystem for testing
	Memory() afero.Fs
}

// DefaultFactory provides the standard filesystem factory implementation
type DefaultFactory struct{}

// NewDefaultFactory creates a new filesystem factory
func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

// Production returns a filesystem that operates on the real OS filesystem
func (f *DefaultFactory) Production() afero.Fs {
	return afero.NewOsFs()
}

// Memory returns an in-memory filesystem for testing
func (f *DefaultFactory) Memory() afero.Fs {
	return afero.NewMemMapFs()
}

// StatRegular stats path and requires it to be a regular file. A missing
// path keeps its fs.ErrNotExist so callers can test for it with errors.Is.
func StatRegular(filesystem afero.Fs, path string) (iofs.FileInfo, error) {
	info, err := filesystem.Stat(path)
	if err != nil {
		slog.Debug("stat failed", "path", path, "error", err)
		return nil, err
	}
	if !info.Mode().IsRegular() {
		slog.Debug("path is not a regular file", "path", path, "mode", info.Mode().String())
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	return info, nil
}
