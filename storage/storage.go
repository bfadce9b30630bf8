package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the object at a path does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidPath is returned for paths that escape the storage root.
var ErrInvalidPath = errors.New("storage: invalid path")

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the object storage operations used for reports.
type Storage interface {
	// Upload writes data from reader to path, replacing any existing object.
	Upload(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	// Returns ErrNotFound if the object does not exist.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns a URL for accessing the object at the given path.
	URL(ctx context.Context, path string) (string, error)

	// List returns metadata for all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// Locator is implemented by filesystem-backed storage that can report
// where an object lives on disk.
type Locator interface {
	LocalPath(path string) (string, error)
}
