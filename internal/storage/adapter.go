package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
)

// ErrNotFound is returned by Get when nothing is stored at the path
var ErrNotFound = errors.New("storage: not found")

// Adapter defines the interface for storage backends that hold run records and decks
type Adapter interface {
	// Put stores data at the given path
	Put(ctx context.Context, path string, data io.Reader) error

	// Get retrieves data from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// List returns slash-separated paths matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cleans up any resources
	Close() error
}

// contentType guesses a MIME type from the key's extension
func contentType(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
