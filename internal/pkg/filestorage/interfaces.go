package filestorage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a reference does not resolve to a stored file
var ErrNotFound = errors.New("stored file not found")

// FileStorage stores generated documents under opaque references
type FileStorage interface {
	// Save writes content under subPath with a unique name keeping ext, and returns its reference
	Save(ctx context.Context, subPath, ext string, content []byte) (string, error)

	// Read returns the content stored under a reference
	Read(ctx context.Context, reference string) ([]byte, error)

	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, reference string) error
}
