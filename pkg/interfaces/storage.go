package interfaces

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by ObjectStore.Get for unknown paths.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStore is the object-storage collaborator used by the media pipeline.
// Paths are slash separated keys relative to the bucket or root directory.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	// Remove deletes every path. Missing paths are not an error.
	Remove(ctx context.Context, paths ...string) error
	PublicURL(path string) string
}
