package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no object exists under the given key.
var ErrNotFound = errors.New("storage: object not found")

// Backend abstracts the blob store holding uploaded photos. Keys are
// slash-separated paths namespaced per event ("events/{code}/...").
type Backend interface {
	// Put stores the object under key, overwriting any previous object.
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	// Get returns a reader for the object and its size. The caller must close
	// the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PublicURL returns the URL under which the object can be fetched.
	PublicURL(key string) string
}
