// Package objectstore defines the Store interface for S3-compatible storage.
//
// This package provides the abstraction for the object storage that holds
// backup blobs. The interface is designed to be compatible with S3, GCS,
// and Azure Blob Storage.
//
// The reaper only ever lists and deletes under a backup's key prefix; Put,
// Get and Head exist for the surrounding service, for connectivity probes
// and for tests.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotFound reports that the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrBucketNotFound reports that the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied reports that the credentials lack permission for
	// the attempted operation.
	ErrAccessDenied = errors.New("access denied")
)

// ObjectError decorates a storage error with the operation and object key
// it came from. The sentinel errors above are reachable through Unwrap.
type ObjectError struct {
	Op  string
	Key string
	Err error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("objectstore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// ObjectMeta describes an object without its body.
type ObjectMeta struct {
	// Key is the object's full key within the bucket.
	Key string

	// Size is the body size in bytes.
	Size int64

	// ContentType is the MIME type recorded at write time.
	ContentType string

	// ETag is the provider-assigned entity tag.
	ETag string

	// LastModified is the last write time in Unix milliseconds.
	LastModified int64
}

// Store is the object storage abstraction. Implementations must be safe for
// concurrent use and should report failures as ObjectError values wrapping
// the package sentinel errors.
type Store interface {
	// Put stores an object at the given key. The reader is consumed until
	// EOF; size must match the number of bytes it yields, since some
	// providers require the length up front.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Get retrieves an entire object. The caller owns the returned
	// ReadCloser. A missing object yields ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Head retrieves object metadata without the body. A missing object
	// yields ErrNotFound.
	Head(ctx context.Context, key string) (ObjectMeta, error)

	// Delete removes an object. Deleting a missing object is a silent
	// success, matching S3 semantics, so deletes can be retried freely.
	Delete(ctx context.Context, key string) error

	// List returns every object under prefix, ordered by key. Prefixes
	// ending in "/" act like directory listings, e.g. "backups/00042/abc/"
	// covers all objects of that backup. Implementations may paginate
	// internally but always return the complete result.
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)

	// Close releases resources associated with the store. Operations after
	// Close fail.
	Close() error
}
