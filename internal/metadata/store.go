// Package metadata defines the MetadataStore interface and related types
// for the partitioned key-value store that tracks backup records.
// The default implementation uses Oxia.
//
// Backup records are partitioned into hash domains (see [CalculateDomain])
// so that a full scan can be split into independent segments, each covering
// a contiguous slice of the domain range.
package metadata

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound reports that a key does not exist.
	ErrKeyNotFound = errors.New("metadata: key not found")

	// ErrVersionMismatch reports a failed compare-and-set: the key's
	// current version differs from the expected one.
	ErrVersionMismatch = errors.New("metadata: version mismatch")

	// ErrStoreClosed reports an operation on a store after Close.
	ErrStoreClosed = errors.New("metadata: store closed")
)

// Version is the monotonically increasing version of a key, assigned by the
// store on every write. Zero means the key has never been written, which
// makes WithExpectedVersion(0) a create-only guard.
type Version int64

// KV is a key-value pair together with its current version.
type KV struct {
	Key     string
	Value   []byte
	Version Version
}

// GetResult carries the outcome of a Get. A missing key is reported through
// Exists, not through an error.
type GetResult struct {
	Value   []byte
	Version Version
	Exists  bool
}

// PutOption configures a Put operation.
type PutOption func(*putOptions)

type putOptions struct {
	expectedVersion *Version
}

// WithExpectedVersion turns a Put into a compare-and-set: the write succeeds
// only if the key's current version equals v, otherwise Put returns
// ErrVersionMismatch. Passing 0 requires that the key does not exist yet.
func WithExpectedVersion(v Version) PutOption {
	return func(o *putOptions) {
		o.expectedVersion = &v
	}
}

// ExtractExpectedVersion resolves the expected version from a Put option
// list, or nil when the caller did not ask for a version check.
// Implementations of MetadataStore use it to interpret their options.
func ExtractExpectedVersion(opts []PutOption) *Version {
	var o putOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o.expectedVersion
}

// MetadataStore is the backup record store. All operations take a context
// for cancellation and deadlines, and every operation on a closed store
// returns ErrStoreClosed.
type MetadataStore interface {
	// Get retrieves a value by key. A missing key is not an error; it is
	// reported as Exists=false in the result.
	Get(ctx context.Context, key string) (GetResult, error)

	// Put writes a value and returns the version assigned to it. Combine
	// with WithExpectedVersion for optimistic concurrency control.
	Put(ctx context.Context, key string, value []byte, opts ...PutOption) (Version, error)

	// Delete removes a key. Deleting a key that does not exist is a no-op
	// success, so Delete can be safely retried.
	Delete(ctx context.Context, key string) error

	// List returns keys in the range [startKey, endKey) in lexicographic
	// order, at most limit of them when limit is positive. An empty endKey
	// means "every key prefixed by startKey".
	//
	// Lexicographic ordering keeps all records of one hash domain
	// contiguous under that domain's key prefix.
	List(ctx context.Context, startKey, endKey string, limit int) ([]KV, error)

	// Close releases resources held by the store.
	Close() error
}
