// Package oxia implements the MetadataStore interface using Oxia.
package oxia

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	oxiaclient "github.com/oxia-db/oxia/oxia"

	"github.com/stashd-io/stashd/internal/metadata"
)

// Config configures the Oxia metadata store.
type Config struct {
	// ServiceAddress is the Oxia service endpoint, e.g. "localhost:6648".
	ServiceAddress string

	// Namespace scopes all keys, e.g. "stash/prod".
	Namespace string

	// RequestTimeout bounds individual requests. Zero means the client
	// default of 30 seconds.
	RequestTimeout time.Duration
}

func (c Config) validate() error {
	if c.ServiceAddress == "" {
		return errors.New("oxia: service address is required")
	}
	if c.Namespace == "" {
		return errors.New("oxia: namespace is required")
	}
	return nil
}

// Store implements metadata.MetadataStore using Oxia.
type Store struct {
	client oxiaclient.SyncClient
	config Config
	closed atomic.Bool
}

// New connects to Oxia and returns a store scoped to the configured
// namespace.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	clientOpts := []oxiaclient.ClientOption{
		oxiaclient.WithNamespace(cfg.Namespace),
	}
	if cfg.RequestTimeout > 0 {
		clientOpts = append(clientOpts, oxiaclient.WithRequestTimeout(cfg.RequestTimeout))
	}

	client, err := oxiaclient.NewSyncClient(cfg.ServiceAddress, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("oxia: failed to create client: %w", err)
	}

	return &Store{client: client, config: cfg}, nil
}

// Oxia version ids start at 0 while metadata.Version reserves 0 for
// "record does not exist", so the store shifts by one in each direction.

func versionFromOxia(id int64) metadata.Version {
	return metadata.Version(id + 1)
}

func versionToOxia(v metadata.Version) int64 {
	return int64(v - 1)
}

// Get returns the value stored under key, if any.
func (s *Store) Get(ctx context.Context, key string) (metadata.GetResult, error) {
	if s.closed.Load() {
		return metadata.GetResult{}, metadata.ErrStoreClosed
	}

	_, value, version, err := s.client.Get(ctx, key)
	switch {
	case errors.Is(err, oxiaclient.ErrKeyNotFound):
		return metadata.GetResult{}, nil
	case err != nil:
		return metadata.GetResult{}, fmt.Errorf("oxia: get failed: %w", err)
	}

	return metadata.GetResult{
		Value:   value,
		Version: versionFromOxia(version.VersionId),
		Exists:  true,
	}, nil
}

// Put writes value under key, optionally guarded by an expected version.
func (s *Store) Put(ctx context.Context, key string, value []byte, opts ...metadata.PutOption) (metadata.Version, error) {
	if s.closed.Load() {
		return 0, metadata.ErrStoreClosed
	}

	var putOpts []oxiaclient.PutOption
	if expected := metadata.ExtractExpectedVersion(opts); expected != nil {
		if *expected == 0 {
			// An expected version of 0 means the key must not exist yet.
			putOpts = append(putOpts, oxiaclient.ExpectedRecordNotExists())
		} else {
			putOpts = append(putOpts, oxiaclient.ExpectedVersionId(versionToOxia(*expected)))
		}
	}

	_, version, err := s.client.Put(ctx, key, value, putOpts...)
	switch {
	case errors.Is(err, oxiaclient.ErrUnexpectedVersionId):
		return 0, metadata.ErrVersionMismatch
	case err != nil:
		return 0, fmt.Errorf("oxia: put failed: %w", err)
	}

	return versionFromOxia(version.VersionId), nil
}

// Delete removes a key. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return metadata.ErrStoreClosed
	}

	err := s.client.Delete(ctx, key)
	switch {
	case err == nil, errors.Is(err, oxiaclient.ErrKeyNotFound):
		return nil
	default:
		return fmt.Errorf("oxia: delete failed: %w", err)
	}
}

// List returns keys in the range [startKey, endKey) in lexicographic order.
func (s *Store) List(ctx context.Context, startKey, endKey string, limit int) ([]metadata.KV, error) {
	if s.closed.Load() {
		return nil, metadata.ErrStoreClosed
	}

	// An empty endKey means startKey is a prefix. Oxia sorts keys with '/'
	// treated specially: for prefixes ending in '/' the double-slash end
	// key covers all direct children, otherwise derive the next
	// lexicographic key.
	if endKey == "" {
		if len(startKey) > 0 && startKey[len(startKey)-1] == '/' {
			endKey = startKey + "/"
		} else {
			endKey = prefixEnd(startKey)
		}
	}

	scan := s.client.RangeScan(ctx, startKey, endKey)

	var out []metadata.KV
	for item := range scan {
		if item.Err != nil {
			return nil, fmt.Errorf("oxia: list failed: %w", item.Err)
		}

		out = append(out, metadata.KV{
			Key:     item.Key,
			Value:   item.Value,
			Version: versionFromOxia(item.Version.VersionId),
		})

		if limit > 0 && len(out) >= limit {
			// Drain the remaining results so the scan goroutine can exit.
			go func() {
				for range scan {
				}
			}()
			return out, nil
		}
	}
	return out, nil
}

// Close releases the Oxia client. Close is idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

// prefixEnd derives the smallest key sorting after every key that carries
// the given prefix.
func prefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == 0xFF {
			continue
		}
		b[i]++
		return string(b[:i+1])
	}
	// Empty prefix, or every byte is 0xFF: the range is unbounded.
	return ""
}

var _ metadata.MetadataStore = (*Store)(nil)
