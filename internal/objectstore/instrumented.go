package objectstore

import (
	"context"
	"io"
	"time"
)

// MetricsRecorder receives per-operation latency and outcome observations.
// Keeping it as an interface here avoids a dependency on the metrics package.
type MetricsRecorder interface {
	RecordPut(durationSeconds float64, success bool, bytes int64)
	RecordGet(durationSeconds float64, success bool)
	RecordHead(durationSeconds float64, success bool)
	RecordDelete(durationSeconds float64, success bool)
	RecordList(durationSeconds float64, success bool)
}

// nopRecorder discards all observations.
type nopRecorder struct{}

func (nopRecorder) RecordPut(float64, bool, int64) {}
func (nopRecorder) RecordGet(float64, bool)        {}
func (nopRecorder) RecordHead(float64, bool)       {}
func (nopRecorder) RecordDelete(float64, bool)     {}
func (nopRecorder) RecordList(float64, bool)       {}

// InstrumentedStore decorates a Store, timing every operation and feeding
// the observations to a MetricsRecorder.
type InstrumentedStore struct {
	store   Store
	metrics MetricsRecorder
}

// NewInstrumentedStore wraps store. A nil recorder disables instrumentation
// and the wrapper becomes a plain pass-through.
func NewInstrumentedStore(store Store, metrics MetricsRecorder) *InstrumentedStore {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &InstrumentedStore{store: store, metrics: metrics}
}

func elapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}

func (s *InstrumentedStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := s.store.Put(ctx, key, reader, size, contentType)
	s.metrics.RecordPut(elapsed(start), err == nil, size)
	return err
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.store.Get(ctx, key)
	s.metrics.RecordGet(elapsed(start), err == nil)
	return rc, err
}

func (s *InstrumentedStore) Head(ctx context.Context, key string) (ObjectMeta, error) {
	start := time.Now()
	meta, err := s.store.Head(ctx, key)
	s.metrics.RecordHead(elapsed(start), err == nil)
	return meta, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.store.Delete(ctx, key)
	s.metrics.RecordDelete(elapsed(start), err == nil)
	return err
}

func (s *InstrumentedStore) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	start := time.Now()
	metas, err := s.store.List(ctx, prefix)
	s.metrics.RecordList(elapsed(start), err == nil)
	return metas, err
}

func (s *InstrumentedStore) Close() error {
	return s.store.Close()
}

var _ Store = (*InstrumentedStore)(nil)
