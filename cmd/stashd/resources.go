package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/stashd-io/stashd/internal/metadata"
	"github.com/stashd-io/stashd/internal/metadata/keys"
	"github.com/stashd-io/stashd/internal/metrics"
	"github.com/stashd-io/stashd/internal/objectstore"
)

// probeObjectKey is the key used for object store connectivity checks.
// It is never written; a clean not-found answer proves the bucket is
// reachable with the configured credentials.
const probeObjectKey = "backups/.probe"

// metadataResource manages the metadata store's lifecycle around a run.
type metadataResource struct {
	store metadata.MetadataStore
}

func (r *metadataResource) Name() string { return "metadata-store" }

func (r *metadataResource) Start(ctx context.Context) error {
	if _, err := r.store.Get(ctx, keys.ProbeKey); err != nil {
		return fmt.Errorf("metadata store probe: %w", err)
	}
	return nil
}

func (r *metadataResource) Stop(context.Context) error {
	return r.store.Close()
}

// objectStoreResource manages the object store's lifecycle around a run.
type objectStoreResource struct {
	store objectstore.Store
}

func (r *objectStoreResource) Name() string { return "object-store" }

func (r *objectStoreResource) Start(ctx context.Context) error {
	_, err := r.store.Head(ctx, probeObjectKey)
	if err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		return fmt.Errorf("object store probe: %w", err)
	}
	return nil
}

func (r *objectStoreResource) Stop(context.Context) error {
	return r.store.Close()
}

// metricsResource manages the Prometheus scrape endpoint around a run.
type metricsResource struct {
	server *metrics.Server
}

func (r *metricsResource) Name() string { return "metrics-server" }

func (r *metricsResource) Start(context.Context) error {
	return r.server.Start()
}

func (r *metricsResource) Stop(context.Context) error {
	return r.server.Close()
}
