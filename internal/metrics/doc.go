// Package metrics provides Prometheus metrics for observability.
//
// This package exposes metrics for Stashd operations including:
//   - Expired backups removed, broken down by tier and dry-run mode
//   - Removal failures, broken down by tier and dry-run mode
//   - Candidates produced by the metadata scan
//   - Scan and full-run durations
//   - Object store operation latency and request counters
//
// Metrics are exposed via a dedicated HTTP server on /metrics in Prometheus format.
//
// Usage:
//
//	// Create and register metrics
//	reaperMetrics := metrics.NewReaperMetrics()
//	objMetrics := metrics.NewObjectStoreMetrics()
//
//	// Wire into components
//	store := objectstore.NewInstrumentedStore(s3Store, objMetrics)
//
//	// Start metrics server
//	metricsServer := metrics.NewServer(":9090")
//	metricsServer.Start()
package metrics
