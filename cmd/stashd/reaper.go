package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/stashd-io/stashd/internal/backup"
	"github.com/stashd-io/stashd/internal/config"
	"github.com/stashd-io/stashd/internal/logging"
	metaoxia "github.com/stashd-io/stashd/internal/metadata/oxia"
	"github.com/stashd-io/stashd/internal/metrics"
	"github.com/stashd-io/stashd/internal/objectstore"
	"github.com/stashd-io/stashd/internal/objectstore/s3"
	"github.com/stashd-io/stashd/internal/reaper"
)

func runReaper(args []string) {
	fs := flag.NewFlagSet("reaper", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	segments := fs.Int("segments", 0, "Number of parallel scan segments (default: 1)")
	gracePeriod := fs.Int64("grace-period", 0, "Grace period in seconds before a backup expires (default: 5184000, 60 days)")
	maxConcurrency := fs.Int("max-concurrency", 0, "Maximum concurrent removals (default: 16)")
	dryRun := fs.Bool("dry-run", true, "Scan and count without deleting anything (default: true)")
	metricsAddr := fs.String("metrics-addr", "", "Override metrics endpoint address (e.g., :9090)")

	fs.Usage = func() {
		fmt.Println(`Usage: stashd reaper [options]

Scan the metadata store for expired backups and remove their data.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI overrides. Only flags the user actually set win over the
	// config file; dry-run needs the same treatment because its default
	// is true.
	dryRunSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "dry-run" {
			dryRunSet = true
		}
	})
	if *segments > 0 {
		cfg.Reaper.Segments = *segments
	}
	if *gracePeriod > 0 {
		cfg.Reaper.GracePeriodSeconds = *gracePeriod
	}
	if *maxConcurrency > 0 {
		cfg.Reaper.MaxConcurrency = *maxConcurrency
	}
	if dryRunSet {
		cfg.Reaper.DryRun = *dryRun
	}
	if *metricsAddr != "" {
		cfg.Observability.MetricsAddr = *metricsAddr
	}

	// Set up the process logger; every entry carries the run ID.
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Observability.LogLevel),
		Format: logging.ParseFormat(cfg.Observability.LogFormat),
	}).With(map[string]any{
		"runId": uuid.New().String(),
	})
	logging.SetGlobal(logger)

	logger.Infof("stashd reaper", map[string]any{
		"version": version,
		"commit":  gitCommit,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the run on SIGINT/SIGTERM; in-flight removals finish, the
	// scan stops producing candidates.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warnf("received signal, cancelling run", map[string]any{
			"signal": sig.String(),
		})
		cancel()
	}()

	tally, err := runOnce(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("reaper run failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	// Individual removal failures are reported in the tally but do not
	// fail the run.
	logger.Infof("reaper run complete", map[string]any{
		"removed": tally.Removed(),
		"failed":  tally.Failed(),
		"dryRun":  cfg.Reaper.DryRun,
	})
}

// runOnce wires the stores, metrics and runner together and executes a
// single reaper run.
func runOnce(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*reaper.Tally, error) {
	metaStore, err := metaoxia.New(ctx, metaoxia.Config{
		ServiceAddress: cfg.Metadata.OxiaEndpoint,
		Namespace:      cfg.Metadata.Namespace,
		RequestTimeout: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create metadata store: %w", err)
	}

	objStore, err := s3.New(ctx, s3.Config{
		Bucket:          cfg.ObjectStore.Bucket,
		Region:          cfg.ObjectStore.Region,
		Endpoint:        cfg.ObjectStore.Endpoint,
		AccessKeyID:     cfg.ObjectStore.AccessKey,
		SecretAccessKey: cfg.ObjectStore.SecretKey,
		UsePathStyle:    cfg.ObjectStore.UsePathStyle,
	})
	if err != nil {
		metaStore.Close()
		return nil, fmt.Errorf("create object store: %w", err)
	}

	reaperMetrics := metrics.NewReaperMetrics()
	objMetrics := metrics.NewObjectStoreMetrics()
	instrumented := objectstore.NewInstrumentedStore(objStore, objMetrics)

	scanner := backup.NewScanner(metaStore, backup.ScannerConfig{
		NumDomains: cfg.Metadata.NumDomains,
	})
	manager := backup.NewManager(metaStore, instrumented, cfg.Metadata.NumDomains)

	runner := reaper.NewRunner(scanner, manager, reaper.RunnerConfig{
		Segments:       cfg.Reaper.Segments,
		GracePeriod:    time.Duration(cfg.Reaper.GracePeriodSeconds) * time.Second,
		MaxConcurrency: cfg.Reaper.MaxConcurrency,
		DryRun:         cfg.Reaper.DryRun,
	}).
		WithLogger(logger).
		WithMetrics(reaperMetrics).
		WithResources(
			&metadataResource{store: metaStore},
			&objectStoreResource{store: instrumented},
			&metricsResource{server: metrics.NewServer(cfg.Observability.MetricsAddr)},
		)

	return runner.Run(ctx)
}
