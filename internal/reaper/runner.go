package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/stashd-io/stashd/internal/backup"
	"github.com/stashd-io/stashd/internal/logging"
	"github.com/stashd-io/stashd/internal/metrics"
)

// Managed is a resource with a lifecycle bracketing the run: started before
// the scan, stopped after the pipeline drains.
type Managed interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// RunnerConfig configures a reaper run.
type RunnerConfig struct {
	// Segments is the number of parallel scan segments.
	// Default: 1
	Segments int

	// GracePeriod is how long a backup may go unrefreshed before it
	// expires. The cutoff is the run's start time minus this period.
	// Default: 60 days
	GracePeriod time.Duration

	// MaxConcurrency caps the number of removals in flight.
	// Default: 16
	MaxConcurrency int

	// DryRun counts candidates without deleting anything.
	DryRun bool
}

// DefaultRunnerConfig returns a default configuration. Dry-run is on by
// default: destructive behavior must be requested explicitly.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Segments:       1,
		GracePeriod:    60 * 24 * time.Hour,
		MaxConcurrency: 16,
		DryRun:         true,
	}
}

// Runner executes one reaper run: start managed resources, scan for expired
// backups, remove them with bounded concurrency, stop the resources, and
// report the outcome tally.
type Runner struct {
	scanner   *backup.Scanner
	deleter   Deleter
	config    RunnerConfig
	resources []Managed
	clk       clock.Clock
	metrics   *metrics.ReaperMetrics
	logger    *logging.Logger
}

// NewRunner creates a runner over the given scanner and deleter.
func NewRunner(scanner *backup.Scanner, deleter Deleter, config RunnerConfig) *Runner {
	if config.Segments < 1 {
		config.Segments = 1
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = 60 * 24 * time.Hour
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 16
	}
	return &Runner{
		scanner: scanner,
		deleter: deleter,
		config:  config,
		clk:     clock.WallClock,
		logger:  logging.Global(),
	}
}

// WithResources attaches managed resources, started in order and stopped in
// reverse order.
func (r *Runner) WithResources(resources ...Managed) *Runner {
	r.resources = append(r.resources, resources...)
	return r
}

// WithClock replaces the wall clock, for tests.
func (r *Runner) WithClock(clk clock.Clock) *Runner {
	r.clk = clk
	return r
}

// WithMetrics attaches reaper metrics.
func (r *Runner) WithMetrics(m *metrics.ReaperMetrics) *Runner {
	r.metrics = m
	return r
}

// WithLogger replaces the process-global logger.
func (r *Runner) WithLogger(l *logging.Logger) *Runner {
	r.logger = l
	return r
}

// Run executes one reaper run and returns the outcome tally.
//
// A resource that fails to start aborts the run with a StartupError before
// any scanning. A scan failure lets in-flight removals finish, then returns
// the tally so far together with a ScanError. Individual removal failures
// are contained: they are tallied as failed and never fail the run.
// Teardown errors are logged, never returned.
func (r *Runner) Run(ctx context.Context) (*Tally, error) {
	runStart := r.clk.Now()

	started, err := r.startResources(ctx)
	if err != nil {
		r.stopResources(started)
		return nil, err
	}
	defer r.stopResources(started)

	// The cutoff is computed once so that every segment and every record
	// is judged against the same instant.
	cutoff := r.clk.Now().Add(-r.config.GracePeriod).UnixMilli()

	r.logger.Infof("starting expired backup scan", map[string]any{
		"segments":       r.config.Segments,
		"maxConcurrency": r.config.MaxConcurrency,
		"gracePeriod":    r.config.GracePeriod.String(),
		"cutoffMs":       cutoff,
		"dryRun":         r.config.DryRun,
	})

	scanStart := r.clk.Now()
	candidates, scanErrCh := r.scanner.Scan(ctx, r.config.Segments, cutoff)

	pipeline := NewPipeline(r.deleter, PipelineConfig{
		MaxConcurrency: r.config.MaxConcurrency,
		DryRun:         r.config.DryRun,
	}).WithMetrics(r.metrics)

	tally := pipeline.Run(ctx, candidates)
	scanErr := <-scanErrCh

	if r.metrics != nil {
		r.metrics.RecordScanDuration(r.clk.Now().Sub(scanStart).Seconds())
		r.metrics.RecordRunDuration(r.clk.Now().Sub(runStart).Seconds())
	}

	r.logger.Infof(fmt.Sprintf("expired %d backups", tally.Removed()), map[string]any{
		"removed":  tally.Removed(),
		"failed":   tally.Failed(),
		"dryRun":   r.config.DryRun,
		"duration": r.clk.Now().Sub(runStart).String(),
	})

	if scanErr != nil {
		return tally, &ScanError{Err: scanErr}
	}
	return tally, nil
}

// startResources starts the managed resources in order, returning the ones
// that started. The first failure aborts with a StartupError.
func (r *Runner) startResources(ctx context.Context) ([]Managed, error) {
	var started []Managed
	for _, res := range r.resources {
		r.logger.Debugf("starting resource", map[string]any{"resource": res.Name()})
		if err := res.Start(ctx); err != nil {
			return started, &StartupError{Resource: res.Name(), Err: err}
		}
		started = append(started, res)
	}
	return started, nil
}

// stopResources stops resources in reverse start order. Stop failures are
// logged and swallowed.
func (r *Runner) stopResources(started []Managed) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := len(started) - 1; i >= 0; i-- {
		res := started[i]
		if err := res.Stop(ctx); err != nil {
			terr := &TeardownError{Resource: res.Name(), Err: err}
			r.logger.Warnf("resource teardown failed", map[string]any{
				"resource": res.Name(),
				"error":    terr.Error(),
			})
		}
	}
}
