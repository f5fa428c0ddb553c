package reaper

import (
	"context"
	"sync"

	"github.com/stashd-io/stashd/internal/backup"
	"github.com/stashd-io/stashd/internal/logging"
	"github.com/stashd-io/stashd/internal/metrics"
)

// Deleter removes one tier of a backup's data.
type Deleter interface {
	DeleteBackup(ctx context.Context, tier backup.Tier, hashedBackupID string) error
}

// PipelineConfig configures the removal pipeline.
type PipelineConfig struct {
	// MaxConcurrency caps the number of removals in flight.
	// Default: 16
	MaxConcurrency int

	// DryRun counts candidates without deleting anything.
	DryRun bool
}

// DefaultPipelineConfig returns a default configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxConcurrency: 16,
		DryRun:         true,
	}
}

// Pipeline drains a candidate channel through the deleter with bounded
// concurrency. A failed removal is logged and tallied but never stops the
// other removals.
type Pipeline struct {
	deleter Deleter
	config  PipelineConfig
	metrics *metrics.ReaperMetrics
	logger  *logging.Logger
}

// NewPipeline creates a pipeline over the given deleter.
func NewPipeline(deleter Deleter, config PipelineConfig) *Pipeline {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 16
	}
	return &Pipeline{
		deleter: deleter,
		config:  config,
		logger:  logging.Global(),
	}
}

// WithMetrics attaches reaper metrics to the pipeline.
func (p *Pipeline) WithMetrics(m *metrics.ReaperMetrics) *Pipeline {
	p.metrics = m
	return p
}

// Run processes candidates until the channel is closed and all in-flight
// removals have finished, then returns the outcome tally.
func (p *Pipeline) Run(ctx context.Context, candidates <-chan backup.Candidate) *Tally {
	tally := NewTally()

	sem := make(chan struct{}, p.config.MaxConcurrency)
	var wg sync.WaitGroup

	for candidate := range candidates {
		if p.metrics != nil {
			p.metrics.RecordCandidates(1)
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(c backup.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			p.process(ctx, c, tally)
		}(candidate)
	}

	wg.Wait()
	return tally
}

// process handles a single candidate.
func (p *Pipeline) process(ctx context.Context, c backup.Candidate, tally *Tally) {
	if p.config.DryRun {
		p.logger.Infof("dry run: would remove backup", map[string]any{
			"hashedBackupId": c.HashedBackupID,
			"tier":           string(c.Tier),
		})
		tally.Record(c.Tier, true, OutcomeRemoved)
		if p.metrics != nil {
			p.metrics.RecordExpired(string(c.Tier), true)
		}
		return
	}

	if err := p.deleter.DeleteBackup(ctx, c.Tier, c.HashedBackupID); err != nil {
		p.logger.Errorf("failed to remove backup", map[string]any{
			"hashedBackupId": c.HashedBackupID,
			"tier":           string(c.Tier),
			"error":          err.Error(),
		})
		tally.Record(c.Tier, false, OutcomeFailed)
		if p.metrics != nil {
			p.metrics.RecordFailed(string(c.Tier), false)
		}
		return
	}

	p.logger.Debugf("removed backup", map[string]any{
		"hashedBackupId": c.HashedBackupID,
		"tier":           string(c.Tier),
	})
	tally.Record(c.Tier, false, OutcomeRemoved)
	if p.metrics != nil {
		p.metrics.RecordExpired(string(c.Tier), false)
	}
}
