// Package reaper runs the expired backup removal pipeline: a bounded number
// of concurrent removals fed by the metadata scan, with per-backup failure
// isolation and an outcome tally.
package reaper

import (
	"sync"

	"github.com/stashd-io/stashd/internal/backup"
)

// Outcome is the result of processing one removal candidate.
type Outcome string

const (
	// OutcomeRemoved means the backup's data was removed (or would have
	// been, in dry-run mode).
	OutcomeRemoved Outcome = "removed"

	// OutcomeFailed means the removal attempt failed.
	OutcomeFailed Outcome = "failed"
)

// TallyKey identifies one counter in a Tally.
type TallyKey struct {
	Tier    backup.Tier
	DryRun  bool
	Outcome Outcome
}

// Tally counts removal outcomes per (tier, dry-run, outcome).
// Safe for concurrent use.
type Tally struct {
	mu     sync.Mutex
	counts map[TallyKey]int64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[TallyKey]int64)}
}

// Record counts one outcome.
func (t *Tally) Record(tier backup.Tier, dryRun bool, outcome Outcome) {
	t.mu.Lock()
	t.counts[TallyKey{Tier: tier, DryRun: dryRun, Outcome: outcome}]++
	t.mu.Unlock()
}

// Removed returns the total number of removed candidates across tiers.
func (t *Tally) Removed() int64 {
	return t.total(OutcomeRemoved)
}

// Failed returns the total number of failed candidates across tiers.
func (t *Tally) Failed() int64 {
	return t.total(OutcomeFailed)
}

// Total returns the number of processed candidates.
func (t *Tally) Total() int64 {
	return t.Removed() + t.Failed()
}

func (t *Tally) total(outcome Outcome) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sum int64
	for key, count := range t.counts {
		if key.Outcome == outcome {
			sum += count
		}
	}
	return sum
}

// Snapshot returns a copy of the per-key counts.
func (t *Tally) Snapshot() map[TallyKey]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(map[TallyKey]int64, len(t.counts))
	for key, count := range t.counts {
		snapshot[key] = count
	}
	return snapshot
}
