package reaper

import (
	"sync"
	"testing"

	"github.com/stashd-io/stashd/internal/backup"
)

func TestTally_Counts(t *testing.T) {
	tally := NewTally()

	tally.Record(backup.RemoveAll, false, OutcomeRemoved)
	tally.Record(backup.RemoveAll, false, OutcomeRemoved)
	tally.Record(backup.RemoveArchive, false, OutcomeRemoved)
	tally.Record(backup.RemoveAll, false, OutcomeFailed)

	if got := tally.Removed(); got != 3 {
		t.Errorf("Removed() = %d, want 3", got)
	}
	if got := tally.Failed(); got != 1 {
		t.Errorf("Failed() = %d, want 1", got)
	}
	if got := tally.Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
}

func TestTally_Snapshot(t *testing.T) {
	tally := NewTally()
	tally.Record(backup.RemoveArchive, true, OutcomeRemoved)
	tally.Record(backup.RemoveArchive, true, OutcomeRemoved)

	snapshot := tally.Snapshot()
	key := TallyKey{Tier: backup.RemoveArchive, DryRun: true, Outcome: OutcomeRemoved}
	if snapshot[key] != 2 {
		t.Errorf("snapshot[%+v] = %d, want 2", key, snapshot[key])
	}

	// Snapshot is a copy, not a view.
	snapshot[key] = 99
	if tally.Snapshot()[key] != 2 {
		t.Error("mutating a snapshot must not affect the tally")
	}
}

func TestTally_ConcurrentRecord(t *testing.T) {
	tally := NewTally()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tally.Record(backup.RemoveAll, false, OutcomeRemoved)
			}
		}()
	}
	wg.Wait()

	if got := tally.Removed(); got != 5000 {
		t.Errorf("Removed() = %d, want 5000", got)
	}
}
