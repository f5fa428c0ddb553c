package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stashd-io/stashd/internal/metadata"
	"github.com/stashd-io/stashd/internal/metadata/keys"
)

const testNumDomains = 16

func seedRecord(t *testing.T, store *metadata.MockStore, r Record) {
	t.Helper()
	value, err := EncodeRecord(r)
	if err != nil {
		t.Fatal(err)
	}
	domain := int(metadata.CalculateDomain(r.HashedBackupID, testNumDomains))
	if _, err := store.Put(context.Background(), keys.BackupRecordKey(domain, r.HashedBackupID), value); err != nil {
		t.Fatal(err)
	}
}

func collectCandidates(t *testing.T, out <-chan Candidate, errCh <-chan error) ([]Candidate, error) {
	t.Helper()
	var candidates []Candidate
	for c := range out {
		candidates = append(candidates, c)
	}
	return candidates, <-errCh
}

func testScanner(store *metadata.MockStore) *Scanner {
	return NewScanner(store, ScannerConfig{NumDomains: testNumDomains})
}

func TestScanner_FindsExpired(t *testing.T) {
	store := metadata.NewMockStore()

	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)
	cutoff := now - 60*day

	// 61 days stale: remove everything.
	seedRecord(t, store, Record{HashedBackupID: "stale", Tier: TierPrimary, LastRefreshMs: now - 61*day})
	// 59 days stale: keep.
	seedRecord(t, store, Record{HashedBackupID: "fresh", Tier: TierPrimary, LastRefreshMs: now - 59*day})
	// Fresh primary, stale archive: remove just the archive tier.
	seedRecord(t, store, Record{
		HashedBackupID:       "stale-archive",
		Tier:                 TierArchive,
		LastRefreshMs:        now - day,
		LastArchiveRefreshMs: now - 61*day,
	})

	out, errCh := testScanner(store).Scan(context.Background(), 1, cutoff)
	candidates, err := collectCandidates(t, out, errCh)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	byID := map[string]Tier{}
	for _, c := range candidates {
		byID[c.HashedBackupID] = c.Tier
	}

	if len(byID) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(byID), byID)
	}
	if byID["stale"] != RemoveAll {
		t.Errorf("stale: tier = %q, want %q", byID["stale"], RemoveAll)
	}
	if byID["stale-archive"] != RemoveArchive {
		t.Errorf("stale-archive: tier = %q, want %q", byID["stale-archive"], RemoveArchive)
	}
}

func TestScanner_SegmentCountIndependence(t *testing.T) {
	store := metadata.NewMockStore()

	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)
	cutoff := now - 60*day

	for i := 0; i < 50; i++ {
		age := 59 * day
		if i%2 == 0 {
			age = 61 * day
		}
		seedRecord(t, store, Record{
			HashedBackupID: fmt.Sprintf("backup-%02d", i),
			Tier:           TierPrimary,
			LastRefreshMs:  now - age,
		})
	}

	ids := func(segments int) []string {
		out, errCh := testScanner(store).Scan(context.Background(), segments, cutoff)
		candidates, err := collectCandidates(t, out, errCh)
		if err != nil {
			t.Fatalf("scan with %d segments failed: %v", segments, err)
		}
		var result []string
		for _, c := range candidates {
			result = append(result, c.HashedBackupID)
		}
		sort.Strings(result)
		return result
	}

	want := ids(1)
	if len(want) != 25 {
		t.Fatalf("expected 25 candidates, got %d", len(want))
	}

	// Candidates must be independent of how the domain range is segmented,
	// including segment counts above the domain count.
	for _, segments := range []int{2, 3, 7, testNumDomains, testNumDomains + 5} {
		got := ids(segments)
		if len(got) != len(want) {
			t.Fatalf("segments=%d: got %d candidates, want %d", segments, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("segments=%d: candidate %d = %q, want %q", segments, i, got[i], want[i])
			}
		}
	}
}

func TestScanner_SegmentErrorFailsScan(t *testing.T) {
	store := metadata.NewMockStore()
	seedRecord(t, store, Record{HashedBackupID: "a", Tier: TierPrimary, LastRefreshMs: 1})

	listErr := errors.New("shard unavailable")
	store.FailLists(listErr)

	out, errCh := testScanner(store).Scan(context.Background(), 4, time.Now().UnixMilli())
	candidates, err := collectCandidates(t, out, errCh)
	if err == nil {
		t.Fatal("expected scan error")
	}
	if !errors.Is(err, listErr) {
		t.Errorf("expected wrapped list error, got %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestScanner_SkipsMalformedRecords(t *testing.T) {
	store := metadata.NewMockStore()
	ctx := context.Background()

	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)
	cutoff := now - 60*day

	seedRecord(t, store, Record{HashedBackupID: "good", Tier: TierPrimary, LastRefreshMs: now - 61*day})
	if _, err := store.Put(ctx, keys.BackupRecordKey(3, "garbage"), []byte("{broken")); err != nil {
		t.Fatal(err)
	}

	out, errCh := testScanner(store).Scan(ctx, 2, cutoff)
	candidates, err := collectCandidates(t, out, errCh)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].HashedBackupID != "good" {
		t.Errorf("expected only the good record, got %v", candidates)
	}
}

func TestScanner_ContextCancellation(t *testing.T) {
	store := metadata.NewMockStore()

	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)
	for i := 0; i < 200; i++ {
		seedRecord(t, store, Record{
			HashedBackupID: fmt.Sprintf("backup-%03d", i),
			Tier:           TierPrimary,
			LastRefreshMs:  now - 61*day,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	scanner := NewScanner(store, ScannerConfig{NumDomains: testNumDomains, ChannelBuffer: 1})
	out, errCh := scanner.Scan(ctx, 1, now-60*day)

	// Consume one candidate, then cancel. The scan must terminate and
	// close its channels rather than block on the full buffer.
	<-out
	cancel()

	for range out {
	}
	<-errCh
}

func TestScanner_EmptyStore(t *testing.T) {
	store := metadata.NewMockStore()

	out, errCh := testScanner(store).Scan(context.Background(), 3, time.Now().UnixMilli())
	candidates, err := collectCandidates(t, out, errCh)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}
