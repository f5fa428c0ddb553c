package backup

import (
	"strings"
	"testing"
	"time"
)

func TestEligibleTier(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	grace := int64(60 * 24 * time.Hour / time.Millisecond)
	cutoff := now - grace

	day := int64(24 * time.Hour / time.Millisecond)

	tests := []struct {
		name     string
		record   Record
		wantTier Tier
		want     bool
	}{
		{
			name:     "fully expired",
			record:   Record{LastRefreshMs: cutoff - day},
			wantTier: RemoveAll,
			want:     true,
		},
		{
			name:   "fresh backup",
			record: Record{LastRefreshMs: cutoff + day},
			want:   false,
		},
		{
			name:     "archive stale, primary fresh",
			record:   Record{LastRefreshMs: cutoff + day, LastArchiveRefreshMs: cutoff - day},
			wantTier: RemoveArchive,
			want:     true,
		},
		{
			name:   "never had archive tier",
			record: Record{LastRefreshMs: cutoff + day, LastArchiveRefreshMs: 0},
			want:   false,
		},
		{
			name:   "refreshed exactly at cutoff",
			record: Record{LastRefreshMs: cutoff},
			want:   false,
		},
		{
			name: "both stale removes everything",
			record: Record{
				LastRefreshMs:        cutoff - day,
				LastArchiveRefreshMs: cutoff - 2*day,
			},
			wantTier: RemoveAll,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, eligible := EligibleTier(tt.record, cutoff)
			if eligible != tt.want {
				t.Fatalf("eligible = %v, want %v", eligible, tt.want)
			}
			if eligible && tier != tt.wantTier {
				t.Errorf("tier = %q, want %q", tier, tt.wantTier)
			}
		})
	}
}

func TestDecodeRecord_Malformed(t *testing.T) {
	if _, err := DecodeRecord([]byte("not json")); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestObjectPrefixes(t *testing.T) {
	if got := ObjectPrefix(7, "abc"); got != "backups/00007/abc/" {
		t.Errorf("ObjectPrefix = %q", got)
	}
	if got := TierObjectPrefix(7, "abc", TierArchive); got != "backups/00007/abc/archive/" {
		t.Errorf("TierObjectPrefix = %q", got)
	}
	// The tier prefix must nest under the backup prefix so RemoveAll
	// covers it.
	if !strings.HasPrefix(TierObjectPrefix(7, "abc", TierPrimary), ObjectPrefix(7, "abc")) {
		t.Error("tier prefix must nest under the backup prefix")
	}
}
