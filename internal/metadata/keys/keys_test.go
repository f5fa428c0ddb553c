package keys

import (
	"testing"
)

func TestBackupRecordKey_RoundTrip(t *testing.T) {
	key := BackupRecordKey(42, "abc123")
	if key != "/stash/v1/backups/00042/abc123" {
		t.Fatalf("unexpected key: %s", key)
	}

	domain, id, err := ParseBackupRecordKey(key)
	if err != nil {
		t.Fatalf("ParseBackupRecordKey: %v", err)
	}
	if domain != 42 || id != "abc123" {
		t.Errorf("got domain=%d id=%q", domain, id)
	}
}

func TestBackupDomainPrefix_Ordering(t *testing.T) {
	// Zero-padding keeps lexicographic and numeric domain order aligned.
	if BackupDomainPrefix(9) >= BackupDomainPrefix(10) {
		t.Error("domain 9 prefix should sort before domain 10")
	}
	if BackupDomainPrefix(99) >= BackupDomainPrefix(100) {
		t.Error("domain 99 prefix should sort before domain 100")
	}
}

func TestBackupDomainPrefix_NoOverlap(t *testing.T) {
	// A record in domain 1 must never match domain 10's prefix scan.
	key := BackupRecordKey(1, "x")
	prefix := BackupDomainPrefix(10)
	if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
		t.Error("domain prefixes overlap")
	}
}

func TestParseBackupRecordKey_Invalid(t *testing.T) {
	cases := []string{
		"",
		"/stash/v1/other/00001/abc",
		"/stash/v1/backups/00001",
		"/stash/v1/backups/00001/",
		"/stash/v1/backups/notanum/abc",
	}
	for _, key := range cases {
		if _, _, err := ParseBackupRecordKey(key); err == nil {
			t.Errorf("expected error for %q", key)
		}
	}
}
