// Package backup defines the backup record model and implements scanning
// the metadata store for expired backups and removing their data.
package backup

import (
	"encoding/json"
	"fmt"

	"github.com/stashd-io/stashd/internal/metadata/keys"
)

// Tier identifies which class of backup data an operation applies to.
type Tier string

// Tiers a backup record can be in.
const (
	// TierPrimary is the base tier: message history and account data.
	TierPrimary Tier = "primary"

	// TierArchive is the paid tier that additionally keeps archive-class
	// blobs (media attachments).
	TierArchive Tier = "archive"
)

// Tiers to remove when a backup expires.
const (
	// RemoveArchive removes only the archive-class blobs. The record
	// survives, downgraded to the primary tier.
	RemoveArchive Tier = "archive"

	// RemoveAll removes every blob and the record itself.
	RemoveAll Tier = "all"
)

// Record is a backup's metadata entry, stored as JSON in the metadata store
// at /stash/v1/backups/<domain>/<hashedBackupId>.
type Record struct {
	// HashedBackupID is the opaque hashed identifier of the owning account.
	HashedBackupID string `json:"hashedBackupId"`

	// Tier is the backup's current service tier.
	Tier Tier `json:"tier"`

	// LastRefreshMs is the Unix timestamp (milliseconds) when any tier of
	// the backup was last refreshed.
	LastRefreshMs int64 `json:"lastRefreshMs"`

	// LastArchiveRefreshMs is the Unix timestamp (milliseconds) when the
	// archive tier was last refreshed. Zero when the backup has never had
	// the archive tier.
	LastArchiveRefreshMs int64 `json:"lastArchiveRefreshMs"`

	// SizeBytes is the total size of the backup's stored objects.
	SizeBytes int64 `json:"sizeBytes"`

	// CreatedAtMs is the Unix timestamp (milliseconds) when the backup
	// was first created.
	CreatedAtMs int64 `json:"createdAtMs"`
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord deserializes a stored record.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode backup record: %w", err)
	}
	return r, nil
}

// Candidate is a backup selected for removal by the scanner.
type Candidate struct {
	// HashedBackupID identifies the backup.
	HashedBackupID string

	// Tier is the tier to remove: RemoveArchive or RemoveAll.
	Tier Tier
}

// EligibleTier returns the tier to remove for a record given the expiration
// cutoff, and whether the record is a removal candidate at all.
//
// A backup whose lastRefreshMs is older than the cutoff is removed entirely.
// Otherwise, a backup that once held the archive tier but has not refreshed
// it since the cutoff loses just the archive-class data.
func EligibleTier(r Record, cutoffMs int64) (Tier, bool) {
	if r.LastRefreshMs < cutoffMs {
		return RemoveAll, true
	}
	if r.LastArchiveRefreshMs > 0 && r.LastArchiveRefreshMs < cutoffMs {
		return RemoveArchive, true
	}
	return "", false
}

// ObjectPrefix returns the object store prefix holding all of a backup's
// blobs: backups/<domain>/<hashedBackupId>/.
func ObjectPrefix(domain int, hashedBackupID string) string {
	return fmt.Sprintf("backups/%s/%s/", keys.FormatDomain(domain), hashedBackupID)
}

// TierObjectPrefix returns the object store prefix for one tier of a
// backup's blobs: backups/<domain>/<hashedBackupId>/<tier>/.
func TierObjectPrefix(domain int, hashedBackupID string, tier Tier) string {
	return fmt.Sprintf("backups/%s/%s/%s/", keys.FormatDomain(domain), hashedBackupID, tier)
}
