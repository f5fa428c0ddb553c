package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/stashd-io/stashd/internal/metadata"
	"github.com/stashd-io/stashd/internal/metadata/keys"
	"github.com/stashd-io/stashd/internal/objectstore"
)

// DeleteError wraps a removal failure with the backup it belongs to.
type DeleteError struct {
	HashedBackupID string
	Tier           Tier
	Err            error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("backup: delete %s (tier %s): %v", e.HashedBackupID, e.Tier, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// Manager removes backup data across the metadata store and the object store.
//
// All removals are idempotent: objects or records that are already gone do
// not cause errors, so a failed run can be retried safely.
type Manager struct {
	meta metadata.MetadataStore
	obj  objectstore.Store
	calc *metadata.DomainCalculator
}

// NewManager creates a manager over the given stores.
func NewManager(meta metadata.MetadataStore, obj objectstore.Store, numDomains int) *Manager {
	return &Manager{
		meta: meta,
		obj:  obj,
		calc: metadata.NewDomainCalculator(numDomains),
	}
}

// DeleteBackup removes the given tier of a backup.
//
// RemoveAll deletes every object under the backup's prefix and then the
// metadata record. RemoveArchive deletes only the archive-class objects and
// downgrades the record to the primary tier.
func (m *Manager) DeleteBackup(ctx context.Context, tier Tier, hashedBackupID string) error {
	domain := int(m.calc.Calculate(hashedBackupID))

	var err error
	switch tier {
	case RemoveAll:
		err = m.deleteAll(ctx, domain, hashedBackupID)
	case RemoveArchive:
		err = m.deleteArchive(ctx, domain, hashedBackupID)
	default:
		err = fmt.Errorf("unknown tier to remove: %q", tier)
	}

	if err != nil {
		return &DeleteError{HashedBackupID: hashedBackupID, Tier: tier, Err: err}
	}
	return nil
}

// deleteAll removes every object of the backup and its metadata record.
// Objects go first so that a crash between the two steps leaves the record
// in place for the next run to retry.
func (m *Manager) deleteAll(ctx context.Context, domain int, hashedBackupID string) error {
	if err := m.deletePrefix(ctx, ObjectPrefix(domain, hashedBackupID)); err != nil {
		return err
	}

	if err := m.meta.Delete(ctx, keys.BackupRecordKey(domain, hashedBackupID)); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// deleteArchive removes the archive-class objects and downgrades the record.
func (m *Manager) deleteArchive(ctx context.Context, domain int, hashedBackupID string) error {
	if err := m.deletePrefix(ctx, TierObjectPrefix(domain, hashedBackupID, TierArchive)); err != nil {
		return err
	}
	return m.downgradeRecord(ctx, domain, hashedBackupID)
}

// deletePrefix deletes all objects under the given object store prefix.
func (m *Manager) deletePrefix(ctx context.Context, prefix string) error {
	metas, err := m.obj.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list objects %s: %w", prefix, err)
	}

	for _, meta := range metas {
		if err := m.obj.Delete(ctx, meta.Key); err != nil {
			if errors.Is(err, objectstore.ErrNotFound) {
				continue
			}
			return fmt.Errorf("delete object %s: %w", meta.Key, err)
		}
	}
	return nil
}

// downgradeRecord clears the archive tier from the backup record using a
// compare-and-swap. A version mismatch means the record was refreshed
// concurrently, in which case the refresh wins and the downgrade is dropped.
func (m *Manager) downgradeRecord(ctx context.Context, domain int, hashedBackupID string) error {
	key := keys.BackupRecordKey(domain, hashedBackupID)

	result, err := m.meta.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	if !result.Exists {
		return nil
	}

	record, err := DecodeRecord(result.Value)
	if err != nil {
		return err
	}

	record.Tier = TierPrimary
	record.LastArchiveRefreshMs = 0

	value, err := EncodeRecord(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = m.meta.Put(ctx, key, value, metadata.WithExpectedVersion(result.Version))
	if err != nil {
		if errors.Is(err, metadata.ErrVersionMismatch) {
			return nil
		}
		return fmt.Errorf("downgrade record: %w", err)
	}
	return nil
}

// UpsertRecord writes a backup record, deriving its key from the hashed ID.
// Used by the surrounding service and by tests to seed state.
func (m *Manager) UpsertRecord(ctx context.Context, record Record) (metadata.Version, error) {
	value, err := EncodeRecord(record)
	if err != nil {
		return 0, err
	}
	domain := int(m.calc.Calculate(record.HashedBackupID))
	return m.meta.Put(ctx, keys.BackupRecordKey(domain, record.HashedBackupID), value)
}

// Domain returns the hash domain a backup maps to.
func (m *Manager) Domain(hashedBackupID string) int {
	return int(m.calc.Calculate(hashedBackupID))
}
