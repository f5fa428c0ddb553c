// Package keys provides key encoding for the Oxia keyspace.
//
// Backup record keys are formatted as:
//
//	/stash/v1/backups/<domainZ>/<hashedBackupId>
//
// where domainZ is the record's hash domain, zero-padded decimal width 5
// so that lexicographic key order matches numeric domain order and each
// domain's records are contiguous.
package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DomainWidth is the number of digits for zero-padded domain numbers.
// Width 5 supports up to 99999 domains, far beyond any realistic
// partition count.
const DomainWidth = 5

// Key prefixes.
const (
	// Prefix is the root prefix for all stashd keys.
	Prefix = "/stash/v1"

	// BackupsPrefix is the prefix for backup record keys.
	// Format: /stash/v1/backups/<domainZ>/<hashedBackupId>
	BackupsPrefix = Prefix + "/backups"

	// ProbeKey is a reserved key used only for connectivity checks.
	// It is never written by the reaper.
	ProbeKey = Prefix + "/meta/probe"
)

// FormatDomain returns the zero-padded string form of a domain number.
func FormatDomain(domain int) string {
	return fmt.Sprintf("%0*d", DomainWidth, domain)
}

// BackupDomainPrefix returns the key prefix covering every backup record
// in the given domain. The trailing slash keeps the prefix from matching
// neighbouring domains.
func BackupDomainPrefix(domain int) string {
	return BackupsPrefix + "/" + FormatDomain(domain) + "/"
}

// BackupRecordKey returns the key for a single backup record.
func BackupRecordKey(domain int, hashedBackupID string) string {
	return BackupDomainPrefix(domain) + hashedBackupID
}

// ParseBackupRecordKey extracts the domain and hashed backup ID from a
// backup record key.
func ParseBackupRecordKey(key string) (domain int, hashedBackupID string, err error) {
	rest, ok := strings.CutPrefix(key, BackupsPrefix+"/")
	if !ok {
		return 0, "", fmt.Errorf("keys: %q is not a backup record key", key)
	}

	domainStr, id, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		return 0, "", errors.New("keys: backup record key missing id component")
	}

	domain, err = strconv.Atoi(domainStr)
	if err != nil {
		return 0, "", fmt.Errorf("keys: bad domain in %q: %w", key, err)
	}
	return domain, id, nil
}
