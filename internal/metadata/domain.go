package metadata

import (
	"hash/fnv"
)

// Domain represents a metadata hash domain.
// Backup records are partitioned across domains by hashing their
// identifier, so a full scan can be split into disjoint domain slices
// that can be read independently and in parallel.
type Domain uint32

// CalculateDomain computes the Domain for a given backup identifier.
// The formula is: Hash(hashedBackupID) % numDomains
//
// The same identifier always maps to the same domain, so readers and
// writers agree on record placement without coordination.
//
// numDomains must be positive.
func CalculateDomain(hashedBackupID string, numDomains int) Domain {
	if numDomains <= 0 {
		panic("metadata: numDomains must be positive")
	}

	h := fnv.New64a()
	h.Write([]byte(hashedBackupID))
	return Domain(h.Sum64() % uint64(numDomains))
}

// DomainCalculator computes Domains using a configured number of domains.
type DomainCalculator struct {
	numDomains int
}

// NewDomainCalculator creates a calculator with the given number of domains.
// numDomains must be positive.
func NewDomainCalculator(numDomains int) *DomainCalculator {
	if numDomains <= 0 {
		panic("metadata: numDomains must be positive")
	}
	return &DomainCalculator{numDomains: numDomains}
}

// Calculate returns the Domain for the given backup identifier.
func (c *DomainCalculator) Calculate(hashedBackupID string) Domain {
	return CalculateDomain(hashedBackupID, c.numDomains)
}

// NumDomains returns the configured number of domains.
func (c *DomainCalculator) NumDomains() int {
	return c.numDomains
}
