package backup

import (
	"context"
	"fmt"
	"sync"

	"github.com/stashd-io/stashd/internal/logging"
	"github.com/stashd-io/stashd/internal/metadata"
	"github.com/stashd-io/stashd/internal/metadata/keys"
)

// ScannerConfig configures the expired backup scanner.
type ScannerConfig struct {
	// NumDomains is the number of metadata hash domains to scan.
	// Default: 256
	NumDomains int

	// ChannelBuffer is the capacity of the candidate channel. A bounded
	// channel gives backpressure against a slow consumer.
	// Default: 64
	ChannelBuffer int
}

// DefaultScannerConfig returns a default configuration.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		NumDomains:    256,
		ChannelBuffer: 64,
	}
}

// Scanner scans the metadata store for backups whose refresh timestamps have
// fallen behind the expiration cutoff.
//
// The domain range is split into contiguous slices, one per segment, and the
// segments are scanned in parallel. Because a segment is just a slice of the
// domain range, the set of candidates produced is independent of the segment
// count.
type Scanner struct {
	meta   metadata.MetadataStore
	config ScannerConfig
	logger *logging.Logger
}

// NewScanner creates a scanner over the given metadata store.
func NewScanner(meta metadata.MetadataStore, config ScannerConfig) *Scanner {
	if config.NumDomains <= 0 {
		config.NumDomains = 256
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 64
	}
	return &Scanner{
		meta:   meta,
		config: config,
		logger: logging.Global(),
	}
}

// Scan starts a parallel scan with the given number of segments and returns
// a channel of removal candidates plus a 1-buffered error channel.
//
// The candidate channel is closed when every segment has finished. The error
// channel then reports the first segment failure, if any, and is closed. A
// failing segment cancels the remaining segments; candidates already
// produced stay valid.
func (s *Scanner) Scan(ctx context.Context, segments int, cutoffMs int64) (<-chan Candidate, <-chan error) {
	if segments < 1 {
		segments = 1
	}
	if segments > s.config.NumDomains {
		segments = s.config.NumDomains
	}

	out := make(chan Candidate, s.config.ChannelBuffer)
	errCh := make(chan error, 1)

	scanCtx, cancel := context.WithCancel(ctx)

	var mu sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup

	// Spread the domains over the segments; the first (numDomains % segments)
	// segments take one extra domain.
	base := s.config.NumDomains / segments
	extra := s.config.NumDomains % segments
	start := 0
	for i := 0; i < segments; i++ {
		n := base
		if i < extra {
			n++
		}
		lo, hi := start, start+n
		start = hi

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.scanSegment(scanCtx, lo, hi, cutoffMs, out); err != nil {
				recordErr(err)
			}
		}()
	}

	go func() {
		wg.Wait()
		cancel()
		close(out)

		mu.Lock()
		err := firstErr
		mu.Unlock()
		if err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	return out, errCh
}

// scanSegment scans the domains in [lo, hi) and sends candidates to out.
func (s *Scanner) scanSegment(ctx context.Context, lo, hi int, cutoffMs int64, out chan<- Candidate) error {
	for domain := lo; domain < hi; domain++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		kvs, err := s.meta.List(ctx, keys.BackupDomainPrefix(domain), "", 0)
		if err != nil {
			return fmt.Errorf("scan domain %d: %w", domain, err)
		}

		for _, kv := range kvs {
			record, err := DecodeRecord(kv.Value)
			if err != nil {
				// A malformed record must not abort the scan.
				s.logger.Warnf("skipping malformed backup record", map[string]any{
					"key":   kv.Key,
					"error": err.Error(),
				})
				continue
			}

			tier, eligible := EligibleTier(record, cutoffMs)
			if !eligible {
				continue
			}

			select {
			case out <- Candidate{HashedBackupID: record.HashedBackupID, Tier: tier}:
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}
