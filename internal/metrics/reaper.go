package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ReaperMetrics holds metrics related to expired backup removal.
type ReaperMetrics struct {
	// ExpiredBackupsTotal tracks backups removed (or that would have been
	// removed in dry-run mode).
	// Labels: tier (archive, all), dry_run (true, false)
	ExpiredBackupsTotal *prometheus.CounterVec

	// FailedRemovalsTotal tracks removal attempts that failed.
	// Labels: tier (archive, all), dry_run (true, false)
	FailedRemovalsTotal *prometheus.CounterVec

	// CandidatesScannedTotal tracks candidates produced by the metadata scan.
	CandidatesScannedTotal prometheus.Counter

	// ScanDuration tracks the duration of the metadata scan phase.
	ScanDuration prometheus.Histogram

	// RunDuration tracks the duration of a full reaper run.
	RunDuration prometheus.Histogram
}

// DefaultRunDurationBuckets are duration buckets for reaper runs.
// Runs over large metadata sets can take minutes to hours.
var DefaultRunDurationBuckets = []float64{
	1,    // 1s
	5,    // 5s
	15,   // 15s
	60,   // 1m
	300,  // 5m
	900,  // 15m
	1800, // 30m
	3600, // 1h
	7200, // 2h
}

// NewReaperMetrics creates reaper metrics registered with the default
// Prometheus registry.
func NewReaperMetrics() *ReaperMetrics {
	return NewReaperMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewReaperMetricsWithRegistry creates reaper metrics registered with a
// custom registry. Tests use this to stay isolated from the default one.
func NewReaperMetricsWithRegistry(reg prometheus.Registerer) *ReaperMetrics {
	factory := promauto.With(reg)
	return &ReaperMetrics{
		ExpiredBackupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stashd",
				Subsystem: "reaper",
				Name:      "expired_backups_total",
				Help:      "Total number of expired backups removed, broken down by tier and dry-run mode.",
			},
			[]string{"tier", "dry_run"},
		),
		FailedRemovalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stashd",
				Subsystem: "reaper",
				Name:      "failed_removals_total",
				Help:      "Total number of backup removal attempts that failed, broken down by tier and dry-run mode.",
			},
			[]string{"tier", "dry_run"},
		),
		CandidatesScannedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "stashd",
				Subsystem: "reaper",
				Name:      "candidates_scanned_total",
				Help:      "Total number of expiration candidates produced by the metadata scan.",
			},
		),
		ScanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "stashd",
				Subsystem: "reaper",
				Name:      "scan_duration_seconds",
				Help:      "Duration of the metadata scan phase in seconds.",
				Buckets:   DefaultRunDurationBuckets,
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "stashd",
				Subsystem: "reaper",
				Name:      "run_duration_seconds",
				Help:      "Duration of a full reaper run in seconds.",
				Buckets:   DefaultRunDurationBuckets,
			},
		),
	}
}

// RecordExpired increments the expired backups counter for a tier.
func (m *ReaperMetrics) RecordExpired(tier string, dryRun bool) {
	m.ExpiredBackupsTotal.WithLabelValues(tier, strconv.FormatBool(dryRun)).Inc()
}

// RecordFailed increments the failed removals counter for a tier.
func (m *ReaperMetrics) RecordFailed(tier string, dryRun bool) {
	m.FailedRemovalsTotal.WithLabelValues(tier, strconv.FormatBool(dryRun)).Inc()
}

// RecordCandidates adds to the scanned candidates counter.
func (m *ReaperMetrics) RecordCandidates(count int64) {
	m.CandidatesScannedTotal.Add(float64(count))
}

// RecordScanDuration observes the metadata scan duration.
func (m *ReaperMetrics) RecordScanDuration(durationSeconds float64) {
	m.ScanDuration.Observe(durationSeconds)
}

// RecordRunDuration observes a full run's duration.
func (m *ReaperMetrics) RecordRunDuration(durationSeconds float64) {
	m.RunDuration.Observe(durationSeconds)
}
