package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

func TestNewReaperMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReaperMetricsWithRegistry(reg)

	// Vec metrics only appear in Gather after the first observation.
	m.RecordExpired("all", false)
	m.RecordFailed("archive", false)
	m.RecordCandidates(1)
	m.RecordScanDuration(0.5)
	m.RecordRunDuration(1.0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	expectedMetrics := map[string]bool{
		"stashd_reaper_expired_backups_total":    false,
		"stashd_reaper_failed_removals_total":    false,
		"stashd_reaper_candidates_scanned_total": false,
		"stashd_reaper_scan_duration_seconds":    false,
		"stashd_reaper_run_duration_seconds":     false,
	}

	for _, family := range families {
		name := family.GetName()
		if _, ok := expectedMetrics[name]; ok {
			expectedMetrics[name] = true
		}
	}

	for name, found := range expectedMetrics {
		if !found {
			t.Errorf("expected metric %s to be registered", name)
		}
	}
}

func TestReaperMetrics_RecordExpired(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReaperMetricsWithRegistry(reg)

	m.RecordExpired("all", false)
	m.RecordExpired("all", false)
	m.RecordExpired("archive", false)
	m.RecordExpired("all", true)

	if v := testutil.ToFloat64(m.ExpiredBackupsTotal.WithLabelValues("all", "false")); v != 2 {
		t.Errorf("expected 2 expired (all, live), got %v", v)
	}
	if v := testutil.ToFloat64(m.ExpiredBackupsTotal.WithLabelValues("archive", "false")); v != 1 {
		t.Errorf("expected 1 expired (archive, live), got %v", v)
	}
	if v := testutil.ToFloat64(m.ExpiredBackupsTotal.WithLabelValues("all", "true")); v != 1 {
		t.Errorf("expected 1 expired (all, dry-run), got %v", v)
	}
}

func TestReaperMetrics_RecordFailed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReaperMetricsWithRegistry(reg)

	m.RecordFailed("archive", false)
	m.RecordFailed("archive", false)
	m.RecordFailed("all", false)

	if v := testutil.ToFloat64(m.FailedRemovalsTotal.WithLabelValues("archive", "false")); v != 2 {
		t.Errorf("expected 2 failed (archive), got %v", v)
	}
	if v := testutil.ToFloat64(m.FailedRemovalsTotal.WithLabelValues("all", "false")); v != 1 {
		t.Errorf("expected 1 failed (all), got %v", v)
	}
}

func TestReaperMetrics_RecordCandidates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReaperMetricsWithRegistry(reg)

	m.RecordCandidates(10)
	m.RecordCandidates(5)

	if v := getCounterValue(t, reg, "stashd_reaper_candidates_scanned_total"); v != 15 {
		t.Errorf("expected 15 candidates, got %v", v)
	}
}

func TestReaperMetrics_Durations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReaperMetricsWithRegistry(reg)

	m.RecordScanDuration(2.5)
	m.RecordRunDuration(10.0)
	m.RecordRunDuration(20.0)

	if c := getHistogramSampleCount(t, reg, "stashd_reaper_scan_duration_seconds"); c != 1 {
		t.Errorf("expected 1 scan observation, got %d", c)
	}
	if c := getHistogramSampleCount(t, reg, "stashd_reaper_run_duration_seconds"); c != 2 {
		t.Errorf("expected 2 run observations, got %d", c)
	}
}

// getCounterValue extracts the current value of a plain counter from the registry.
func getCounterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	m := findMetric(t, reg, name)
	return m.GetCounter().GetValue()
}

// getHistogramSampleCount extracts the sample count of a histogram from the registry.
func getHistogramSampleCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	m := findMetric(t, reg, name)
	return m.GetHistogram().GetSampleCount()
}

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *io_prometheus_client.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			metrics := family.GetMetric()
			if len(metrics) > 0 {
				return metrics[0]
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}
