package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// scrape starts the server, fetches /metrics and returns the response.
// The server is shut down when the test ends.
func scrape(t *testing.T, s *Server) (string, http.Header) {
	t.Helper()
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	time.Sleep(10 * time.Millisecond)

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body), resp.Header
}

func TestNewServer(t *testing.T) {
	s := NewServer(":0")
	if s.addr != ":0" {
		t.Errorf("addr = %q, want %q", s.addr, ":0")
	}
}

func TestServer_StartAndClose(t *testing.T) {
	s := NewServer(":0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Close()

	if addr := s.Addr(); !strings.Contains(addr, ":") {
		t.Errorf("Addr() = %q, expected host:port format", addr)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReaperMetricsWithRegistry(reg)
	m.RecordExpired("all", false)
	m.RecordFailed("archive", false)

	body, _ := scrape(t, NewServerWithRegistry(":0", reg))

	for _, want := range []string{
		"stashd_reaper_expired_backups_total",
		"stashd_reaper_failed_removals_total",
		`tier="all"`,
		`dry_run="false"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServer_MetricsEndpointFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewReaperMetricsWithRegistry(reg).RecordCandidates(1)

	_, header := scrape(t, NewServerWithRegistry(":0", reg))

	if ct := header.Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("Content-Type = %q, expected text/plain", ct)
	}
}

func TestServer_CloseBeforeStart(t *testing.T) {
	s := NewServer(":0")
	if err := s.Close(); err != nil {
		t.Errorf("Close before Start should succeed, got %v", err)
	}
}
