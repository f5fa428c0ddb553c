package oxia

import (
	"os"
	"testing"

	"github.com/oxia-db/oxia/oxiad/dataserver"
)

// TestServer is an Oxia server usable by integration tests: either an
// embedded standalone instance or an external one named by the
// OXIA_SERVICE_ADDRESS environment variable.
type TestServer struct {
	standalone *dataserver.Standalone
	addr       string
}

// Addr returns the service address of the test server.
func (s *TestServer) Addr() string {
	return s.addr
}

// StartTestServer starts an embedded Oxia standalone server and registers
// its shutdown with t.Cleanup. When OXIA_SERVICE_ADDRESS is set the external
// server is used instead and nothing is started or torn down.
func StartTestServer(t *testing.T) *TestServer {
	t.Helper()

	if addr := os.Getenv("OXIA_SERVICE_ADDRESS"); addr != "" {
		t.Logf("Using external Oxia server at %s", addr)
		return &TestServer{addr: addr}
	}

	dir := t.TempDir()

	standalone, err := dataserver.NewStandalone(dataserver.NewTestConfig(dir))
	if err != nil {
		t.Fatalf("failed to start Oxia standalone server: %v", err)
	}

	t.Cleanup(func() {
		standalone.Close()
	})

	t.Logf("Started embedded Oxia server at %s", standalone.ServiceAddr())
	return &TestServer{
		standalone: standalone,
		addr:       standalone.ServiceAddr(),
	}
}
