package metrics

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stashd-io/stashd/internal/logging"
)

// Server exposes registered Prometheus metrics over HTTP on /metrics.
type Server struct {
	addr     string
	gatherer prometheus.Gatherer

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewServer returns a metrics server bound to addr, serving the default
// Prometheus registry. Pass ":0" to let the OS pick a port.
func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

// NewServerWithRegistry returns a metrics server that serves a specific
// gatherer instead of the default registry. Tests use this to stay isolated
// from globally registered collectors.
func NewServerWithRegistry(addr string, gatherer prometheus.Gatherer) *Server {
	return &Server{addr: addr, gatherer: gatherer}
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	handler := promhttp.Handler()
	if s.gatherer != nil {
		handler = promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = ln
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			// Metrics are best-effort, a serve failure must not take the
			// process down.
			logging.Warnf("metrics server stopped", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	return nil
}

// Addr returns the bound listen address, or the configured address if the
// server has not been started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Close drains in-flight scrapes and stops the server. Calling Close on a
// server that was never started is a no-op.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
