package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves Prometheus metrics. Bound to loopback: the supervisor is a
// single-user desktop daemon and its scrape surface stays local.
type Server struct {
	port   int
	path   string
	server *http.Server
	mu     sync.RWMutex // protects server field
	logger *slog.Logger
}

// NewServer creates a metrics server on 127.0.0.1:port.
func NewServer(port int, path string, log *slog.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{
		port:   port,
		path:   path,
		logger: log,
	}
}

// Start begins serving in the background and returns immediately.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.Handler())

	// Health endpoint for the metrics server itself
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	s.logger.Info("Starting metrics server", "port", s.port, "path", s.path)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()

	if server == nil {
		return nil
	}

	s.logger.Info("Stopping metrics server")
	if err := server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to stop metrics server gracefully", "error", err)
		return err
	}
	return nil
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.port
}
