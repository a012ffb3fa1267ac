// Package api exposes the supervisor's control surface over HTTP: engine
// lifecycle, status and resource queries, and domain log tails. It binds to
// loopback (plus an optional unix socket); this is a desktop-local daemon,
// not a network service.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/proxypilot/proxypilot/internal/audit"
	"github.com/proxypilot/proxypilot/internal/engine"
	"github.com/proxypilot/proxypilot/internal/metrics"
	"github.com/proxypilot/proxypilot/internal/stats"
)

// maxRequestBodySize limits request body to prevent memory exhaustion
const maxRequestBodySize = 1 * 1024 * 1024 // 1MB

// Server provides the REST API for engine supervision
type Server struct {
	port         int
	socketPath   string
	auth         string
	supervisor   *engine.Supervisor
	sampler      *stats.Sampler
	history      *metrics.HistoryBuffer
	logDir       string
	server       *http.Server
	socketServer *http.Server
	logger       *slog.Logger
	rateLimiter  *rateLimiter
	auditLogger  *audit.Logger
}

// NewServer creates a new API server.
// Rate limiting: 100 requests/second with burst of 200.
func NewServer(port int, socketPath, auth string, sup *engine.Supervisor, sampler *stats.Sampler, history *metrics.HistoryBuffer, logDir string, auditLogger *audit.Logger, log *slog.Logger) *Server {
	return &Server{
		port:        port,
		socketPath:  socketPath,
		auth:        auth,
		supervisor:  sup,
		sampler:     sampler,
		history:     history,
		logDir:      logDir,
		logger:      log,
		rateLimiter: newRateLimiter(100, 200),
		auditLogger: auditLogger,
	}
}

// Start starts the API server (TCP on loopback, plus unix socket if configured)
func (s *Server) Start(ctx context.Context) error {
	mux := s.routes()

	if s.socketPath != "" {
		if err := s.startSocketListener(mux); err != nil {
			s.logger.Warn("Failed to start unix socket listener", "error", err, "path", s.socketPath)
			// Continue with TCP-only mode
		}
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server", "port", s.port)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed", "error", err)
		}
	}()

	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoint: rate limited but no auth required
	mux.HandleFunc("/api/v1/health", s.wrapHandler(s.handleHealth, false))

	// Protected endpoints: full middleware stack with auth
	mux.HandleFunc("/api/v1/engine/status", s.wrapHandler(s.handleStatus, true))
	mux.HandleFunc("/api/v1/engine/stats", s.wrapHandler(s.handleStats, true))
	mux.HandleFunc("/api/v1/engine/stats/history", s.wrapHandler(s.handleStatsHistory, true))
	mux.HandleFunc("/api/v1/engine/start", s.wrapHandler(s.handleStart, true))
	mux.HandleFunc("/api/v1/engine/stop", s.wrapHandler(s.handleStop, true))
	mux.HandleFunc("/api/v1/engine/terminate", s.wrapHandler(s.handleTerminate, true))
	mux.HandleFunc("/api/v1/engine/active", s.wrapHandler(s.handleActive, true))
	mux.HandleFunc("/api/v1/engine/reload", s.wrapHandler(s.handleReload, true))
	mux.HandleFunc("/api/v1/logs/", s.wrapHandler(s.handleLogs, true))

	return mux
}

// startSocketListener starts the unix socket listener
func (s *Server) startSocketListener(handler http.Handler) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}

	// Owner-only; file permissions are the socket's access control.
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.socketServer = &http.Server{
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server (unix socket)", "path", s.socketPath)

	go func() {
		if err := s.socketServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server (socket) failed", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the API server (both TCP and socket)
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")

	var errs []error

	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to stop API server gracefully", "error", err)
			errs = append(errs, fmt.Errorf("tcp: %w", err))
		}
	}

	if s.socketServer != nil {
		if err := s.socketServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("socket: %w", err))
		}
		if s.socketPath != "" {
			if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("Failed to remove socket file", "error", err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

// Port returns the port the server is listening on
func (s *Server) Port() int {
	return s.port
}

// rateLimitMiddleware applies rate limiting per client IP
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}

		if !s.rateLimiter.allow(ip) {
			s.logger.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
			s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next(w, r)
	}
}

// authMiddleware checks Bearer token authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth == "" {
			// No auth required
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader != "Bearer "+s.auth {
			reason := "invalid or missing bearer token"
			if authHeader == "" {
				reason = "missing authorization header"
			}
			s.auditLogger.LogAuthFailure(r.RemoteAddr, r.URL.Path, reason)
			s.respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r)
	}
}

// panicRecoveryMiddleware recovers from panics and returns 500 error
func (s *Server) panicRecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic recovered in API handler",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"stack", string(debug.Stack()),
				)
				s.respondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next(w, r)
	}
}

// bodyLimitMiddleware limits request body size to prevent memory exhaustion
func (s *Server) bodyLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next(w, r)
	}
}

// wrapHandler applies the full middleware stack to a handler.
// Middleware order (outermost to innermost): panicRecovery -> bodyLimit -> rateLimit -> [auth] -> handler
func (s *Server) wrapHandler(handler http.HandlerFunc, requireAuth bool) http.HandlerFunc {
	h := handler
	if requireAuth {
		h = s.authMiddleware(h)
	}
	h = s.rateLimitMiddleware(h)
	h = s.bodyLimitMiddleware(h)
	h = s.panicRecoveryMiddleware(h)
	return h
}

func httpStatusFromError(err error) int {
	var nfe *engine.NotFoundError
	var ste *engine.StartupTimeoutError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, engine.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.As(err, &nfe):
		return http.StatusNotFound
	case errors.As(err, &ste):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
