package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/proxypilot/proxypilot/internal/logger"
	"github.com/proxypilot/proxypilot/internal/tracing"
)

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleStatus returns engine status
// GET /api/v1/engine/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.respondJSON(w, http.StatusOK, s.supervisor.Status())
}

// handleStats returns a resource snapshot of the application process tree
// GET /api/v1/engine/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snapshot, err := s.sampler.Stats()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("sampling failed: %v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, snapshot)
}

// handleStatsHistory returns buffered resource samples
// GET /api/v1/engine/stats/history?since=<RFC3339|unix>&limit=N
func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.history == nil {
		s.respondError(w, http.StatusServiceUnavailable, "resource history not enabled")
		return
	}

	query := r.URL.Query()

	since := time.Now().Add(-1 * time.Hour)
	if sinceStr := query.Get("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			unix, uerr := strconv.ParseInt(sinceStr, 10, 64)
			if uerr != nil {
				s.respondError(w, http.StatusBadRequest, "invalid since parameter (use RFC3339 or unix timestamp)")
				return
			}
			parsed = time.Unix(unix, 0)
		}
		since = parsed
	}

	limit := 100
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 || parsed > 10000 {
			s.respondError(w, http.StatusBadRequest, "invalid limit parameter (must be 1-10000)")
			return
		}
		limit = parsed
	}

	samples := s.history.GetRange(since, limit)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"since":   since.Format(time.RFC3339),
		"limit":   limit,
		"samples": len(samples),
		"data":    samples,
	})
}

// handleStart starts the engine
// POST /api/v1/engine/start with optional body {"scripts": ["..."]}
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Scripts []string `json:"scripts"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	// Readiness can take a while on first run; budget generously.
	ctx, cancel := context.WithTimeout(r.Context(), 150*time.Second)
	defer cancel()

	ctx, span := tracing.StartEngineSpan(ctx, "start")
	defer span.End()

	if err := s.supervisor.Start(ctx, req.Scripts); err != nil {
		tracing.RecordError(span, err, "engine start failed")
		s.respondError(w, httpStatusFromError(err), fmt.Sprintf("start failed: %v", err))
		return
	}
	tracing.RecordSuccess(span)

	// The fresh child should show up in resource stats right away.
	s.sampler.InvalidateCache()
	s.auditLogger.LogAPIRequest(r.RemoteAddr, r.Method, r.URL.Path)

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "started",
	})
}

// handleStop stops the engine cooperatively
// POST /api/v1/engine/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	_, span := tracing.StartEngineSpan(r.Context(), "stop")
	defer span.End()

	if err := s.supervisor.Stop(); err != nil {
		tracing.RecordError(span, err, "engine stop failed")
		s.respondError(w, httpStatusFromError(err), fmt.Sprintf("stop failed: %v", err))
		return
	}
	tracing.RecordSuccess(span)
	s.auditLogger.LogAPIRequest(r.RemoteAddr, r.Method, r.URL.Path)

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "stopped",
	})
}

// handleTerminate kills the engine immediately
// POST /api/v1/engine/terminate
func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.supervisor.Terminate(); err != nil {
		s.respondError(w, httpStatusFromError(err), fmt.Sprintf("terminate failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "terminated",
	})
}

// handleActive toggles the traffic-processing flag
// POST /api/v1/engine/active with body {"active": true}
func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		s.respondError(w, http.StatusBadRequest, "body must be {\"active\": true|false}")
		return
	}

	if err := s.supervisor.SetActive(*req.Active); err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("set active failed: %v", err))
		return
	}
	s.auditLogger.ActiveChanged(*req.Active, r.RemoteAddr)

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"active": *req.Active,
	})
}

// handleReload pushes a rule-reload notification to the engine
// POST /api/v1/engine/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.supervisor.NotifyRulesChanged()
	s.auditLogger.RulesReloaded("api")

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "reload requested",
	})
}

// handleLogs tails a domain log file
// GET /api/v1/logs/{domain}?lines=N
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/logs/")
	if name == "" || strings.Contains(name, "/") {
		s.respondError(w, http.StatusBadRequest, "log domain required")
		return
	}

	domain, ok := logger.ParseDomain(name)
	if !ok {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown log domain: %s", name))
		return
	}

	lines := 200
	if linesStr := r.URL.Query().Get("lines"); linesStr != "" {
		parsed, err := strconv.Atoi(linesStr)
		if err != nil || parsed <= 0 || parsed > 5000 {
			s.respondError(w, http.StatusBadRequest, "invalid lines parameter (must be 1-5000)")
			return
		}
		lines = parsed
	}

	path := filepath.Join(s.logDir, domain.Filename())
	tail, err := tailFile(path, lines)
	if err != nil {
		if os.IsNotExist(err) {
			// No output yet for this domain; an empty tail, not an error.
			tail = []string{}
		} else {
			s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("read log failed: %v", err))
			return
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"domain": domain,
		"lines":  tail,
	})
}

// tailFile returns the last n lines of the file at path.
func tailFile(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	all := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(all) == 1 && all[0] == "" {
		return []string{}, nil
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
