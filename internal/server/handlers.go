package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "tariff-scout",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	products, replacements, tariffs := s.store.Counts()
	total, byStatus := s.recs.Counts()

	dbSizeMB := 0.0
	if info, err := os.Stat(s.cfg.DatabasePath); err == nil {
		dbSizeMB = float64(info.Size()) / 1024 / 1024
	}

	response := map[string]interface{}{
		"status":         "running",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"refdata": map[string]int{
			"products":     products,
			"replacements": replacements,
			"tariffs":      tariffs,
		},
		"recommendations": map[string]interface{}{
			"total":                  total,
			"pending":                byStatus[domain.StatusPending],
			"approved":               byStatus[domain.StatusApproved],
			"rejected":               byStatus[domain.StatusRejected],
			"more_options_requested": byStatus[domain.StatusMoreOptionsRequested],
		},
		"database_size_mb": dbSizeMB,
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleTriggerRefresh runs the reference data refresh job immediately.
func (s *Server) handleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refreshJob == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Refresh job not registered")
		return
	}

	s.log.Info().Msg("Manual reference data refresh triggered")

	if err := s.scheduler.RunNow(s.refreshJob); err != nil {
		s.log.Error().Err(err).Msg("Failed to refresh reference data")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	products, replacements, tariffs := s.store.Counts()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"counts": map[string]int{
			"products":     products,
			"replacements": replacements,
			"tariffs":      tariffs,
		},
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
