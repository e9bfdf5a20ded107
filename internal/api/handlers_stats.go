package api

import (
	"net/http"
	"time"
)

// recentLogLimit is how many logs the log view returns.
const recentLogLimit = 50

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.LLMStats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.deps.Model,
		"stats": s.deps.LLMStats.Snapshot(),
	})
}

func (s *Server) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.deps.Store.RecentLogs(r.Context(), recentLogLimit)
	if err != nil {
		s.storeError(w, err, "logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Store.LogStats(r.Context())
	if err != nil {
		s.storeError(w, err, "log stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleEndpointCounts(since func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.deps.Store.EndpointCounts(r.Context(), since())
		if err != nil {
			s.storeError(w, err, "endpoint counts")
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

func (s *Server) handleSceneCounts(since func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.deps.Store.SceneCounts(r.Context(), since())
		if err != nil {
			s.storeError(w, err, "scene counts")
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}
