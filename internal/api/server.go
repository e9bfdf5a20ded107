package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/docmock/internal/config"
	"github.com/dgallion1/docmock/internal/extract"
	"github.com/dgallion1/docmock/internal/jsontree"
	"github.com/dgallion1/docmock/internal/mock"
	"github.com/dgallion1/docmock/internal/pipeline"
	"github.com/dgallion1/docmock/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxJSONBody bounds admin and mock request bodies.
const maxJSONBody = 10 << 20

// Deps are the components the HTTP layer drives.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Store        store.Store
	Resolver     *mock.Resolver
	Synthesizer  *mock.Synthesizer
	LLMStats     *extract.LLMStats // optional
	Model        string
}

// Server is the HTTP API server for docmock.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
	now    func() time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
		now:  time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/mock/*", s.handleMockByPath)
	r.Post("/mock/*", s.handleMockByPath)
	r.Get("/parse/mock/{id}", s.handleMockByID)
	r.Post("/parse/mock/{id}", s.handleMockByID)

	// Admin endpoints, authenticated when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.DocmockAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.DocmockAPIKey, s.log))
		}

		r.Post("/parse/endpoint", s.handleUpload)
		r.Get("/parse/uploaded-files", s.handleListUploads)
		r.Get("/parse/uploaded-files/{fileID}", s.handleUploadStatus)

		r.Get("/parse/mock/{id}/info", s.handleMockInfo)

		r.Get("/parse/endpoint/history", s.handleListEndpoints)
		r.Post("/parse/endpoint/manual", s.handleCreateManual)
		r.Put("/parse/endpoint/{id}", s.handleUpdateEndpoint)
		r.Delete("/parse/endpoint/{id}", s.handleDeleteEndpoint)
		r.Delete("/parse/endpoint/file/{fileID}", s.handleDeleteByFile)

		r.Get("/parse/logs", s.handleRecentLogs)
		r.Get("/parse/logs/stats", s.handleLogStats)
		r.Get("/parse/logs/stats/endpoint-today", s.handleEndpointCounts(s.startOfToday))
		r.Get("/parse/logs/stats/endpoint-week", s.handleEndpointCounts(s.weekAgo))
		r.Get("/parse/logs/stats/scene-today", s.handleSceneCounts(s.startOfToday))
		r.Get("/parse/logs/stats/scene-week", s.handleSceneCounts(s.weekAgo))

		r.Get("/parse/scenes", s.handleListScenes)
		r.Post("/parse/scenes", s.handleCreateScene)
		r.Put("/parse/scenes/{id}", s.handleUpdateScene)
		r.Delete("/parse/scenes/{id}", s.handleDeleteScene)
		r.Get("/parse/scenes/{id}/endpoints", s.handleSceneEndpoints)

		r.Get("/parse/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.deps.Orchestrator.QueueDepth(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// readObject decodes a JSON object body, keeping numbers exact.
func readObject(w http.ResponseWriter, r *http.Request) (jsontree.Object, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	v, err := jsontree.Decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(jsontree.Object)
	if !ok {
		return nil, errors.New("body must be a JSON object")
	}
	return obj, nil
}

// storeError maps a store error to a response; not found is 404.
func (s *Server) storeError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, what+" not found", http.StatusNotFound)
		return
	}
	s.log.Error("store operation failed", "what", what, "error", err)
	jsonError(w, "internal error", http.StatusInternalServerError)
}

// addLog records an operation log; failures are only logged.
func (s *Server) addLog(r *http.Request, l store.OpLog) {
	if err := s.deps.Store.AddLog(r.Context(), l); err != nil {
		s.log.Warn("operation log failed", "type", l.Type, "error", err)
	}
}

func (s *Server) startOfToday() time.Time {
	return store.StartOfDay(s.now())
}

func (s *Server) weekAgo() time.Time {
	return s.now().Add(-7 * 24 * time.Hour)
}
