package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/mock"
	"github.com/go-chi/chi/v5"
)

const mockInfoHint = "POST JSON to mockUrl to get mock response with validation"

func (s *Server) handleMockByPath(w http.ResponseWriter, r *http.Request) {
	apiPath := strings.TrimPrefix(r.URL.Path, "/mock")
	d, err := s.deps.Resolver.Resolve(r.Context(), apiPath, r.Method)
	if err != nil {
		s.mockLookupError(w, err)
		return
	}
	s.serveMock(w, r, d)
}

func (s *Server) handleMockByID(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Resolver.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.mockLookupError(w, err)
		return
	}
	s.serveMock(w, r, d)
}

func (s *Server) mockLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, mock.ErrNoEndpoint) {
		jsonError(w, "mock endpoint not found", http.StatusNotFound)
		return
	}
	s.log.Error("resolve mock failed", "error", err)
	jsonError(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) serveMock(w http.ResponseWriter, r *http.Request, d *endpoint.Definition) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		jsonError(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	req, err := mock.NewRequest(r.Header, r.URL.Query(), r.Header.Get("Content-Type"), body)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.deps.Synthesizer.Serve(r.Context(), d, req)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.log.Error("mock response failed", "mock_id", d.ID, "error", err)
		jsonError(w, "failed to build mock response", http.StatusInternalServerError)
		return
	}

	for name, value := range resp.Header {
		if strings.EqualFold(name, "Content-Length") {
			continue
		}
		w.Header().Set(name, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func (s *Server) handleMockInfo(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Resolver.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.mockLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                   d.ID,
		"title":                d.Title,
		"method":               d.Method,
		"mockUrl":              d.MockURL,
		"sceneId":              d.SceneID,
		"sceneName":            d.SceneName,
		"errorHttpStatus":      d.ErrorStatus(),
		"requiredFields":       d.RequiredFields,
		"requestExample":       d.RequestExample,
		"responseExample":      d.ResponseExample,
		"errorResponseExample": d.ErrorResponseExample,
		"hint":                 mockInfoHint,
	})
}
