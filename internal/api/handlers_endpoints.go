package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/extract"
	"github.com/dgallion1/docmock/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	defs, err := s.deps.Store.ListDefinitions(r.Context())
	if err != nil {
		s.storeError(w, err, "endpoints")
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

// handleCreateManual stores a hand-written definition. It is served by id
// unless the body names an apiPath.
func (s *Server) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	sceneID, _ := body["sceneId"].(string)
	if strings.TrimSpace(sceneID) == "" {
		jsonError(w, "sceneId is required", http.StatusBadRequest)
		return
	}
	scene, err := s.deps.Store.GetScene(r.Context(), strings.TrimSpace(sceneID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "scene not found", http.StatusBadRequest)
			return
		}
		s.storeError(w, err, "scene")
		return
	}

	c := endpoint.CandidateFromObject(body, "")
	c.APIPath = extract.NormalizeAPIPath(c.APIPath)
	n := endpoint.NewNormalizer(endpoint.Source{SceneID: scene.ID, SceneName: scene.Name})
	d, err := n.BuildManual(c)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.deps.Store.SaveDefinition(r.Context(), d); err != nil {
		s.storeError(w, err, "endpoint")
		return
	}
	s.addLog(r, store.OpLog{
		Type:    store.LogMockCreate,
		MockID:  d.ID,
		Message: fmt.Sprintf("created mock endpoint %q", d.Title),
	})
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.deps.Store.GetDefinition(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "endpoint")
		return
	}
	patch, err := readObject(w, r)
	if err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := endpoint.ApplyUpdate(d, patch); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.deps.Store.UpdateDefinition(r.Context(), d); err != nil {
		s.storeError(w, err, "endpoint")
		return
	}
	s.addLog(r, store.OpLog{
		Type:    store.LogMockUpdate,
		MockID:  d.ID,
		Message: fmt.Sprintf("updated mock endpoint %q", d.Title),
	})
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.deps.Store.GetDefinition(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "endpoint")
		return
	}
	if err := s.deps.Store.DeleteDefinition(r.Context(), id); err != nil {
		s.storeError(w, err, "endpoint")
		return
	}
	s.addLog(r, store.OpLog{
		Type:           store.LogMockDelete,
		SourceFileName: d.SourceFileName,
		Message:        fmt.Sprintf("deleted mock endpoint %q (%s)", d.Title, d.ID),
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (s *Server) handleDeleteByFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	n, err := s.deps.Store.DeleteBySourceFile(r.Context(), fileID)
	if err != nil {
		s.storeError(w, err, "endpoints")
		return
	}
	if n > 0 {
		name := fileID
		if f, err := s.deps.Store.GetUploadedFile(r.Context(), fileID); err == nil {
			name = f.FileName
		}
		s.addLog(r, store.OpLog{
			Type:           store.LogDocDelete,
			SourceFileName: name,
			Message:        fmt.Sprintf("deleted %d mock endpoints", n),
		})
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}
