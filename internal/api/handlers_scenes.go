package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
	"github.com/dgallion1/docmock/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.deps.Store.ListScenes(r.Context())
	if err != nil {
		s.storeError(w, err, "scenes")
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	sc := &store.Scene{}
	applySceneFields(sc, body)
	if sc.Name == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := s.deps.Store.CreateScene(r.Context(), sc); err != nil {
		s.storeError(w, err, "scene")
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleUpdateScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.deps.Store.GetScene(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err, "scene")
		return
	}
	body, err := readObject(w, r)
	if err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	applySceneFields(sc, body)
	if sc.Name == "" {
		jsonError(w, "name must not be empty", http.StatusBadRequest)
		return
	}
	if err := s.deps.Store.UpdateScene(r.Context(), sc); err != nil {
		s.storeError(w, err, "scene")
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Store.DeleteScene(r.Context(), id); err != nil {
		s.storeError(w, err, "scene")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (s *Server) handleSceneEndpoints(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.deps.Store.GetScene(r.Context(), id); err != nil {
		s.storeError(w, err, "scene")
		return
	}
	defs, err := s.deps.Store.ListDefinitionsByScene(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "endpoints")
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

// applySceneFields copies the name, description and keywords present in body.
func applySceneFields(sc *store.Scene, body jsontree.Object) {
	if v, ok := body["name"]; ok {
		sc.Name, _ = v.(string)
		sc.Name = strings.TrimSpace(sc.Name)
	}
	if v, ok := body["description"]; ok {
		sc.Description, _ = v.(string)
	}
	if v, ok := body["keywords"]; ok {
		sc.Keywords = keywordText(v)
	}
}

// keywordText accepts keywords as a comma separated string or a string array.
func keywordText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ",")
	}
	return ""
}
