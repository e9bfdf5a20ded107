package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/parser"
	"github.com/dgallion1/docmock/internal/pipeline"
	"github.com/dgallion1/docmock/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return
	}

	scene, err := s.uploadScene(r, r.FormValue("sceneId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "scene not found", http.StatusBadRequest)
			return
		}
		s.log.Error("resolve scene failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	job := pipeline.NewJob(endpoint.NewID(), filename, data)
	job.SceneID = scene.ID
	job.SceneName = scene.Name
	job.FullAI = formBool(r.FormValue("fullAi"))

	if err := s.deps.Orchestrator.Submit(r.Context(), job); err != nil {
		s.log.Error("submit failed", "file_name", filename, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"fileId":   snap.FileID,
		"fileName": snap.FileName,
		"status":   snap.Status,
		"message":  "file accepted, processing in background",
		"pollUrl":  "/parse/uploaded-files/" + snap.FileID,
	})
}

// uploadScene resolves the target scene; an empty id means the default scene.
func (s *Server) uploadScene(r *http.Request, id string) (*store.Scene, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return s.deps.Store.EnsureDefaultScene(r.Context())
	}
	return s.deps.Store.GetScene(r.Context(), id)
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	files, err := s.deps.Store.ListUploadedFiles(r.Context())
	if err != nil {
		s.storeError(w, err, "uploaded files")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// handleUploadStatus reports live progress while the job is tracked, then
// falls back to the stored record.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if job := s.deps.Orchestrator.GetJob(fileID); job != nil {
		writeJSON(w, http.StatusOK, job.Snapshot())
		return
	}
	f, err := s.deps.Store.GetUploadedFile(r.Context(), fileID)
	if err != nil {
		s.storeError(w, err, "uploaded file")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func formBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
