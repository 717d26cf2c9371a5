package handlers

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/eventlens/eventlensbackend/storage"
)

// FileHandler serves stored objects by key. It fronts the local backend;
// object store deployments hand out direct URLs instead.
type FileHandler struct {
	Backend storage.Backend
}

func NewFileHandler(backend storage.Backend) *FileHandler {
	return &FileHandler{Backend: backend}
}

// Serve streams the object named by the key query parameter.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key query parameter is required", http.StatusBadRequest)
		return
	}

	reader, size, err := h.Backend.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, "file_not_found", "No object exists for this key")
			return
		}
		// traversal attempts land here too
		http.Error(w, "Failed to open file", http.StatusBadRequest)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("files: error streaming %s: %v", key, err)
	}
}
