package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/eventlens/eventlensbackend/uploads"
)

// maxUploadMemory bounds how much of a multipart body is buffered in memory.
const maxUploadMemory = 64 << 20

type UploadHandler struct {
	Pipeline *uploads.Pipeline
}

func NewUploadHandler(pipeline *uploads.Pipeline) *UploadHandler {
	return &UploadHandler{Pipeline: pipeline}
}

// Upload accepts a multipart batch of photos from the authenticated guest and
// runs it through the admission pipeline. The response carries the per-file
// outcomes; batch-level rejections map onto the HTTP status.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	guest := guestFromContext(r)

	eventID, err := parseUintParam(r, "eventID")
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}
	guestID, err := parseUintParam(r, "guestID")
	if err != nil {
		http.Error(w, "Invalid guest ID", http.StatusBadRequest)
		return
	}

	// guests may only upload as themselves
	if guest.ID != guestID {
		WriteAPIError(w, http.StatusForbidden, "not_self", "Token does not match the target guest")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Invalid multipart request: "+err.Error(), http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	files := make([]uploads.UploadFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			http.Error(w, "Failed to read uploaded file "+header.Filename, http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			http.Error(w, "Failed to read uploaded file "+header.Filename, http.StatusBadRequest)
			return
		}
		files = append(files, uploads.UploadFile{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	batch, err := h.Pipeline.Upload(r.Context(), eventID, guestID, files)
	if err != nil {
		h.writeUploadError(w, batch, err)
		return
	}

	writeJSON(w, http.StatusCreated, batch)
}

// writeUploadError maps pipeline errors onto HTTP statuses. For mid-batch
// storage failures the partial results are included so the client knows what
// was committed.
func (h *UploadHandler) writeUploadError(w http.ResponseWriter, batch *uploads.BatchResult, err error) {
	var windowErr *uploads.WindowClosedError
	var quotaErr *uploads.QuotaExceededError
	var storageErr *uploads.StorageError

	switch {
	case errors.Is(err, uploads.ErrEventNotFound):
		WriteAPIError(w, http.StatusNotFound, "event_not_found", "Event does not exist")
	case errors.Is(err, uploads.ErrGuestNotFound):
		WriteAPIError(w, http.StatusNotFound, "guest_not_found", "Guest does not exist")
	case errors.Is(err, uploads.ErrGuestNotInEvent):
		WriteAPIError(w, http.StatusConflict, "guest_event_mismatch", "Guest does not belong to this event")
	case errors.As(err, &windowErr):
		WriteAPIError(w, http.StatusForbidden, "upload_window_closed", windowErr.Error())
	case errors.As(err, &quotaErr):
		WriteAPIError(w, http.StatusBadRequest, "batch_too_large", quotaErr.Error())
	case errors.As(err, &storageErr):
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   "storage failure aborted the batch",
			"results": batch,
		})
	default:
		log.Printf("uploads: internal error: %v", err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
	}
}
