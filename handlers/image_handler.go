package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/repository"
	"github.com/eventlens/eventlensbackend/storage"
	"github.com/eventlens/eventlensbackend/uploads"
	"github.com/eventlens/eventlensbackend/utils"
)

type ImageHandler struct {
	ImageRepo repository.ImageRepositoryInterface
	EventRepo repository.EventRepositoryInterface
	GuestRepo repository.GuestRepositoryInterface
	Backend   storage.Backend
	Quota     *uploads.QuotaPolicy
}

func NewImageHandler(imageRepo repository.ImageRepositoryInterface, eventRepo repository.EventRepositoryInterface,
	guestRepo repository.GuestRepositoryInterface, backend storage.Backend, quota *uploads.QuotaPolicy) *ImageHandler {
	return &ImageHandler{
		ImageRepo: imageRepo,
		EventRepo: eventRepo,
		GuestRepo: guestRepo,
		Backend:   backend,
		Quota:     quota,
	}
}

// GuestGroup is one guest's slice of an event gallery.
type GuestGroup struct {
	GuestID   uint           `json:"guest_id"`
	GuestName string         `json:"guest_name"`
	Images    []models.Image `json:"images"`
}

// ListByEvent returns the event gallery grouped by guest, each group's images
// in natural filename order.
func (h *ImageHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := requireOwnedEvent(w, r, h.EventRepo)
	if !ok {
		return
	}

	guests, err := h.GuestRepo.ListByEvent(event.ID)
	if err != nil {
		http.Error(w, "Failed to list guests", http.StatusInternalServerError)
		return
	}
	images, err := h.ImageRepo.ListByEvent(event.ID)
	if err != nil {
		http.Error(w, "Failed to list images", http.StatusInternalServerError)
		return
	}

	byGuest := make(map[uint][]models.Image)
	for _, img := range images {
		byGuest[img.GuestID] = append(byGuest[img.GuestID], img)
	}

	groups := make([]GuestGroup, 0, len(guests))
	for _, guest := range guests {
		groupImages := byGuest[guest.ID]
		sortImagesNaturally(groupImages)
		groups = append(groups, GuestGroup{
			GuestID:   guest.ID,
			GuestName: guest.Name,
			Images:    groupImages,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event_id": event.ID,
		"groups":   groups,
		"total":    len(images),
	})
}

// ListOwn returns the authenticated guest's own uploads for the event.
func (h *ImageHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	guest := guestFromContext(r)

	eventID, err := parseUintParam(r, "eventID")
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}
	if guest.EventID != eventID {
		WriteAPIError(w, http.StatusConflict, "guest_event_mismatch", "Guest does not belong to this event")
		return
	}

	images, err := h.ImageRepo.ListByEventAndGuest(eventID, guest.ID)
	if err != nil {
		http.Error(w, "Failed to list images", http.StatusInternalServerError)
		return
	}
	sortImagesNaturally(images)
	writeJSON(w, http.StatusOK, images)
}

// DeleteOwn lets a guest remove one of their uploads while the event's
// modification window is still open.
func (h *ImageHandler) DeleteOwn(w http.ResponseWriter, r *http.Request) {
	guest := guestFromContext(r)

	imageID, err := parseUintParam(r, "imageID")
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	image, err := h.ImageRepo.GetByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "image_not_found", "Image does not exist")
			return
		}
		http.Error(w, "Failed to load image", http.StatusInternalServerError)
		return
	}
	if image.GuestID != guest.ID {
		WriteAPIError(w, http.StatusForbidden, "not_owner", "Image was uploaded by another guest")
		return
	}

	event, err := h.EventRepo.GetByID(image.EventID)
	if err != nil {
		http.Error(w, "Failed to load event", http.StatusInternalServerError)
		return
	}

	deadline := modifyDeadline(event.EventDate, h.Quota.ModifyDays())
	if time.Now().After(deadline) {
		WriteAPIError(w, http.StatusForbidden, "modify_window_closed",
			fmt.Sprintf("Uploads can no longer be changed after %s", deadline.Format(time.RFC3339)))
		return
	}

	h.removeImage(w, r, image)
}

// BulkDelete removes a set of event images on behalf of the owning customer.
func (h *ImageHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	event, ok := requireOwnedEvent(w, r, h.EventRepo)
	if !ok {
		return
	}

	var payload struct {
		ImageIDs []uint `json:"image_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if len(payload.ImageIDs) == 0 {
		http.Error(w, "image_ids is required", http.StatusBadRequest)
		return
	}

	images, err := h.ImageRepo.ListByIDs(payload.ImageIDs)
	if err != nil {
		http.Error(w, "Failed to load images", http.StatusInternalServerError)
		return
	}

	deleted := 0
	for i := range images {
		if images[i].EventID != event.ID {
			continue
		}
		if err := h.deleteImage(r, &images[i]); err != nil {
			log.Printf("images: bulk delete failed for image %d: %v", images[i].ID, err)
			continue
		}
		deleted++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requested": len(payload.ImageIDs),
		"deleted":   deleted,
	})
}

// DownloadZip streams a zip of the event's images, optionally restricted to a
// selection.
func (h *ImageHandler) DownloadZip(w http.ResponseWriter, r *http.Request) {
	event, ok := requireOwnedEvent(w, r, h.EventRepo)
	if !ok {
		return
	}

	images, ok := h.selectedImages(w, r, event)
	if !ok {
		return
	}
	if len(images) == 0 {
		WriteAPIError(w, http.StatusNotFound, "no_images", "No images match the selection")
		return
	}

	guests, err := h.GuestRepo.ListByEvent(event.ID)
	if err != nil {
		http.Error(w, "Failed to list guests", http.StatusInternalServerError)
		return
	}
	folders := make(map[uint]string, len(guests))
	for _, guest := range guests {
		folders[guest.ID] = guest.Name
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", event.EventCode+".zip"))
	if err := utils.WriteArchive(r.Context(), h.Backend, images, folders, w); err != nil {
		// headers are gone; all we can do is log
		log.Printf("images: error streaming zip for event %d: %v", event.ID, err)
	}
}

// ExportPDF streams a one-image-per-page PDF album of the event's images.
func (h *ImageHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	event, ok := requireOwnedEvent(w, r, h.EventRepo)
	if !ok {
		return
	}

	images, ok := h.selectedImages(w, r, event)
	if !ok {
		return
	}
	if len(images) == 0 {
		WriteAPIError(w, http.StatusNotFound, "no_images", "No images match the selection")
		return
	}
	sortImagesNaturally(images)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", event.EventCode+".pdf"))
	if err := utils.WriteAlbumPDF(r.Context(), h.Backend, images, w); err != nil {
		log.Printf("images: error streaming pdf for event %d: %v", event.ID, err)
	}
}

// selectedImages resolves the optional ids query selection, defaulting to the
// whole event. Images from other events are dropped from the selection.
func (h *ImageHandler) selectedImages(w http.ResponseWriter, r *http.Request, event *models.Event) ([]models.Image, bool) {
	var ids []uint
	if raw := r.URL.Query().Get("ids"); raw != "" {
		if err := json.Unmarshal([]byte("["+raw+"]"), &ids); err != nil {
			http.Error(w, "ids must be a comma-separated list of numbers", http.StatusBadRequest)
			return nil, false
		}
	}

	if len(ids) == 0 {
		images, err := h.ImageRepo.ListByEvent(event.ID)
		if err != nil {
			http.Error(w, "Failed to list images", http.StatusInternalServerError)
			return nil, false
		}
		return images, true
	}

	images, err := h.ImageRepo.ListByIDs(ids)
	if err != nil {
		http.Error(w, "Failed to load images", http.StatusInternalServerError)
		return nil, false
	}
	filtered := images[:0]
	for _, img := range images {
		if img.EventID == event.ID {
			filtered = append(filtered, img)
		}
	}
	return filtered, true
}

func (h *ImageHandler) removeImage(w http.ResponseWriter, r *http.Request, image *models.Image) {
	if err := h.deleteImage(r, image); err != nil {
		http.Error(w, "Failed to delete image", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
}

// deleteImage removes the database row first, then the blob; a leftover blob
// is preferable to a dangling row.
func (h *ImageHandler) deleteImage(r *http.Request, image *models.Image) error {
	if err := h.ImageRepo.Delete(image.ID); err != nil {
		return err
	}
	if err := h.Backend.Delete(r.Context(), image.StorageKey); err != nil {
		log.Printf("images: failed to delete object %s: %v", image.StorageKey, err)
	}
	return nil
}

// modifyDeadline is the end of the last day a guest may still change their
// uploads.
func modifyDeadline(eventDate time.Time, modifyDays int) time.Time {
	day := eventDate.AddDate(0, 0, modifyDays)
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), eventDate.Location())
}

func sortImagesNaturally(images []models.Image) {
	names := make([]string, len(images))
	byName := make(map[string]models.Image, len(images))
	for i, img := range images {
		names[i] = img.FileName
		byName[img.FileName] = img
	}
	natsort.Sort(names)
	for i, name := range names {
		images[i] = byName[name]
	}
}
