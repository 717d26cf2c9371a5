package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/repository"
	"github.com/eventlens/eventlensbackend/storage"
	"github.com/eventlens/eventlensbackend/uploads"
	"github.com/eventlens/eventlensbackend/utils"
)

const (
	eventCodeLength = 12
	qrCodeSize      = 300
)

// ArchiveQueuer enqueues background archive builds.
type ArchiveQueuer interface {
	QueueJob(eventID uint)
}

type EventHandler struct {
	EventRepo repository.EventRepositoryInterface
	GuestRepo repository.GuestRepositoryInterface
	ImageRepo repository.ImageRepositoryInterface
	Backend   storage.Backend
	Archiver  ArchiveQueuer

	Window          uploads.WindowPolicy
	FrontendBaseURL string
}

func NewEventHandler(eventRepo repository.EventRepositoryInterface, guestRepo repository.GuestRepositoryInterface,
	imageRepo repository.ImageRepositoryInterface, backend storage.Backend, archiver ArchiveQueuer,
	window uploads.WindowPolicy, frontendBaseURL string) *EventHandler {
	return &EventHandler{
		EventRepo:       eventRepo,
		GuestRepo:       guestRepo,
		ImageRepo:       imageRepo,
		Backend:         backend,
		Archiver:        archiver,
		Window:          window,
		FrontendBaseURL: frontendBaseURL,
	}
}

type CreateEventPayload struct {
	Name           string  `json:"name"`
	EventType      string  `json:"event_type"`
	Description    *string `json:"description,omitempty"`
	EventDate      string  `json:"event_date"`
	EventStartTime *string `json:"event_start_time,omitempty"`
	EventEndTime   *string `json:"event_end_time,omitempty"`
	Venue          *string `json:"venue,omitempty"`
	ExpectedGuests *int    `json:"expected_guests,omitempty"`
}

// Create registers a new event for the authenticated customer, deriving its
// code, storage namespace, upload window, and QR code.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r)

	var payload CreateEventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Name == "" || payload.EventType == "" || payload.EventDate == "" {
		http.Error(w, "Name, event type, and event date are required", http.StatusBadRequest)
		return
	}

	eventDate, err := time.Parse("2006-01-02", payload.EventDate)
	if err != nil {
		http.Error(w, "Event date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}

	code, err := h.uniqueEventCode()
	if err != nil {
		http.Error(w, "Failed to allocate event code", http.StatusInternalServerError)
		return
	}

	validFrom, validUntil := h.Window.ComputeBounds(eventDate, payload.EventStartTime)
	folderPath := "events/" + code + "/"

	event := &models.Event{
		EventCode:         code,
		Name:              payload.Name,
		EventType:         payload.EventType,
		Description:       payload.Description,
		EventDate:         eventDate,
		EventStartTime:    payload.EventStartTime,
		EventEndTime:      payload.EventEndTime,
		ValidFrom:         &validFrom,
		ValidUntil:        &validUntil,
		Venue:             payload.Venue,
		ExpectedGuests:    payload.ExpectedGuests,
		StorageFolderPath: folderPath,
		CustomerID:        customer.ID,
		IsActive:          true,
		ArchiveStatus:     models.ArchiveStatusNone,
	}

	if url, err := h.storeQRCode(r, code, folderPath); err != nil {
		// the event is still usable without a QR image
		log.Printf("events: failed to generate QR code for %s: %v", code, err)
	} else {
		event.QRCodeURL = url
	}

	if err := h.EventRepo.Create(event); err != nil {
		http.Error(w, "Failed to create event: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) uniqueEventCode() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := utils.GenerateCode(eventCodeLength)
		exists, err := h.EventRepo.ExistsByEventCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique event code")
}

func (h *EventHandler) storeQRCode(r *http.Request, code, folderPath string) (string, error) {
	content := h.FrontendBaseURL + "/guest/register?eventCode=" + code
	png, err := qrcode.Encode(content, qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", err
	}

	key := folderPath + "qr.png"
	if err := h.Backend.Put(r.Context(), key, bytes.NewReader(png), int64(len(png)), "image/png"); err != nil {
		return "", err
	}
	return h.Backend.PublicURL(key), nil
}

// List returns the authenticated customer's events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r)

	events, err := h.EventRepo.ListByCustomer(customer.ID)
	if err != nil {
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Get returns one of the customer's events with its image count.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, ok := h.ownedEvent(w, r)
	if !ok {
		return
	}

	count, err := h.ImageRepo.CountByEvent(event.ID)
	if err != nil {
		http.Error(w, "Failed to count images", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event":       event,
		"image_count": count,
	})
}

type PublicEventResponse struct {
	EventCode  string     `json:"event_code"`
	Name       string     `json:"name"`
	EventType  string     `json:"event_type"`
	EventDate  time.Time  `json:"event_date"`
	UploadOpen bool       `json:"upload_open"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// GetByCode is the public lookup guests hit after scanning a QR code.
func (h *EventHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "eventCode")

	event, err := h.EventRepo.GetByEventCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "event_not_found", "No event exists for this code")
			return
		}
		http.Error(w, "Failed to look up event", http.StatusInternalServerError)
		return
	}

	open, _, _ := h.Window.IsOpen(event, time.Now())
	writeJSON(w, http.StatusOK, PublicEventResponse{
		EventCode:  event.EventCode,
		Name:       event.Name,
		EventType:  event.EventType,
		EventDate:  event.EventDate,
		UploadOpen: open,
		ValidFrom:  event.ValidFrom,
		ValidUntil: event.ValidUntil,
	})
}

// DownloadQRCode streams the stored QR code image for one of the customer's
// events.
func (h *EventHandler) DownloadQRCode(w http.ResponseWriter, r *http.Request) {
	event, ok := h.ownedEvent(w, r)
	if !ok {
		return
	}

	key := event.StorageFolderPath + "qr.png"
	reader, size, err := h.Backend.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, "qr_not_found", "No QR code image exists for this event")
			return
		}
		http.Error(w, "Failed to open QR code", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("events: error streaming QR code for event %d: %v", event.ID, err)
	}
}

// RequestArchive queues a full-event zip build.
func (h *EventHandler) RequestArchive(w http.ResponseWriter, r *http.Request) {
	event, ok := h.ownedEvent(w, r)
	if !ok {
		return
	}

	if err := h.EventRepo.RequestArchive(event.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusConflict, "archive_in_progress", "An archive build is already queued or running")
			return
		}
		http.Error(w, "Failed to request archive", http.StatusInternalServerError)
		return
	}

	h.Archiver.QueueJob(event.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": models.ArchiveStatusPending})
}

// ArchiveStatus reports the state of the event's archive build.
func (h *EventHandler) ArchiveStatus(w http.ResponseWriter, r *http.Request) {
	event, ok := h.ownedEvent(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       event.ArchiveStatus,
		"requested_at": event.ArchiveRequestedAt,
		"generated_at": event.ArchiveGeneratedAt,
		"size":         event.ArchiveSize,
		"error":        event.ArchiveError,
	})
}

// DownloadArchive streams the finished event zip.
func (h *EventHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	event, ok := h.ownedEvent(w, r)
	if !ok {
		return
	}

	if event.ArchiveStatus != models.ArchiveStatusDone || event.ArchiveKey == nil {
		WriteAPIError(w, http.StatusConflict, "archive_not_ready", "No finished archive exists for this event")
		return
	}

	reader, size, err := h.Backend.Get(r.Context(), *event.ArchiveKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, "archive_missing", "The archive object is missing from storage")
			return
		}
		http.Error(w, "Failed to open archive", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", event.EventCode+".zip"))
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("events: error streaming archive for event %d: %v", event.ID, err)
	}
}

func (h *EventHandler) ownedEvent(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	return requireOwnedEvent(w, r, h.EventRepo)
}

func parseUintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

// requireOwnedEvent loads the event from the URL and verifies it belongs to
// the authenticated customer.
func requireOwnedEvent(w http.ResponseWriter, r *http.Request, eventRepo repository.EventRepositoryInterface) (*models.Event, bool) {
	customer := customerFromContext(r)

	eventID, err := parseUintParam(r, "eventID")
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return nil, false
	}

	event, err := eventRepo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "event_not_found", "Event does not exist")
			return nil, false
		}
		http.Error(w, "Failed to load event", http.StatusInternalServerError)
		return nil, false
	}

	if event.CustomerID != customer.ID {
		WriteAPIError(w, http.StatusForbidden, "not_owner", "Event belongs to another account")
		return nil, false
	}
	return event, true
}
