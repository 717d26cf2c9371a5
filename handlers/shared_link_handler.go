package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/repository"
	"github.com/eventlens/eventlensbackend/utils"
)

const shareCodeLength = 12

type SharedLinkHandler struct {
	LinkRepo  repository.SharedLinkRepositoryInterface
	EventRepo repository.EventRepositoryInterface
	ImageRepo repository.ImageRepositoryInterface
}

func NewSharedLinkHandler(linkRepo repository.SharedLinkRepositoryInterface,
	eventRepo repository.EventRepositoryInterface, imageRepo repository.ImageRepositoryInterface) *SharedLinkHandler {
	return &SharedLinkHandler{LinkRepo: linkRepo, EventRepo: eventRepo, ImageRepo: imageRepo}
}

type CreateSharedLinkPayload struct {
	EventID       uint    `json:"event_id"`
	FolderName    *string `json:"folder_name,omitempty"`
	ImageIDs      []uint  `json:"image_ids"`
	Password      *string `json:"password,omitempty"`
	ExpiresInDays *int    `json:"expires_in_days,omitempty"`
}

// Create builds a shareable, optionally password-protected selection of a
// customer's event images.
func (h *SharedLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r)

	var payload CreateSharedLinkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.EventID == 0 || len(payload.ImageIDs) == 0 {
		http.Error(w, "event_id and image_ids are required", http.StatusBadRequest)
		return
	}

	event, err := h.EventRepo.GetByID(payload.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "event_not_found", "Event does not exist")
			return
		}
		http.Error(w, "Failed to load event", http.StatusInternalServerError)
		return
	}
	if event.CustomerID != customer.ID {
		WriteAPIError(w, http.StatusForbidden, "not_owner", "Event belongs to another account")
		return
	}

	images, err := h.ImageRepo.ListByIDs(payload.ImageIDs)
	if err != nil {
		http.Error(w, "Failed to load images", http.StatusInternalServerError)
		return
	}
	selected := make([]models.Image, 0, len(images))
	for _, img := range images {
		if img.EventID == event.ID {
			selected = append(selected, img)
		}
	}
	if len(selected) == 0 {
		http.Error(w, "None of the requested images belong to this event", http.StatusBadRequest)
		return
	}

	code, err := h.uniqueShareCode()
	if err != nil {
		http.Error(w, "Failed to allocate share code", http.StatusInternalServerError)
		return
	}

	link := &models.SharedLink{
		ShareCode:  code,
		FolderName: payload.FolderName,
		EventID:    event.ID,
		CustomerID: customer.ID,
		IsActive:   true,
		Images:     selected,
	}
	if payload.Password != nil && *payload.Password != "" {
		if err := link.SetAccessPassword(*payload.Password); err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}
	}
	if payload.ExpiresInDays != nil && *payload.ExpiresInDays > 0 {
		expiry := time.Now().AddDate(0, 0, *payload.ExpiresInDays)
		link.ExpiresAt = &expiry
	}

	if err := h.LinkRepo.Create(link); err != nil {
		http.Error(w, "Failed to create shared link: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

func (h *SharedLinkHandler) uniqueShareCode() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := utils.GenerateCode(shareCodeLength)
		exists, err := h.LinkRepo.ExistsByShareCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique share code")
}

type SharedLinkView struct {
	ShareCode  string         `json:"share_code"`
	FolderName *string        `json:"folder_name,omitempty"`
	Images     []models.Image `json:"images"`
}

// Get is the public endpoint behind a share code. Password-protected links
// read the password from the X-Access-Password header.
func (h *SharedLinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "shareCode")

	link, err := h.LinkRepo.GetByShareCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "link_not_found", "No shared link exists for this code")
			return
		}
		http.Error(w, "Failed to load shared link", http.StatusInternalServerError)
		return
	}

	if !link.IsActive || link.IsExpired(time.Now()) {
		WriteAPIError(w, http.StatusGone, "link_expired", "This shared link is no longer available")
		return
	}

	if !link.CheckAccessPassword(r.Header.Get("X-Access-Password")) {
		WriteAPIError(w, http.StatusUnauthorized, "password_required", "A valid access password is required")
		return
	}

	writeJSON(w, http.StatusOK, SharedLinkView{
		ShareCode:  link.ShareCode,
		FolderName: link.FolderName,
		Images:     link.Images,
	})
}

// List returns the customer's shared links.
func (h *SharedLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r)

	links, err := h.LinkRepo.ListByCustomer(customer.ID)
	if err != nil {
		http.Error(w, "Failed to list shared links", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// Deactivate retires one of the customer's shared links.
func (h *SharedLinkHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r)

	code := chi.URLParam(r, "shareCode")
	link, err := h.LinkRepo.GetByShareCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "link_not_found", "No shared link exists for this code")
			return
		}
		http.Error(w, "Failed to load shared link", http.StatusInternalServerError)
		return
	}
	if link.CustomerID != customer.ID {
		WriteAPIError(w, http.StatusForbidden, "not_owner", "Shared link belongs to another account")
		return
	}

	if err := h.LinkRepo.Deactivate(link.ID); err != nil {
		http.Error(w, "Failed to deactivate shared link", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Shared link deactivated"})
}
