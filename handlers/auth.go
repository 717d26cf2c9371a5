package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/repository"
)

// Actor types carried in token claims.
const (
	ActorCustomer = "customer"
	ActorGuest    = "guest"
)

// Claims are the JWT claims issued by this service: the subject is the actor
// ID and Type distinguishes customers from guests.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type AuthHandler struct {
	CustomerRepo repository.CustomerRepositoryInterface
	GuestRepo    repository.GuestRepositoryInterface
	EventRepo    repository.EventRepositoryInterface

	JWTSecret          []byte
	JWTExpirationHours int
}

func NewAuthHandler(customerRepo repository.CustomerRepositoryInterface, guestRepo repository.GuestRepositoryInterface,
	eventRepo repository.EventRepositoryInterface, jwtSecret []byte, jwtExpirationHours int) *AuthHandler {
	return &AuthHandler{
		CustomerRepo:       customerRepo,
		GuestRepo:          guestRepo,
		EventRepo:          eventRepo,
		JWTSecret:          jwtSecret,
		JWTExpirationHours: jwtExpirationHours,
	}
}

func (h *AuthHandler) issueToken(actorType string, actorID uint) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(h.JWTExpirationHours) * time.Hour)
	claims := &Claims{
		Type: actorType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(actorID),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "eventlensbackend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

type CustomerRegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterCustomer creates a new customer account.
func (h *AuthHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var payload CustomerRegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		http.Error(w, "Name, email, and password are required", http.StatusBadRequest)
		return
	}

	if _, err := h.CustomerRepo.GetByEmail(payload.Email); err == nil {
		http.Error(w, "An account with this email already exists", http.StatusConflict)
		return
	}

	customer := &models.Customer{Name: payload.Name, Email: payload.Email}
	if err := customer.SetPassword(payload.Password); err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := h.CustomerRepo.Create(customer); err != nil {
		http.Error(w, "Failed to create account: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created successfully. Please log in."})
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginCustomer authenticates a customer and issues a token.
func (h *AuthHandler) LoginCustomer(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	customer, err := h.CustomerRepo.GetByEmail(payload.Email)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if !customer.CheckPassword(payload.Password) {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	tokenString, expiresAt, err := h.issueToken(ActorCustomer, customer.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: tokenString, ExpiresAt: expiresAt})
}

type GuestRegisterPayload struct {
	EventCode   string  `json:"event_code"`
	Name        string  `json:"name"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Password    *string `json:"password,omitempty"`
}

type GuestAuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Guest     models.Guest `json:"guest"`
	EventID   uint         `json:"event_id"`
}

// RegisterGuest registers a guest against the event behind a scanned code and
// issues a token. The guest's event binding is fixed here and never changes.
func (h *AuthHandler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	var payload GuestRegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if payload.EventCode == "" || payload.Name == "" {
		http.Error(w, "Event code and name are required", http.StatusBadRequest)
		return
	}

	event, err := h.EventRepo.GetByEventCode(payload.EventCode)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			WriteAPIError(w, http.StatusNotFound, "event_not_found", "No event exists for this code")
			return
		}
		http.Error(w, "Failed to look up event", http.StatusInternalServerError)
		return
	}
	if !event.IsActive {
		WriteAPIError(w, http.StatusForbidden, "event_inactive", "This event is no longer active")
		return
	}

	if payload.Email != nil {
		if existing, err := h.GuestRepo.GetByEmailAndEvent(*payload.Email, event.ID); err == nil {
			// returning guest: verify password if one was set
			if existing.PasswordHash != nil && (payload.Password == nil || !existing.CheckPassword(*payload.Password)) {
				http.Error(w, "Invalid password for returning guest", http.StatusUnauthorized)
				return
			}
			h.respondWithGuestToken(w, http.StatusOK, existing, event.ID)
			return
		}
	}

	guest := &models.Guest{
		Name:        payload.Name,
		Email:       payload.Email,
		PhoneNumber: payload.PhoneNumber,
		EventID:     event.ID,
	}
	if payload.Password != nil {
		if err := guest.SetPassword(*payload.Password); err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}
	}

	if err := h.GuestRepo.Create(guest); err != nil {
		http.Error(w, "Failed to register guest: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.respondWithGuestToken(w, http.StatusCreated, guest, event.ID)
}

type GuestLoginPayload struct {
	EventCode string `json:"event_code"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginGuest re-authenticates a returning guest who registered with an email
// and password.
func (h *AuthHandler) LoginGuest(w http.ResponseWriter, r *http.Request) {
	var payload GuestLoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.EventCode == "" || payload.Email == "" {
		http.Error(w, "Event code and email are required", http.StatusBadRequest)
		return
	}

	event, err := h.EventRepo.GetByEventCode(payload.EventCode)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			WriteAPIError(w, http.StatusNotFound, "event_not_found", "No event exists for this code")
			return
		}
		http.Error(w, "Failed to look up event", http.StatusInternalServerError)
		return
	}

	guest, err := h.GuestRepo.GetByEmailAndEvent(payload.Email, event.ID)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if guest.PasswordHash == nil || !guest.CheckPassword(payload.Password) {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.respondWithGuestToken(w, http.StatusOK, guest, event.ID)
}

// Me returns the actor behind the presented token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if customer := customerFromContext(r); customer != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"type":     ActorCustomer,
			"customer": customer,
		})
		return
	}
	if guest := guestFromContext(r); guest != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"type":  ActorGuest,
			"guest": guest,
		})
		return
	}
	http.Error(w, "No authenticated actor", http.StatusUnauthorized)
}

func (h *AuthHandler) respondWithGuestToken(w http.ResponseWriter, status int, guest *models.Guest, eventID uint) {
	tokenString, expiresAt, err := h.issueToken(ActorGuest, guest.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, GuestAuthResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		Guest:     *guest,
		EventID:   eventID,
	})
}
