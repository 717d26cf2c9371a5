package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// CustomerContextKey is the key used to store the customer in the request context.
	CustomerContextKey ContextKey = "customer"
	// GuestContextKey is the key used to store the guest in the request context.
	GuestContextKey ContextKey = "guest"
)

// AuthMiddleware verifies the bearer token and loads the actor it names
// (customer or guest) into the request context.
func AuthMiddleware(jwtSecret []byte, customerRepo repository.CustomerRepositoryInterface,
	guestRepo repository.GuestRepositoryInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "Authorization header format must be Bearer {token}", http.StatusUnauthorized)
			return
		}
		tokenString := parts[1]

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		var actorID uint
		if _, err := fmt.Sscan(claims.Subject, &actorID); err != nil {
			http.Error(w, "Invalid subject in token", http.StatusUnauthorized)
			return
		}

		var ctx context.Context
		switch claims.Type {
		case ActorCustomer:
			customer, err := customerRepo.GetByID(actorID)
			if err != nil {
				http.Error(w, "Account not found", http.StatusUnauthorized)
				return
			}
			ctx = context.WithValue(r.Context(), CustomerContextKey, customer)
		case ActorGuest:
			guest, err := guestRepo.GetByID(actorID)
			if err != nil {
				http.Error(w, "Guest not found", http.StatusUnauthorized)
				return
			}
			ctx = context.WithValue(r.Context(), GuestContextKey, guest)
		default:
			http.Error(w, "Unknown actor type in token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCustomer rejects requests whose token does not belong to a customer.
// It should be used after AuthMiddleware.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customer, ok := r.Context().Value(CustomerContextKey).(*models.Customer)
		if !ok || customer == nil {
			http.Error(w, "Customer account required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest rejects requests whose token does not belong to a guest.
// It should be used after AuthMiddleware.
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guest, ok := r.Context().Value(GuestContextKey).(*models.Guest)
		if !ok || guest == nil {
			http.Error(w, "Guest registration required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// customerFromContext returns the authenticated customer or nil.
func customerFromContext(r *http.Request) *models.Customer {
	customer, _ := r.Context().Value(CustomerContextKey).(*models.Customer)
	return customer
}

// guestFromContext returns the authenticated guest or nil.
func guestFromContext(r *http.Request) *models.Guest {
	guest, _ := r.Context().Value(GuestContextKey).(*models.Guest)
	return guest
}
