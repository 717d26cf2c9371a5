package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
)

// GuestRepository handles database operations for Guest entities
type GuestRepository struct {
	DB *gorm.DB
}

// NewGuestRepository creates a new instance of GuestRepository
func NewGuestRepository(db *gorm.DB) *GuestRepository {
	return &GuestRepository{DB: db}
}

func (r *GuestRepository) Create(guest *models.Guest) error {
	if err := r.DB.Create(guest).Error; err != nil {
		return fmt.Errorf("failed to create guest: %w", err)
	}
	return nil
}

func (r *GuestRepository) GetByID(id uint) (*models.Guest, error) {
	var guest models.Guest
	err := r.DB.First(&guest, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get guest %d: %w", id, err)
	}
	return &guest, nil
}

func (r *GuestRepository) GetByEmailAndEvent(email string, eventID uint) (*models.Guest, error) {
	var guest models.Guest
	err := r.DB.Where("email = ? AND event_id = ?", email, eventID).First(&guest).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get guest by email %s for event %d: %w", email, eventID, err)
	}
	return &guest, nil
}

func (r *GuestRepository) ListByEvent(eventID uint) ([]models.Guest, error) {
	var guests []models.Guest
	err := r.DB.Where("event_id = ?", eventID).Order("created_at ASC").Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guests for event %d: %w", eventID, err)
	}
	return guests, nil
}

// IncrementUploadCount bumps the counter in a single UPDATE so concurrent
// uploads never lose increments to a read-modify-write race.
func (r *GuestRepository) IncrementUploadCount(guestID uint) error {
	result := r.DB.Model(&models.Guest{}).Where("id = ?", guestID).
		Update("upload_count", gorm.Expr("upload_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to increment upload count for guest %d: %w", guestID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
