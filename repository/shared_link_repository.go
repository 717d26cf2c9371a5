package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
)

// SharedLinkRepository handles database operations for SharedLink entities
type SharedLinkRepository struct {
	DB *gorm.DB
}

// NewSharedLinkRepository creates a new instance of SharedLinkRepository
func NewSharedLinkRepository(db *gorm.DB) *SharedLinkRepository {
	return &SharedLinkRepository{DB: db}
}

func (r *SharedLinkRepository) Create(link *models.SharedLink) error {
	if err := r.DB.Create(link).Error; err != nil {
		return fmt.Errorf("failed to create shared link: %w", err)
	}
	return nil
}

func (r *SharedLinkRepository) GetByShareCode(code string) (*models.SharedLink, error) {
	var link models.SharedLink
	err := r.DB.Preload("Images").Where("share_code = ?", code).First(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get shared link by code %s: %w", code, err)
	}
	return &link, nil
}

func (r *SharedLinkRepository) ExistsByShareCode(code string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.SharedLink{}).Where("share_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check share code %s: %w", code, err)
	}
	return count > 0, nil
}

func (r *SharedLinkRepository) ListByCustomer(customerID uint) ([]models.SharedLink, error) {
	var links []models.SharedLink
	err := r.DB.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shared links for customer %d: %w", customerID, err)
	}
	return links, nil
}

func (r *SharedLinkRepository) Deactivate(id uint) error {
	result := r.DB.Model(&models.SharedLink{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate shared link %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
