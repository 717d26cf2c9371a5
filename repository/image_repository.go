package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/fingerprint"
	"github.com/eventlens/eventlensbackend/models"
)

// ImageRepository handles database operations for Image entities
type ImageRepository struct {
	DB *gorm.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{DB: db}
}

func (r *ImageRepository) Create(image *models.Image) error {
	if err := r.DB.Create(image).Error; err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(id uint) (*models.Image, error) {
	var image models.Image
	err := r.DB.First(&image, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get image %d: %w", id, err)
	}
	return &image, nil
}

func (r *ImageRepository) ListByEvent(eventID uint) ([]models.Image, error) {
	var images []models.Image
	err := r.DB.Where("event_id = ?", eventID).Order("uploaded_at ASC, id ASC").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images for event %d: %w", eventID, err)
	}
	return images, nil
}

func (r *ImageRepository) ListByEventAndGuest(eventID, guestID uint) ([]models.Image, error) {
	var images []models.Image
	err := r.DB.Where("event_id = ? AND guest_id = ?", eventID, guestID).
		Order("uploaded_at ASC, id ASC").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images for event %d guest %d: %w", eventID, guestID, err)
	}
	return images, nil
}

func (r *ImageRepository) ListByIDs(ids []uint) ([]models.Image, error) {
	if len(ids) == 0 {
		return []models.Image{}, nil
	}
	var images []models.Image
	err := r.DB.Where("id IN ?", ids).Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images by ids: %w", err)
	}
	return images, nil
}

func (r *ImageRepository) CountByEvent(eventID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Image{}).Where("event_id = ?", eventID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count images for event %d: %w", eventID, err)
	}
	return count, nil
}

func (r *ImageRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Image{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete image %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFingerprints returns the stored fingerprints for one guest's uploads to
// one event, in insertion order. Rows with a NULL hash are omitted.
func (r *ImageRepository) ListFingerprints(eventID, guestID uint) ([]fingerprint.Record, error) {
	var rows []struct {
		ID             uint
		PerceptualHash *string
	}
	err := r.DB.Model(&models.Image{}).
		Select("id", "perceptual_hash").
		Where("event_id = ? AND guest_id = ? AND perceptual_hash IS NOT NULL", eventID, guestID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list fingerprints for event %d guest %d: %w", eventID, guestID, err)
	}

	records := make([]fingerprint.Record, 0, len(rows))
	for _, row := range rows {
		if row.PerceptualHash == nil {
			continue
		}
		records = append(records, fingerprint.Record{ImageID: row.ID, Encoded: *row.PerceptualHash})
	}
	return records, nil
}
