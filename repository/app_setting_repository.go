package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
)

// AppSettingRepository handles database operations for the key/value
// configuration store
type AppSettingRepository struct {
	DB *gorm.DB
}

// NewAppSettingRepository creates a new instance of AppSettingRepository
func NewAppSettingRepository(db *gorm.DB) *AppSettingRepository {
	return &AppSettingRepository{DB: db}
}

// Get returns the stored value for key. A missing key is reported as
// gorm.ErrRecordNotFound so callers can fall back to their defaults.
func (r *AppSettingRepository) Get(key string) (string, error) {
	var setting models.AppSetting
	err := r.DB.Where("property_key = ?", key).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", err
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting.PropertyValue, nil
}

// Set upserts a setting value.
func (r *AppSettingRepository) Set(key, value string) error {
	setting := models.AppSetting{PropertyKey: key, PropertyValue: value}
	err := r.DB.Save(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
