package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/models"
)

// EventRepository handles database operations for Event entities
type EventRepository struct {
	DB *gorm.DB
}

// NewEventRepository creates a new instance of EventRepository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) Create(event *models.Event) error {
	if err := r.DB.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	err := r.DB.First(&event, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return &event, nil
}

func (r *EventRepository) GetByEventCode(code string) (*models.Event, error) {
	var event models.Event
	err := r.DB.Where("event_code = ?", code).First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event by code %s: %w", code, err)
	}
	return &event, nil
}

func (r *EventRepository) ListByCustomer(customerID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.DB.Where("customer_id = ?", customerID).Order("event_date DESC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for customer %d: %w", customerID, err)
	}
	return events, nil
}

func (r *EventRepository) ExistsByEventCode(code string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Event{}).Where("event_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check event code %s: %w", code, err)
	}
	return count > 0, nil
}

// RequestArchive moves an event into 'pending' archive state unless a build is
// already queued or running.
func (r *EventRepository) RequestArchive(eventID uint) error {
	now := time.Now().Unix()
	result := r.DB.Model(&models.Event{}).
		Where("id = ? AND archive_status NOT IN ?", eventID, []string{models.ArchiveStatusPending, models.ArchiveStatusProcessing}).
		Updates(map[string]interface{}{
			"archive_status":       models.ArchiveStatusPending,
			"archive_requested_at": now,
			"archive_error":        gorm.Expr("NULL"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to request archive for event %d: %w", eventID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkArchiveProcessing flags the event's archive build as running.
func (r *EventRepository) MarkArchiveProcessing(eventID uint) error {
	result := r.DB.Model(&models.Event{}).Where("id = ?", eventID).
		Update("archive_status", models.ArchiveStatusProcessing)
	if result.Error != nil {
		return fmt.Errorf("failed to mark archive processing for event %d: %w", eventID, result.Error)
	}
	return nil
}

// SetArchiveResult records the outcome of an archive build.
func (r *EventRepository) SetArchiveResult(eventID uint, archiveKey *string, archiveSize *int64, taskErr error) error {
	now := time.Now().Unix()
	status := models.ArchiveStatusDone
	var errStr *string

	if taskErr != nil {
		status = models.ArchiveStatusError
		s := taskErr.Error()
		errStr = &s
	}

	updates := map[string]interface{}{
		"archive_status":       status,
		"archive_key":          archiveKey,
		"archive_size":         archiveSize,
		"archive_generated_at": &now,
		"archive_error":        errStr,
	}

	result := r.DB.Model(&models.Event{}).Where("id = ?", eventID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to set archive result for event %d: %w", eventID, result.Error)
	}
	return nil
}
