package repository

import (
	"github.com/eventlens/eventlensbackend/fingerprint"
	"github.com/eventlens/eventlensbackend/models"
)

// CustomerRepositoryInterface defines the methods for customer data operations
type CustomerRepositoryInterface interface {
	Create(customer *models.Customer) error
	GetByID(id uint) (*models.Customer, error)
	GetByEmail(email string) (*models.Customer, error)
}

// EventRepositoryInterface defines the methods for event data operations
type EventRepositoryInterface interface {
	Create(event *models.Event) error
	GetByID(id uint) (*models.Event, error)
	GetByEventCode(code string) (*models.Event, error)
	ListByCustomer(customerID uint) ([]models.Event, error)
	ExistsByEventCode(code string) (bool, error)

	// archive generation status transitions used by the archive worker
	RequestArchive(eventID uint) error
	MarkArchiveProcessing(eventID uint) error
	SetArchiveResult(eventID uint, archiveKey *string, archiveSize *int64, taskErr error) error
}

// GuestRepositoryInterface defines the methods for guest data operations
type GuestRepositoryInterface interface {
	Create(guest *models.Guest) error
	GetByID(id uint) (*models.Guest, error)
	GetByEmailAndEvent(email string, eventID uint) (*models.Guest, error)
	ListByEvent(eventID uint) ([]models.Guest, error)

	// IncrementUploadCount must be an atomic counter update so concurrent
	// uploads from the same guest never lose increments.
	IncrementUploadCount(guestID uint) error
}

// ImageRepositoryInterface defines the methods for image data operations
type ImageRepositoryInterface interface {
	Create(image *models.Image) error
	GetByID(id uint) (*models.Image, error)
	ListByEvent(eventID uint) ([]models.Image, error)
	ListByEventAndGuest(eventID, guestID uint) ([]models.Image, error)
	ListByIDs(ids []uint) ([]models.Image, error)
	CountByEvent(eventID uint) (int64, error)
	Delete(id uint) error

	// ListFingerprints returns the stored fingerprints for the (event, guest)
	// duplicate-detection scope, in insertion order.
	ListFingerprints(eventID, guestID uint) ([]fingerprint.Record, error)
}

// SharedLinkRepositoryInterface defines the methods for shared link data operations
type SharedLinkRepositoryInterface interface {
	Create(link *models.SharedLink) error
	GetByShareCode(code string) (*models.SharedLink, error)
	ExistsByShareCode(code string) (bool, error)
	ListByCustomer(customerID uint) ([]models.SharedLink, error)
	Deactivate(id uint) error
}

// AppSettingRepositoryInterface defines the methods for the key/value
// configuration store
type AppSettingRepositoryInterface interface {
	Get(key string) (string, error)
	Set(key, value string) error
}
