package models

import "time"

// Archive (zip) generation status values, mirrored in the events table.
const (
	ArchiveStatusNone       = "none"
	ArchiveStatusPending    = "pending"
	ArchiveStatusProcessing = "processing"
	ArchiveStatusDone       = "done"
	ArchiveStatusError      = "error"
)

// Event is a single occasion (wedding, party, ...) whose guests upload photos
// during the event's upload window.
type Event struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	EventCode   string  `json:"event_code" gorm:"uniqueIndex;size:50;not null"`
	Name        string  `json:"name" gorm:"size:200;not null"`
	EventType   string  `json:"event_type" gorm:"size:30;not null"`
	Description *string `json:"description,omitempty"`

	// EventDate is the calendar day of the event (time component is midnight).
	// EventStartTime/EventEndTime are optional wall-clock times in "15:04".
	EventDate      time.Time `json:"event_date" gorm:"not null"`
	EventStartTime *string   `json:"event_start_time,omitempty" gorm:"size:5"`
	EventEndTime   *string   `json:"event_end_time,omitempty" gorm:"size:5"`

	// ValidFrom/ValidUntil bound the guest upload window. Both are computed
	// once at event creation and never recomputed afterwards.
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	Venue          *string `json:"venue,omitempty" gorm:"size:200"`
	ExpectedGuests *int    `json:"expected_guests,omitempty"`

	// StorageFolderPath is the per-event namespace prefix for storage keys,
	// derived from EventCode at creation ("events/{code}/").
	StorageFolderPath string `json:"storage_folder_path" gorm:"size:500;not null"`
	QRCodeURL         string `json:"qr_code_url" gorm:"size:500"`

	CustomerID uint      `json:"customer_id" gorm:"index;not null"`
	Customer   *Customer `json:"-" gorm:"foreignKey:CustomerID"`

	IsActive bool `json:"is_active" gorm:"not null;default:true"`

	// full-event archive generation, handled by the archive worker pool
	ArchiveStatus      string  `json:"archive_status" gorm:"not null;default:none"`
	ArchiveKey         *string `json:"archive_key,omitempty" gorm:"size:500"`
	ArchiveSize        *int64  `json:"archive_size,omitempty"`
	ArchiveRequestedAt *int64  `json:"archive_requested_at,omitempty"`
	ArchiveGeneratedAt *int64  `json:"archive_generated_at,omitempty"`
	ArchiveError       *string `json:"archive_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Guests []Guest `json:"guests,omitempty" gorm:"foreignKey:EventID"`
	Images []Image `json:"images,omitempty" gorm:"foreignKey:EventID"`
}

func (Event) TableName() string {
	return "events"
}
