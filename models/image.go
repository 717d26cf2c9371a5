package models

import "time"

// Image is one accepted guest upload. Rows are created exclusively by the
// upload pipeline and never updated afterwards, only deleted.
type Image struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	FileName         string `json:"file_name" gorm:"size:255;not null"`
	OriginalFileName string `json:"original_file_name" gorm:"size:255"`

	// StorageKey is unique and derived per upload attempt; it is never reused.
	StorageKey string `json:"storage_key" gorm:"uniqueIndex;size:500;not null"`
	StorageURL string `json:"storage_url" gorm:"size:1000;not null"`

	FileSizeMB  float64 `json:"file_size_mb"`
	ContentType string  `json:"content_type" gorm:"size:50"`

	// PerceptualHash is nullable: hashing failure disables duplicate checking
	// for the file but does not block its upload.
	PerceptualHash *string `json:"perceptual_hash,omitempty" gorm:"size:100"`

	// best-effort EXIF capture metadata
	CameraMake  *string `json:"camera_make,omitempty" gorm:"size:100"`
	CameraModel *string `json:"camera_model,omitempty" gorm:"size:100"`
	TakenAt     *int64  `json:"taken_at,omitempty" gorm:"index"`

	EventID uint   `json:"event_id" gorm:"index:idx_images_event_guest;not null"`
	Event   *Event `json:"-" gorm:"foreignKey:EventID"`
	GuestID uint   `json:"guest_id" gorm:"index:idx_images_event_guest;not null"`
	Guest   *Guest `json:"-" gorm:"foreignKey:GuestID"`

	UploadedAt time.Time `json:"uploaded_at"`
}

func (Image) TableName() string {
	return "images"
}
