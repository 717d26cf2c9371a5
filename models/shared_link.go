package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SharedLink is a customer-created, optionally password-protected selection
// of images shareable by code.
type SharedLink struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	ShareCode  string  `json:"share_code" gorm:"uniqueIndex;size:24;not null"`
	FolderName *string `json:"folder_name,omitempty" gorm:"size:200"`

	AccessPasswordHash *string    `json:"-" gorm:"size:255"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`

	EventID    uint      `json:"event_id" gorm:"index;not null"`
	Event      *Event    `json:"-" gorm:"foreignKey:EventID"`
	CustomerID uint      `json:"customer_id" gorm:"index;not null"`
	Customer   *Customer `json:"-" gorm:"foreignKey:CustomerID"`

	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`

	Images []Image `json:"images,omitempty" gorm:"many2many:shared_link_images;"`
}

// IsExpired reports whether the link's optional expiry has passed.
func (l *SharedLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// SetAccessPassword hashes and stores an optional access password.
func (l *SharedLink) SetAccessPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s := string(hashed)
	l.AccessPasswordHash = &s
	return nil
}

// CheckAccessPassword verifies the given password; links without a password
// always pass.
func (l *SharedLink) CheckAccessPassword(password string) bool {
	if l.AccessPasswordHash == nil {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(*l.AccessPasswordHash), []byte(password)) == nil
}

func (SharedLink) TableName() string {
	return "shared_links"
}
