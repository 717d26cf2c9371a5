package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Guest belongs to exactly one event; the binding is fixed at registration.
// UploadCount only ever grows, incremented by the upload pipeline once per
// accepted file.
type Guest struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	Name         string  `json:"name" gorm:"size:100;not null"`
	Email        *string `json:"email,omitempty" gorm:"size:100"`
	PhoneNumber  *string `json:"phone_number,omitempty" gorm:"size:20"`
	PasswordHash *string `json:"-" gorm:"size:255"`

	EventID uint   `json:"event_id" gorm:"index;not null"`
	Event   *Event `json:"-" gorm:"foreignKey:EventID"`

	UploadCount int `json:"upload_count" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Images []Image `json:"images,omitempty" gorm:"foreignKey:GuestID"`
}

// SetPassword hashes and stores an optional guest password.
func (g *Guest) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s := string(hashed)
	g.PasswordHash = &s
	return nil
}

// CheckPassword verifies the given password; guests without a password never
// match.
func (g *Guest) CheckPassword(password string) bool {
	if g.PasswordHash == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*g.PasswordHash), []byte(password)) == nil
}

func (Guest) TableName() string {
	return "guests"
}
