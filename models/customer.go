package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Customer is the paying account that owns events.
type Customer struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Events []Event `json:"events,omitempty" gorm:"foreignKey:CustomerID"`
}

// SetPassword hashes the given password and sets it on the customer.
func (c *Customer) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hashed)
	return nil
}

// CheckPassword verifies the given password against the stored hash.
func (c *Customer) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

func (Customer) TableName() string {
	return "customers"
}
