// Package model defines database models
package model

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:16" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"unique;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	PhoneNumber  *string   `json:"phoneNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Only the last issued session is kept
	AuthToken *AuthToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	// Mutated exclusively by the reservation operations, never by user updates
	ReservedProducts []Product `gorm:"foreignKey:ReservedByUserID" json:"reservedProducts,omitempty"`
}
