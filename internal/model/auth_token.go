package model

import "time"

type AuthToken struct {
	ID     string `gorm:"primaryKey;size:16" json:"-"`
	Token  string `gorm:"not null;uniqueIndex" json:"token"`
	UserID string `gorm:"size:16;not null;uniqueIndex" json:"-"`
	// ExpiresAt mirrors the exp claim of Token. The claim is what gets checked.
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
