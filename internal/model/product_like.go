package model

import "time"

// ProductLike is one edge of the like relation. The composite primary key is
// what keeps a user from liking the same product twice, even under concurrent
// requests.
type ProductLike struct {
	UserID    string    `gorm:"primaryKey;size:16"`
	ProductID string    `gorm:"primaryKey;size:16;index"`
	CreatedAt time.Time `gorm:"not null"`

	User    User    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Product Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
