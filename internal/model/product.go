package model

import (
	"slices"
	"time"
)

type ProductType string

const (
	ProductClothes ProductType = "CLOTHES"
	ProductShoe    ProductType = "SHOE"
	ProductHat     ProductType = "HAT"
	ProductPerfume ProductType = "PERFUME"
	ProductBag     ProductType = "BAG"
)

var productTypes = []ProductType{ProductClothes, ProductShoe, ProductHat, ProductPerfume, ProductBag}

func (t ProductType) Valid() bool {
	return slices.Contains(productTypes, t)
}

type Product struct {
	ID    string      `gorm:"primaryKey;size:16" json:"id"`
	Name  string      `gorm:"not null" json:"name"`
	Price *float64    `json:"price"`
	Type  ProductType `gorm:"size:16;not null;index" json:"type"`
	// Free form attributes (sizes, colors, materials...), only validated as JSON
	Data JSON `json:"data"`
	// Key of the image inside the blob store
	ImageName string `gorm:"not null" json:"imageName"`
	ImageURL  string `gorm:"not null" json:"imageUrl"`
	// Number of product_likes rows, kept in the same transaction as the rows themselves
	Likes            int       `gorm:"not null;default:0" json:"likes"`
	IsReserved       bool      `gorm:"not null;default:false" json:"isReserved"`
	ReservedByUserID *string   `gorm:"size:16;index" json:"reservedByUserId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
