package internal

import (
	"grandeva/store-api/internal/service"
	"grandeva/store-api/storage"

	"gorm.io/gorm"
)

type Deps struct {
	DB           *gorm.DB
	Store        storage.Store
	Identity     *service.Identity
	Catalog      *service.Catalog
	Interactions *service.Interactions
}
