package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"grandeva/store-api/internal/model"
	"grandeva/store-api/pkg/util"
	"grandeva/store-api/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxProductNameLength = 255

// Catalog owns product records and their images. Images are written before
// records and removed after them, so a failure in between never leaves a
// record pointing at a missing image.
type Catalog struct {
	DB       *gorm.DB
	Store    storage.Store
	Uploader *Uploader
}

func NewCatalog(db *gorm.DB, s storage.Store, u *Uploader) *Catalog {
	return &Catalog{DB: db, Store: s, Uploader: u}
}

type CreateProductInput struct {
	Name     string
	Type     model.ProductType
	Price    *float64
	Features json.RawMessage
	Image    io.Reader
	Filename string
}

func (in *CreateProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" {
		return fmt.Errorf("%w, name is required", ErrInvalidProduct)
	}

	if utf8.RuneCountInString(in.Name) > maxProductNameLength {
		return fmt.Errorf("%w, name is too long", ErrInvalidProduct)
	}

	if !in.Type.Valid() {
		return fmt.Errorf("%w, unknown type %q", ErrInvalidProduct, in.Type)
	}

	if in.Price != nil && (math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) || *in.Price < 0) {
		return fmt.Errorf("%w, price must be a positive number", ErrInvalidProduct)
	}

	if len(in.Features) == 0 {
		in.Features = json.RawMessage("{}")
	} else if !json.Valid(in.Features) {
		return fmt.Errorf("%w, features must be valid JSON", ErrInvalidProduct)
	}

	if in.Image == nil {
		return fmt.Errorf("%w, no image provided", ErrInvalidImage)
	}

	return nil
}

// CreateProduct uploads the image and then writes the record. When the record
// can't be written the image is deleted again and a *CreateFailedError tells
// the caller whether that worked.
func (s *Catalog) CreateProduct(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	id, err := util.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate product ID, %w", err)
	}

	key, err := s.Uploader.Do(ctx, in.Image, in.Filename)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:        id,
		Name:      in.Name,
		Price:     in.Price,
		Type:      in.Type,
		Data:      model.JSON(in.Features),
		ImageName: key,
		ImageURL:  s.Store.URL(key),
	}

	if err := s.DB.WithContext(ctx).Create(product).Error; err != nil {
		cerr := &CreateFailedError{Err: err, ImageKey: key}

		// The request may already be gone, the cleanup still has to run
		rbErr := s.Store.Delete(context.WithoutCancel(ctx), key)
		if rbErr != nil {
			cerr.RollbackErr = rbErr
			zap.L().Error("Failed to roll back product image", zap.String("key", key), zap.Error(rbErr))
		} else {
			cerr.ImageRolledBack = true
		}

		return nil, cerr
	}

	return product, nil
}

// DeleteProduct removes the record and its likes, then the image. If only the
// image removal fails ErrImageCleanupFailed is returned and the record stays
// deleted.
func (s *Catalog) DeleteProduct(ctx context.Context, id string) error {
	var product model.Product

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}

			return err
		}

		if err := tx.Where("product_id = ?", id).Delete(&model.ProductLike{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes, %w", err)
		}

		return tx.Delete(&product).Error
	})
	if err != nil {
		return err
	}

	if product.ImageName == "" {
		return nil
	}

	if err := s.Store.Delete(context.WithoutCancel(ctx), product.ImageName); err != nil {
		return fmt.Errorf("%w, %w", ErrImageCleanupFailed, err)
	}

	return nil
}

// DeleteAll wipes the catalog and returns how many products were removed
func (s *Catalog) DeleteAll(ctx context.Context) (int64, error) {
	var (
		deleted int64
		keys    []string
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Pluck("image_name", &keys).Error; err != nil {
			return fmt.Errorf("failed to list images, %w", err)
		}

		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})

		if err := global.Delete(&model.ProductLike{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes, %w", err)
		}

		r := global.Delete(&model.Product{})
		if r.Error != nil {
			return fmt.Errorf("failed to delete products, %w", r.Error)
		}

		deleted = r.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	cleanupCtx := context.WithoutCancel(ctx)

	// Everything under the prefix belongs to the catalog, which also catches
	// images leaked by earlier failed creates
	if prefix := s.Uploader.Prefix; prefix != "" {
		n, err := s.Store.DeletePrefix(cleanupCtx, prefix)
		if err != nil {
			return deleted, fmt.Errorf("%w, %w", ErrImageCleanupFailed, err)
		}

		zap.L().Debug("Catalog images deleted", zap.Int("count", n))
		return deleted, nil
	}

	var errs []error
	for _, k := range keys {
		if err := s.Store.Delete(cleanupCtx, k); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return deleted, fmt.Errorf("%w, %w", ErrImageCleanupFailed, errors.Join(errs...))
	}

	return deleted, nil
}

func (s *Catalog) ListProducts(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}

	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Find(&products).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products, %w", err)
	}

	return products, nil
}

func (s *Catalog) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product

	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}

		return nil, fmt.Errorf("failed to fetch product, %w", err)
	}

	return &product, nil
}

// LikedBy returns the products userID liked, most recent like first
func (s *Catalog) LikedBy(ctx context.Context, userID string) ([]model.Product, error) {
	products := []model.Product{}

	err := s.DB.WithContext(ctx).
		Select("products.*").
		Joins("JOIN product_likes ON product_likes.product_id = products.id").
		Where("product_likes.user_id = ?", userID).
		Order("product_likes.created_at DESC").
		Find(&products).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list liked products, %w", err)
	}

	return products, nil
}

func (s *Catalog) ReservedBy(ctx context.Context, userID string) ([]model.Product, error) {
	products := []model.Product{}

	err := s.DB.WithContext(ctx).
		Where("reserved_by_user_id = ?", userID).
		Order("updated_at DESC").
		Find(&products).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reserved products, %w", err)
	}

	return products, nil
}
