package service

import (
	"context"
	"errors"
	"time"

	"grandeva/store-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Interactions is the only way likes and reservations get written. Every
// operation reads the current state and writes the change inside one
// transaction, so two requests racing on the same product can't both win.
type Interactions struct {
	DB *gorm.DB
}

func NewInteractions(db *gorm.DB) *Interactions {
	return &Interactions{DB: db}
}

// Like adds productID to the liked products of userID
func (s *Interactions) Like(ctx context.Context, userID, productID string) (*model.Product, error) {
	return s.run(ctx, userID, productID, func(tx *gorm.DB, p *model.Product) error {
		liked, err := isLiked(tx, userID, productID)
		if err != nil {
			return err
		}

		if liked {
			return ErrAlreadyLiked
		}

		err = tx.
			Omit(clause.Associations).
			Create(&model.ProductLike{
				UserID:    userID,
				ProductID: productID,
				CreatedAt: time.Now(),
			}).
			Error
		if err != nil {
			// Lost the race against a concurrent like of the same pair
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyLiked
			}

			return err
		}

		return tx.
			Model(&model.Product{}).
			Where("id = ?", productID).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1)).
			Error
	})
}

// Unlike removes productID from the liked products of userID
func (s *Interactions) Unlike(ctx context.Context, userID, productID string) (*model.Product, error) {
	return s.run(ctx, userID, productID, func(tx *gorm.DB, p *model.Product) error {
		r := tx.
			Where("user_id = ? AND product_id = ?", userID, productID).
			Delete(&model.ProductLike{})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrNotLiked
		}

		return tx.
			Model(&model.Product{}).
			Where("id = ? AND likes > 0", productID).
			UpdateColumn("likes", gorm.Expr("likes - ?", 1)).
			Error
	})
}

// Reserve makes userID the holder of productID. A product that is already
// reserved can't be reserved again, not even by its current holder.
func (s *Interactions) Reserve(ctx context.Context, userID, productID string) (*model.Product, error) {
	return s.run(ctx, userID, productID, func(tx *gorm.DB, p *model.Product) error {
		if p.IsReserved {
			return ErrAlreadyReserved
		}

		r := tx.
			Model(&model.Product{}).
			Where("id = ? AND is_reserved = ?", productID, false).
			Updates(map[string]any{
				"is_reserved":         true,
				"reserved_by_user_id": userID,
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrAlreadyReserved
		}

		return nil
	})
}

// Release gives up the reservation userID holds on productID
func (s *Interactions) Release(ctx context.Context, userID, productID string) (*model.Product, error) {
	return s.run(ctx, userID, productID, func(tx *gorm.DB, p *model.Product) error {
		if !p.IsReserved {
			return ErrNotReserved
		}

		if p.ReservedByUserID == nil || *p.ReservedByUserID != userID {
			return ErrNotReservationHolder
		}

		r := tx.
			Model(&model.Product{}).
			Where("id = ? AND reserved_by_user_id = ?", productID, userID).
			Updates(map[string]any{
				"is_reserved":         false,
				"reserved_by_user_id": nil,
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrNotReserved
		}

		return nil
	})
}

// run opens the transaction, checks both ends of the relation exist, locks
// the product row and hands it to fn. The product is reloaded after fn so
// callers get the committed state back.
func (s *Interactions) run(ctx context.Context, userID, productID string, fn func(tx *gorm.DB, p *model.Product) error) (*model.Product, error) {
	var product model.Product

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64

		err := tx.
			Model(&model.User{}).
			Where("id = ?", userID).
			Count(&users).
			Error
		if err != nil {
			return err
		}

		if users == 0 {
			return ErrUserNotFound
		}

		// FOR UPDATE on postgres. SQLite has no row locks and serializes
		// writers on its own.
		err = tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", productID).
			First(&product).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}

			return err
		}

		if err := fn(tx, &product); err != nil {
			return err
		}

		return tx.Where("id = ?", productID).First(&product).Error
	})
	if err != nil {
		zap.L().Debug("Interaction rejected",
			zap.String("userID", userID),
			zap.String("productID", productID),
			zap.Error(err),
		)
		return nil, err
	}

	return &product, nil
}

func isLiked(tx *gorm.DB, userID, productID string) (bool, error) {
	var n int64

	err := tx.
		Model(&model.ProductLike{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).
		Error

	return n > 0, err
}
