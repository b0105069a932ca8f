package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")

	ErrAlreadyLiked         = errors.New("product already liked")
	ErrNotLiked             = errors.New("product not liked")
	ErrAlreadyReserved      = errors.New("product already reserved")
	ErrNotReserved          = errors.New("product not reserved")
	ErrNotReservationHolder = errors.New("product reserved by another user")

	ErrEmailTaken         = errors.New("email already registered")
	ErrUnsupportedMethod  = errors.New("unsupported sign-in method")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")

	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidImage       = errors.New("invalid image")
	ErrUploadFailed       = errors.New("image upload failed")
	ErrImageCleanupFailed = errors.New("image cleanup failed")
)

// CreateFailedError is returned when the image got uploaded but the product
// record couldn't be written. ImageRolledBack tells whether the compensating
// delete went through or the object is left behind under ImageKey.
type CreateFailedError struct {
	Err             error
	ImageKey        string
	ImageRolledBack bool
	RollbackErr     error
}

func (e *CreateFailedError) Error() string {
	if e.ImageRolledBack {
		return fmt.Sprintf("failed to create product, image rolled back: %v", e.Err)
	}

	return fmt.Sprintf("failed to create product, image %s leaked: %v (rollback: %v)", e.ImageKey, e.Err, e.RollbackErr)
}

func (e *CreateFailedError) Unwrap() error {
	return e.Err
}
