// Package respond turns service errors into the JSON error responses every
// handler sends
package respond

import (
	"errors"
	"net/http"

	"grandeva/store-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mapping struct {
	err    error
	status int
	code   string
}

var mappings = []mapping{
	{service.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{service.ErrProductNotFound, http.StatusNotFound, "product_not_found"},

	{service.ErrAlreadyLiked, http.StatusConflict, "already_liked"},
	{service.ErrNotLiked, http.StatusConflict, "not_liked"},
	{service.ErrAlreadyReserved, http.StatusConflict, "already_reserved"},
	{service.ErrNotReserved, http.StatusConflict, "not_reserved"},
	{service.ErrNotReservationHolder, http.StatusForbidden, "not_reservation_holder"},

	{service.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{service.ErrUnsupportedMethod, http.StatusBadRequest, "unsupported_method"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{service.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
	{service.ErrTokenInvalid, http.StatusUnauthorized, "token_invalid"},

	{service.ErrInvalidProduct, http.StatusBadRequest, "invalid_product"},
	{service.ErrInvalidImage, http.StatusBadRequest, "invalid_image"},
	{service.ErrUploadFailed, http.StatusBadGateway, "upload_failed"},
}

// Fail sends a client error with the given code
func Fail(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     code,
		"requestID": c.GetString("requestID"),
	})
}

// Error maps err to its status and code. Anything unknown is logged with msg
// and reported as an internal error without details.
func Error(c *gin.Context, err error, msg string) {
	requestID := c.GetString("requestID")

	for _, m := range mappings {
		if errors.Is(err, m.err) {
			zap.L().Debug(msg, zap.Error(err), zap.String("requestID", requestID))
			Fail(c, m.status, m.code)
			return
		}
	}

	var cerr *service.CreateFailedError
	if errors.As(err, &cerr) {
		zap.L().Error(msg,
			zap.Error(err),
			zap.String("imageKey", cerr.ImageKey),
			zap.Bool("imageRolledBack", cerr.ImageRolledBack),
			zap.String("requestID", requestID),
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":           "create_failed",
			"imageRolledBack": cerr.ImageRolledBack,
			"requestID":       requestID,
		})
		return
	}

	zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))
	Fail(c, http.StatusInternalServerError, "internal_server_error")
}
