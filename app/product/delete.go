package product

import (
	"errors"
	"net/http"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"
	"grandeva/store-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Delete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	id, ok := productID(c)
	if !ok {
		return
	}

	err := d.Catalog.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		// The record is gone, only the image stayed behind
		if errors.Is(err, service.ErrImageCleanupFailed) {
			zap.L().Error("Failed to delete product image", zap.Error(err), zap.String("productID", id), zap.String("requestID", requestID))

			c.JSON(http.StatusMultiStatus, gin.H{
				"error":     "image_cleanup_failed",
				"requestID": requestID,
			})
			return
		}

		respond.Error(c, err, "Failed to delete product")
		return
	}

	c.Status(http.StatusNoContent)
}

func DeleteAll(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	n, err := d.Catalog.DeleteAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrImageCleanupFailed) {
			zap.L().Error("Failed to delete catalog images", zap.Error(err), zap.String("requestID", requestID))

			c.JSON(http.StatusMultiStatus, gin.H{
				"deleted":   n,
				"error":     "image_cleanup_failed",
				"requestID": requestID,
			})
			return
		}

		respond.Error(c, err, "Failed to delete products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": n,
	})
}
