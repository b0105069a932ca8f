package product

import (
	"context"
	"net/http"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"
	"grandeva/store-api/internal/model"

	"github.com/gin-gonic/gin"
)

type interaction func(ctx context.Context, userID, productID string) (*model.Product, error)

func interact(c *gin.Context, op interaction, msg string) {
	userID := c.MustGet("userID").(string)

	id, ok := productID(c)
	if !ok {
		return
	}

	p, err := op(c.Request.Context(), userID, id)
	if err != nil {
		respond.Error(c, err, msg)
		return
	}

	c.JSON(http.StatusOK, p)
}

func Like(c *gin.Context, d *internal.Deps) {
	interact(c, d.Interactions.Like, "Failed to like product")
}

func Dislike(c *gin.Context, d *internal.Deps) {
	interact(c, d.Interactions.Unlike, "Failed to dislike product")
}

func Reserve(c *gin.Context, d *internal.Deps) {
	interact(c, d.Interactions.Reserve, "Failed to reserve product")
}

func Release(c *gin.Context, d *internal.Deps) {
	interact(c, d.Interactions.Release, "Failed to release product")
}
