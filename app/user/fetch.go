package user

import (
	"net/http"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"

	"github.com/gin-gonic/gin"
)

// Fetch returns the profile of the signed in user with the products they
// liked and reserved
func Fetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	user, err := d.Identity.Profile(ctx, userID)
	if err != nil {
		respond.Error(c, err, "Failed to fetch user")
		return
	}

	liked, err := d.Catalog.LikedBy(ctx, userID)
	if err != nil {
		respond.Error(c, err, "Failed to fetch liked products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"likedProducts": liked,
	})
}

func Liked(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	products, err := d.Catalog.LikedBy(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err, "Failed to fetch liked products")
		return
	}

	c.JSON(http.StatusOK, products)
}

func Reserved(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	products, err := d.Catalog.ReservedBy(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err, "Failed to fetch reserved products")
		return
	}

	c.JSON(http.StatusOK, products)
}
