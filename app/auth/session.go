package auth

import (
	"net/http"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"

	"github.com/gin-gonic/gin"
)

func Refresh(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	token, err := d.Identity.Refresh(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err, "Failed to refresh token")
		return
	}

	c.Header(TokenHeader, token.Token)
	c.JSON(http.StatusOK, gin.H{
		"expiresAt": token.ExpiresAt,
	})
}

func SignOut(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	if err := d.Identity.SignOut(c.Request.Context(), userID); err != nil {
		respond.Error(c, err, "Failed to sign out user")
		return
	}

	c.Status(http.StatusNoContent)
}
