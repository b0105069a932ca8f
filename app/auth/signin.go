package auth

import (
	"net/http"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"

	"github.com/gin-gonic/gin"
)

type signinBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func SignIn(c *gin.Context, d *internal.Deps) {
	var data signinBody
	if err := c.ShouldBindJSON(&data); err != nil || data.Email == "" || data.Password == "" {
		respond.Fail(c, http.StatusBadRequest, "invalid_body")
		return
	}

	token, err := d.Identity.Authenticate(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		respond.Error(c, err, "Failed to sign in user")
		return
	}

	c.Header(TokenHeader, token.Token)
	c.JSON(http.StatusOK, gin.H{
		"expiresAt": token.ExpiresAt,
	})
}
