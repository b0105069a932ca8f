package auth

import (
	"net/http"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"
	"grandeva/store-api/internal/service"
	"grandeva/store-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response header carrying a freshly issued session token
const TokenHeader = "authorization"

type registerBody struct {
	Method   string `json:"method"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func Register(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.Fail(c, http.StatusBadRequest, "invalid_body")
		return
	}

	if data.Method == "" {
		data.Method = service.MethodEmailPassword
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		respond.Fail(c, http.StatusBadRequest, "invalid_email")
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		zap.L().Debug("Invalid password", zap.Error(err), zap.String("requestID", requestID))
		respond.Fail(c, http.StatusBadRequest, "invalid_password")
		return
	}

	user, token, err := d.Identity.Register(c.Request.Context(), service.RegisterInput{
		Method:   data.Method,
		Email:    data.Email,
		Name:     data.Name,
		Password: data.Password,
	})
	if err != nil {
		respond.Error(c, err, "Failed to register user")
		return
	}

	c.Header(TokenHeader, token.Token)
	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"expiresAt": token.ExpiresAt,
	})
}
