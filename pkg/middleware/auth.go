package middleware

import (
	"context"
	"errors"
	"net/http"

	"grandeva/store-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const AuthHeader = "auth_token"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// NewAuthMiddleware checks the auth_token header and sets userID for the
// handlers after it
func NewAuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		tokenStr := c.GetHeader(AuthHeader)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "missing_auth_token",
				"requestID": requestID,
			})
			return
		}

		userID, err := v.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			var code string

			switch {
			case errors.Is(err, service.ErrTokenExpired):
				code = "token_expired"
			case errors.Is(err, service.ErrTokenRevoked):
				code = "token_revoked"
			case errors.Is(err, service.ErrTokenInvalid):
				code = "token_invalid"
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "internal_server_error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to verify token", zap.Error(err), zap.String("requestID", requestID))
				return
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     code,
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
